package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"humanparts/internal/fetch"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		dir         string
		unzip       bool
		deleteAfter bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Download files into a directory, extracting zip archives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			dest, err := resolveDir(dir, cfg.Paths.DatasetDir)
			if err != nil {
				return err
			}

			opts := fetch.Options{
				Unzip:         cfg.Fetch.Unzip,
				DeleteArchive: cfg.Fetch.DeleteArchive,
				Concurrency:   cfg.Fetch.Concurrency,
			}
			flags := cmd.Flags()
			if flags.Changed("unzip") {
				opts.Unzip = unzip
			}
			if flags.Changed("delete") {
				opts.DeleteArchive = deleteAfter
			}
			if flags.Changed("concurrency") {
				opts.Concurrency = concurrency
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			fetcher := ctx.newFetcher(cmd, logger)
			if err := fetcher.Fetch(ctx.runContext(cmd), args, dest, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d file(s) into %s\n", len(args), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (defaults to paths.dataset_dir)")
	cmd.Flags().BoolVar(&unzip, "unzip", true, "Extract downloaded zip archives")
	cmd.Flags().BoolVar(&deleteAfter, "delete", true, "Delete archives after successful extraction")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 1, "Number of parallel downloads")
	return cmd
}
