package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"humanparts/internal/datasets"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "download {coco|yolo|mscoco}",
		Short:     "Download a published dataset layout",
		Long:      "Download the COCO-format or YOLO-format COCO Human Parts distribution, or the MS-COCO 2017 archives.\nThe default directory is <paths.dataset_dir>/<layout>.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"coco", "yolo", "mscoco"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			layout := args[0]
			dest, err := resolveDir(dir, filepath.Join(cfg.Paths.DatasetDir, layout))
			if err != nil {
				return err
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			preparer := datasets.NewPreparer(cfg, ctx.newFetcher(cmd, logger), logger)

			var prepare func(context.Context, string) error
			switch layout {
			case "coco":
				prepare = preparer.PrepareCOCO
			case "yolo":
				prepare = preparer.PrepareYOLO
			default:
				prepare = preparer.PrepareMSCOCO
			}
			if err := prepare(ctx.runContext(cmd), dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s layout into %s\n", layout, dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory")
	return cmd
}
