package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"humanparts/internal/annotations"
	"humanparts/internal/datasets"
)

func newFuseCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var force bool

	cmd := &cobra.Command{
		Use:       "fuse {coco|yolo}",
		Short:     "Merge left/right hand and foot categories of a prepared dataset",
		Long:      "Rewrite a prepared dataset to the 5-class table (person, head, face, hand, foot).\nOriginal files are kept as *_backup copies. The default directory is <paths.dataset_dir>/<format>.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"coco", "yolo"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			format := args[0]
			target, err := resolveDir(dir, filepath.Join(cfg.Paths.DatasetDir, format))
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			opts := datasets.FuseOptions{
				Mapping:  annotations.Mapping(cfg.FuseMapping(format)),
				Force:    force,
				Logger:   logger,
				Progress: ctx.progressWriter(cmd),
			}
			run := datasets.FuseCOCO
			if format == "yolo" {
				run = datasets.FuseYOLO
			}
			summary, err := run(ctx.runContext(cmd), target, opts)
			if err != nil {
				return err
			}
			return printFuseSummary(cmd, format, target, summary)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Dataset directory")
	cmd.Flags().BoolVar(&force, "force", false, "Fuse even when the dataset already uses the 5-class table")
	return cmd
}

func printFuseSummary(cmd *cobra.Command, format, dir string, summary datasets.FuseSummary) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Format", "Directory", "Files", "Skipped", "Dropped lines", "Backups"},
		[][]string{{format, dir, formatCount(summary.Files), formatCount(summary.Skipped), formatCount(summary.DroppedLines), formatCount(len(summary.Backups))}},
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}
