package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"humanparts/internal/annotations"
	"humanparts/internal/convert"
	"humanparts/internal/services"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert annotation formats",
	}

	convertCmd.AddCommand(newConvertCOCOCommand(ctx))
	convertCmd.AddCommand(newConvertYOLOCommand(ctx))
	convertCmd.AddCommand(newConvertYOLOToCOCOCommand(ctx))

	return convertCmd
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return services.Wrap(services.ErrConfiguration, "flags", "--"+name, "is required", nil)
	}
	return nil
}

func newConvertCOCOCommand(ctx *commandContext) *cobra.Command {
	var src, dst, variant string

	cmd := &cobra.Command{
		Use:   "coco",
		Short: "Expand hierarchical part annotations into COCO detection records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("src", src); err != nil {
				return err
			}
			if err := requireFlag("dst", dst); err != nil {
				return err
			}
			cfg := ctx.configValue()
			if strings.TrimSpace(variant) == "" {
				variant = cfg.Categories.Variant
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			summary, err := convert.ExpandFile(ctx.runContext(cmd), src, dst, convert.ExpandOptions{
				Variant: variant,
				Fuse:    annotations.Mapping(cfg.FuseMapping("coco")),
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Output", "Variant", "Images", "Detections", "Annotations", "Elapsed"},
				[][]string{{dst, variant, formatCount(summary.Images), formatCount(summary.Detections), formatCount(summary.Annotations), formatElapsed(summary.Elapsed)}},
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "src", "", "Source COCO Human Parts annotation file")
	cmd.Flags().StringVar(&dst, "dst", "", "Destination annotation file")
	cmd.Flags().StringVar(&variant, "variant", "", "Category variant (parts7 or fused5; defaults to categories.variant)")
	return cmd
}

func newConvertYOLOCommand(ctx *commandContext) *cobra.Command {
	var src, images, dst, split string

	cmd := &cobra.Command{
		Use:   "yolo",
		Short: "Write YOLO label files for one split",
		Long:  "Write <dst>/labels/<split>/<stem>.txt for every image, copy images to <dst>/images/<split>, and record the split in <dst>/data.yaml.",
		RunE: func(cmd *cobra.Command, args []string) error {
			required := []struct{ name, value string }{{"src", src}, {"images", images}, {"dst", dst}, {"split", split}}
			for _, flag := range required {
				if err := requireFlag(flag.name, flag.value); err != nil {
					return err
				}
			}
			split = strings.TrimSpace(split)
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			runCtx := services.WithSplit(ctx.runContext(cmd), split)

			summary, err := convert.ToYoloFile(runCtx, src, convert.YoloOptions{
				ImagesDir:    images,
				DstImagesDir: filepath.Join(dst, "images", split),
				DstLabelsDir: filepath.Join(dst, "labels", split),
				Logger:       logger,
				Progress:     ctx.progressWriter(cmd),
			})
			if err != nil {
				return err
			}
			dataPath, err := convert.UpdateDataConfig(dst, split, annotations.MustTable(annotations.VariantParts7))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Split", "Images", "Label files", "Lines", "Skipped", "Elapsed"},
				[][]string{{split, formatCount(summary.Images), formatCount(summary.LabelFiles), formatCount(summary.Annotations), formatCount(summary.Skipped), formatElapsed(summary.Elapsed)}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Updated %s\n", dataPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "src", "", "Source COCO Human Parts annotation file")
	cmd.Flags().StringVar(&images, "images", "", "Directory holding the source images")
	cmd.Flags().StringVar(&dst, "dst", "", "Destination dataset root")
	cmd.Flags().StringVar(&split, "split", "train", "Split name")
	return cmd
}

func newConvertYOLOToCOCOCommand(ctx *commandContext) *cobra.Command {
	var src, dst, name string

	cmd := &cobra.Command{
		Use:   "yolo-to-coco",
		Short: "Convert a YOLO dataset into per-split COCO annotation files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("src", src); err != nil {
				return err
			}
			if err := requireFlag("dst", dst); err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			results, err := convert.YoloToCOCO(ctx.runContext(cmd), convert.CocoOptions{
				SrcRoot:     src,
				DstRoot:     dst,
				DatasetName: name,
				Logger:      logger,
				Progress:    ctx.progressWriter(cmd),
			})
			if err != nil {
				return err
			}

			splits := make([]string, 0, len(results))
			for split := range results {
				splits = append(splits, split)
			}
			sort.Strings(splits)
			rows := make([][]string, 0, len(splits))
			for _, split := range splits {
				s := results[split]
				rows = append(rows, []string{split, formatCount(s.Images), formatCount(s.Annotations), formatCount(s.Skipped)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Split", "Images", "Annotations", "Skipped"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "src", "", "YOLO dataset root (data.yaml, images/, labels/)")
	cmd.Flags().StringVar(&dst, "dst", "", "Destination root")
	cmd.Flags().StringVar(&name, "name", "", "Dataset name used in the info description")
	return cmd
}
