package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"humanparts/internal/annotations"
	"humanparts/internal/fileutil"
	"humanparts/internal/logging"
	"humanparts/internal/progress"
	"humanparts/internal/services"
	"humanparts/internal/yolo"
)

const (
	// COCOAnnotationsFile is the per-split annotation file of the Roboflow layout.
	COCOAnnotationsFile = "_annotations.coco.json"
	dataConfigFile      = "data.yaml"
	noSupercategory     = "none"
	cocoIndent          = "    "
)

// SplitPair maps a YOLO split directory to its Roboflow split name.
type SplitPair struct {
	Source string
	Target string
}

// DefaultSplits are the splits converted by YoloToCOCO when none are given.
func DefaultSplits() []SplitPair {
	return []SplitPair{{Source: "train", Target: "train"}, {Source: "val", Target: "valid"}}
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
}

// CocoOptions configures YoloToCOCO.
type CocoOptions struct {
	SrcRoot     string
	DstRoot     string
	DatasetName string
	Splits      []SplitPair
	Logger      *slog.Logger
	Progress    io.Writer
}

// YoloToCOCO converts a YOLO dataset (data.yaml, images/<split>,
// labels/<split>) into one directory per split holding the images and a
// _annotations.coco.json file. Image and annotation ids start at 0 and
// category ids equal the YOLO class ids.
func YoloToCOCO(ctx context.Context, opts CocoOptions) (map[string]Summary, error) {
	if strings.TrimSpace(opts.SrcRoot) == "" || strings.TrimSpace(opts.DstRoot) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "yolo_to_coco", "options", "source and destination roots are required", nil)
	}
	base := logging.NewComponentLogger(opts.Logger, "yolo_to_coco")

	dataPath := filepath.Join(opts.SrcRoot, dataConfigFile)
	data, err := yolo.LoadDataConfig(dataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrPathNotFound, "yolo_to_coco", dataPath, "", err)
		}
		return nil, services.Wrap(services.ErrSchemaMismatch, "yolo_to_coco", dataPath, "", err)
	}
	names, err := data.Names()
	if err != nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "yolo_to_coco", dataPath, "", err)
	}
	categories := categoriesFromNames(names)

	name := opts.DatasetName
	if name == "" {
		name = filepath.Base(filepath.Clean(opts.SrcRoot))
	}
	splits := opts.Splits
	if len(splits) == 0 {
		splits = DefaultSplits()
	}

	results := make(map[string]Summary, len(splits))
	for _, split := range splits {
		splitCtx := services.WithSplit(ctx, split.Source)
		summary, err := convertSplit(splitCtx, opts, split, name, categories, logging.WithContext(splitCtx, base))
		if err != nil {
			return results, err
		}
		results[split.Target] = summary
	}
	return results, nil
}

func categoriesFromNames(names map[int]string) []annotations.Category {
	ids := make([]int, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	categories := make([]annotations.Category, 0, len(ids))
	for _, id := range ids {
		categories = append(categories, annotations.Category{ID: id, Name: names[id], Supercategory: noSupercategory})
	}
	return categories
}

func convertSplit(ctx context.Context, opts CocoOptions, split SplitPair, name string, categories []annotations.Category, logger *slog.Logger) (Summary, error) {
	started := time.Now()
	imageDir := filepath.Join(opts.SrcRoot, "images", split.Source)
	labelDir := filepath.Join(opts.SrcRoot, "labels", split.Source)
	targetDir := filepath.Join(opts.DstRoot, split.Target)

	entries, err := os.ReadDir(imageDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Summary{}, services.Wrap(services.ErrPathNotFound, "yolo_to_coco", imageDir, "", err)
		}
		return Summary{}, fmt.Errorf("list %s: %w", imageDir, err)
	}
	if err := fileutil.CheckWritableDir(targetDir); err != nil {
		return Summary{}, err
	}

	info, err := json.Marshal(map[string]string{"description": fmt.Sprintf("%s %s dataset", name, split.Target)})
	if err != nil {
		return Summary{}, err
	}
	dataset := &annotations.Dataset{
		Info:        info,
		Categories:  categories,
		Images:      []annotations.ImageRecord{},
		Annotations: []annotations.Annotation{},
	}

	var summary Summary
	bar := progress.NewCount(opts.Progress, len(entries), split.Target)
	defer bar.Finish()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		bar.Add(1)
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		srcImage := filepath.Join(imageDir, entry.Name())
		width, height, err := imageSize(srcImage)
		if err != nil {
			logging.WarnWithContext(logger, "unreadable image; skipping", "image_decode_failed",
				logging.String("image", srcImage),
				logging.Error(err),
				logging.String(logging.FieldImpact, "image left out of the converted split"),
			)
			summary.Skipped++
			continue
		}
		if err := fileutil.CopyFile(srcImage, filepath.Join(targetDir, entry.Name())); err != nil {
			return summary, fmt.Errorf("copy image %s: %w", srcImage, err)
		}

		imageID := int64(len(dataset.Images))
		record := annotations.ImageRecord{ID: imageID, FileName: entry.Name(), Width: width, Height: height}
		dataset.Images = append(dataset.Images, record)

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		labelPath := filepath.Join(labelDir, stem+".txt")
		lines, bad, err := yolo.ReadFile(labelPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return summary, fmt.Errorf("read labels %s: %w", labelPath, err)
		}
		for _, m := range bad {
			logging.WarnWithContext(logger, "malformed label line dropped", "malformed_label",
				logging.String("file", labelPath),
				logging.Int("line", m.LineNumber),
				logging.String("text", m.Text),
			)
		}
		for _, line := range lines {
			dataset.Annotations = append(dataset.Annotations, annotationFromLine(int64(len(dataset.Annotations)), imageID, line, width, height))
		}
	}

	if err := dataset.Save(filepath.Join(targetDir, COCOAnnotationsFile), cocoIndent); err != nil {
		return summary, err
	}
	summary.Images = len(dataset.Images)
	summary.Annotations = len(dataset.Annotations)
	summary.Elapsed = time.Since(started)
	logger.Info("wrote coco split",
		logging.String("dir", targetDir),
		logging.Int("images", summary.Images),
		logging.Int("annotations", summary.Annotations),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// DenormalizeLine converts a YOLO line back to an (x, y, w, h) pixel box.
func DenormalizeLine(line yolo.Line, width, height int) [4]float64 {
	w := line.Width * float64(width)
	h := line.Height * float64(height)
	x := line.XCenter*float64(width) - w/2
	y := line.YCenter*float64(height) - h/2
	return [4]float64{x, y, w, h}
}

func annotationFromLine(id, imageID int64, line yolo.Line, width, height int) annotations.Annotation {
	bbox := DenormalizeLine(line, width, height)
	return annotations.Annotation{
		ID:         id,
		ImageID:    imageID,
		CategoryID: line.ClassID,
		BBox:       bbox,
		Area:       bbox[2] * bbox[3],
	}
}

func imageSize(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
