package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"humanparts/internal/annotations"
	"humanparts/internal/fileutil"
	"humanparts/internal/logging"
	"humanparts/internal/progress"
	"humanparts/internal/services"
	"humanparts/internal/yolo"
)

// PersonClass is the YOLO class id of the person line.
const PersonClass = 0

// NormalizeBox clamps an (x, y, w, h) pixel box to the image and returns it as
// normalized (x_center, y_center, w, h). Clamping happens fully in pixel space
// before normalization: an extent past the right or bottom edge is cut to end
// one pixel inside the image, then a negative origin is moved to zero and
// the extent shrunk by the same amount.
func NormalizeBox(bbox [4]float64, width, height int) [4]float64 {
	x, y, w, h := bbox[0], bbox[1], bbox[2], bbox[3]
	imgW, imgH := float64(width), float64(height)

	if x+w > imgW {
		w = imgW - 1 - x
	}
	if y+h > imgH {
		h = imgH - 1 - y
	}
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}

	return [4]float64{(x + w/2) / imgW, (y + h/2) / imgH, w / imgW, h / imgH}
}

func lineFor(classID int, bbox [4]float64, image annotations.ImageRecord) yolo.Line {
	n := NormalizeBox(bbox, image.Width, image.Height)
	return yolo.Line{ClassID: classID, XCenter: n[0], YCenter: n[1], Width: n[2], Height: n[3]}
}

// ImageLines returns the label lines of one image: per detection, the person
// followed by its visible parts in slot order.
func ImageLines(image annotations.ImageRecord, dets []annotations.PersonDetection) []yolo.Line {
	lines := make([]yolo.Line, 0, len(dets)*2)
	for _, det := range dets {
		lines = append(lines, lineFor(PersonClass, det.BBox, image))
		for slot, part := range det.Parts {
			if !part.Visible {
				continue
			}
			lines = append(lines, lineFor(annotations.PartSlot(slot).YOLOClass(), part.Box.XYWH(), image))
		}
	}
	return lines
}

// YoloOptions configures ToYolo.
type YoloOptions struct {
	ImagesDir    string
	DstImagesDir string
	DstLabelsDir string
	Logger       *slog.Logger
	Progress     io.Writer
}

func (o YoloOptions) validate() error {
	switch {
	case strings.TrimSpace(o.ImagesDir) == "":
		return services.Wrap(services.ErrConfiguration, "to_yolo", "options", "images directory is required", nil)
	case strings.TrimSpace(o.DstImagesDir) == "":
		return services.Wrap(services.ErrConfiguration, "to_yolo", "options", "destination images directory is required", nil)
	case strings.TrimSpace(o.DstLabelsDir) == "":
		return services.Wrap(services.ErrConfiguration, "to_yolo", "options", "destination labels directory is required", nil)
	}
	return nil
}

// ToYolo writes one label file per image and copies the image next to it.
// Images without detections get an empty label file. Images missing from
// ImagesDir are logged and skipped.
func ToYolo(ctx context.Context, src *annotations.Source, opts YoloOptions) (Summary, error) {
	if err := opts.validate(); err != nil {
		return Summary{}, err
	}
	started := time.Now()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "to_yolo"))

	byImage, err := groupByImage(src)
	if err != nil {
		return Summary{}, err
	}
	for _, dir := range []string{opts.DstImagesDir, opts.DstLabelsDir} {
		if err := fileutil.CheckWritableDir(dir); err != nil {
			return Summary{}, err
		}
	}

	summary := Summary{Detections: len(src.Detections)}
	bar := progress.NewCount(opts.Progress, len(src.Images), "labels")
	defer bar.Finish()

	for _, image := range src.Images {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		bar.Add(1)
		summary.Images++

		if image.Width <= 0 || image.Height <= 0 {
			return summary, services.Wrap(services.ErrSchemaMismatch, "to_yolo",
				fmt.Sprintf("image %d", image.ID),
				fmt.Sprintf("invalid size %dx%d", image.Width, image.Height), nil)
		}

		name := filepath.Base(image.FileName)
		srcImage := filepath.Join(opts.ImagesDir, image.FileName)
		if _, err := os.Stat(srcImage); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return summary, fmt.Errorf("stat %s: %w", srcImage, err)
			}
			logging.WarnWithContext(logger, "source image missing; skipping", "path_not_found",
				logging.String("image", srcImage),
				logging.Int64("image_id", image.ID),
				logging.String(logging.FieldErrorHint, services.Hint(services.ErrPathNotFound)),
				logging.String(logging.FieldImpact, "image left out of the converted split"),
			)
			summary.Skipped++
			continue
		}

		lines := ImageLines(image, byImage[image.ID])
		labelPath := filepath.Join(opts.DstLabelsDir, strings.TrimSuffix(name, filepath.Ext(name))+".txt")
		if err := fileutil.CopyFile(srcImage, filepath.Join(opts.DstImagesDir, name)); err != nil {
			return summary, fmt.Errorf("copy image %s: %w", srcImage, err)
		}
		if err := yolo.WriteFile(labelPath, lines); err != nil {
			return summary, fmt.Errorf("write labels %s: %w", labelPath, err)
		}
		summary.LabelFiles++
		summary.Annotations += len(lines)
	}

	summary.Elapsed = time.Since(started)
	logger.Info("wrote yolo labels",
		logging.String("labels_dir", opts.DstLabelsDir),
		logging.Int("label_files", summary.LabelFiles),
		logging.Int("lines", summary.Annotations),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed.Round(time.Millisecond)),
	)
	return summary, nil
}

// ToYoloFile loads a source annotation file and runs ToYolo on it.
func ToYoloFile(ctx context.Context, srcPath string, opts YoloOptions) (Summary, error) {
	src, err := annotations.LoadSource(srcPath)
	if err != nil {
		return Summary{}, err
	}
	summary, err := ToYolo(ctx, src, opts)
	if err != nil {
		return summary, fmt.Errorf("%s: %w", srcPath, err)
	}
	return summary, nil
}

func groupByImage(src *annotations.Source) (map[int64][]annotations.PersonDetection, error) {
	index := annotations.ImageIndex(src.Images)
	grouped := make(map[int64][]annotations.PersonDetection, len(src.Images))
	for _, det := range src.Detections {
		if _, ok := index[det.ImageID]; !ok {
			return nil, services.Wrap(services.ErrSchemaMismatch, "to_yolo",
				fmt.Sprintf("annotation %d", det.ID),
				fmt.Sprintf("image_id %d has no image record", det.ImageID), nil)
		}
		grouped[det.ImageID] = append(grouped[det.ImageID], det)
	}
	return grouped, nil
}

// UpdateDataConfig creates or updates <root>/data.yaml so it points at root,
// lists the split's image directory, and carries the class names of table.
func UpdateDataConfig(root, split string, table annotations.CategoryTable) (string, error) {
	path := filepath.Join(root, dataConfigFile)
	data, err := yolo.LoadDataConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return path, services.Wrap(services.ErrSchemaMismatch, "to_yolo", path, "", err)
		}
		data = yolo.DataConfig{}
	}
	if err := data.SetPath(root); err != nil {
		return path, err
	}
	data.SetSplit(split, filepath.Join("images", split))
	data.SetNames(table.YOLONames())
	if err := data.Save(path); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
