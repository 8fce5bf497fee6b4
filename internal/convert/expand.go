package convert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"humanparts/internal/annotations"
	"humanparts/internal/logging"
	"humanparts/internal/services"
)

// Expand flattens person detections into one annotation for the person and
// one per visible part. Ids are assigned from 1 in input order. The table must
// define the person category and every part category the slots map to.
func Expand(dets []annotations.PersonDetection, images []annotations.ImageRecord, table annotations.CategoryTable) (*annotations.Dataset, error) {
	if err := requireCategories(table); err != nil {
		return nil, err
	}
	index := annotations.ImageIndex(images)

	out := make([]annotations.Annotation, 0, len(dets)*2)
	nextID := int64(1)
	for _, det := range dets {
		if _, ok := index[det.ImageID]; !ok {
			return nil, services.Wrap(services.ErrSchemaMismatch, "expand",
				fmt.Sprintf("annotation %d", det.ID),
				fmt.Sprintf("image_id %d has no image record", det.ImageID), nil)
		}
		out = append(out, personAnnotation(det, nextID))
		nextID++
		for slot, part := range det.Parts {
			if !part.Visible {
				continue
			}
			out = append(out, annotations.Annotation{
				ID:         nextID,
				ImageID:    det.ImageID,
				CategoryID: annotations.PartSlot(slot).COCOCategory(),
				BBox:       part.Box.XYWH(),
				Area:       part.Box.Area(),
				IsCrowd:    det.IsCrowd,
			})
			nextID++
		}
	}

	if images == nil {
		images = []annotations.ImageRecord{}
	}
	return &annotations.Dataset{
		Categories:  append([]annotations.Category(nil), table.Categories...),
		Images:      images,
		Annotations: out,
	}, nil
}

func personAnnotation(det annotations.PersonDetection, id int64) annotations.Annotation {
	area := det.Area
	if area <= 0 {
		area = det.BBox[2] * det.BBox[3]
	}
	return annotations.Annotation{
		ID:         id,
		ImageID:    det.ImageID,
		CategoryID: annotations.PersonCategory,
		BBox:       det.BBox,
		Area:       area,
		IsCrowd:    det.IsCrowd,
	}
}

func requireCategories(table annotations.CategoryTable) error {
	want := []int{annotations.PersonCategory}
	for slot := 0; slot < annotations.NumParts; slot++ {
		want = append(want, annotations.PartSlot(slot).COCOCategory())
	}
	for _, id := range want {
		if !table.Contains(id) {
			return services.Wrap(services.ErrConfiguration, "expand", "category table "+table.Version,
				fmt.Sprintf("missing category %d", id), nil)
		}
	}
	return nil
}

// ExpandOptions configures ExpandFile.
type ExpandOptions struct {
	// Variant selects the category table of the output. The fused variant
	// is produced by expanding with the 7-class table and remapping.
	Variant string

	// Fuse overrides the COCO fuse mapping applied for the fused variant.
	Fuse   annotations.Mapping
	Logger *slog.Logger
}

// Summary reports the outcome of a conversion run.
type Summary struct {
	Images      int
	Detections  int
	Annotations int
	LabelFiles  int
	Skipped     int
	Elapsed     time.Duration
}

// ExpandFile reads a source annotation file and writes the expanded dataset.
func ExpandFile(ctx context.Context, srcPath, dstPath string, opts ExpandOptions) (Summary, error) {
	started := time.Now()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "expand"))

	variant := opts.Variant
	if variant == "" {
		variant = annotations.VariantParts7
	}
	target, err := annotations.Table(variant)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "expand", "variant", "", err)
	}

	src, err := annotations.LoadSource(srcPath)
	if err != nil {
		return Summary{}, err
	}
	logger.Info("loaded source annotations",
		logging.String("path", srcPath),
		logging.Int("images", len(src.Images)),
		logging.Int("detections", len(src.Detections)),
	)

	dataset, err := Expand(src.Detections, src.Images, annotations.MustTable(annotations.VariantParts7))
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", srcPath, err)
	}
	if target.Version == annotations.VariantFused5 {
		mapping := opts.Fuse
		if mapping == nil {
			mapping = annotations.FuseCOCOMapping()
		}
		dataset.Annotations = annotations.Remap(dataset.Annotations, mapping)
		dataset.Categories = target.Categories
	}

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	if err := dataset.Save(dstPath, ""); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Images:      len(dataset.Images),
		Detections:  len(src.Detections),
		Annotations: len(dataset.Annotations),
		Elapsed:     time.Since(started),
	}
	logger.Info("wrote expanded annotations",
		logging.String("path", dstPath),
		logging.String("variant", target.Version),
		logging.Int("annotations", summary.Annotations),
		logging.Duration("elapsed", summary.Elapsed.Round(time.Millisecond)),
	)
	return summary, nil
}
