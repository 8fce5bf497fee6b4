package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"humanparts/internal/annotations"
	"humanparts/internal/services"
	"humanparts/internal/testsupport"
	"humanparts/internal/yolo"
)

func TestImageLinesPersonThenParts(t *testing.T) {
	image := annotations.ImageRecord{ID: 10, FileName: "a.jpg", Width: 100, Height: 200}
	det := detection(1, 10, [4]float64{10, 10, 50, 80}, map[annotations.PartSlot][4]float64{
		annotations.SlotHead: {15, 15, 40, 45},
	})

	lines := ImageLines(image, []annotations.PersonDetection{det})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if got := lines[0].String(); got != "0 0.35 0.25 0.5 0.4" {
		t.Fatalf("unexpected person line %q", got)
	}
	if got := lines[1].String(); got != "1 0.275 0.15 0.25 0.15" {
		t.Fatalf("unexpected head line %q", got)
	}
}

func TestImageLinesClassIDsFollowSlots(t *testing.T) {
	image := annotations.ImageRecord{ID: 1, FileName: "a.jpg", Width: 100, Height: 100}
	det := detection(1, 1, [4]float64{0, 0, 50, 50}, map[annotations.PartSlot][4]float64{
		annotations.SlotFace:     {1, 1, 5, 5},
		annotations.SlotLeftFoot: {10, 10, 20, 20},
	})

	lines := ImageLines(image, []annotations.PersonDetection{det})
	var ids []int
	for _, line := range lines {
		ids = append(ids, line.ClassID)
	}
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 2 || ids[2] != 5 {
		t.Fatalf("unexpected class ids %v", ids)
	}
}

func TestNormalizeBoxClampsRightAndBottom(t *testing.T) {
	got := NormalizeBox([4]float64{80, 90, 40, 30}, 100, 100)
	// width becomes 100-1-80 = 19, height 100-1-90 = 9
	want := [4]float64{0.895, 0.945, 0.19, 0.09}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Fatalf("NormalizeBox = %v, want %v", got, want)
		}
	}
}

func TestNormalizeBoxClampsNegativeOrigin(t *testing.T) {
	got := NormalizeBox([4]float64{-10, -20, 50, 60}, 100, 100)
	want := [4]float64{0.2, 0.2, 0.4, 0.4}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Fatalf("NormalizeBox = %v, want %v", got, want)
		}
	}
}

func TestNormalizeBoxStaysInUnitRange(t *testing.T) {
	boxes := [][4]float64{
		{0, 0, 640, 480},
		{639, 479, 1, 1},
		{-5, -5, 700, 500},
		{320, 240, 400, 400},
		{0.5, 0.5, 10.25, 3.75},
	}
	for _, box := range boxes {
		got := NormalizeBox(box, 640, 480)
		for i, v := range got {
			if v < 0 || v > 1 {
				t.Fatalf("NormalizeBox(%v)[%d] = %v outside [0,1]", box, i, v)
			}
		}
	}
}

func TestNormalizeBoxLeavesInteriorBoxUnchanged(t *testing.T) {
	got := NormalizeBox([4]float64{10, 20, 30, 40}, 100, 100)
	want := [4]float64{0.25, 0.4, 0.3, 0.4}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Fatalf("NormalizeBox = %v, want %v", got, want)
		}
	}
}

func TestToYoloWritesLabelsAndCopiesImages(t *testing.T) {
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	testsupport.WriteFile(t, filepath.Join(imagesDir, "a.jpg"), []byte("jpeg-a"))
	testsupport.WriteFile(t, filepath.Join(imagesDir, "b.jpg"), []byte("jpeg-b"))

	src := &annotations.Source{
		Images: []annotations.ImageRecord{
			{ID: 10, FileName: "a.jpg", Width: 100, Height: 200},
			{ID: 11, FileName: "b.jpg", Width: 100, Height: 100},
			{ID: 12, FileName: "c.jpg", Width: 100, Height: 100},
		},
		Detections: []annotations.PersonDetection{
			detection(1, 10, [4]float64{10, 10, 50, 80}, map[annotations.PartSlot][4]float64{
				annotations.SlotHead: {15, 15, 40, 45},
			}),
			detection(2, 12, [4]float64{0, 0, 10, 10}, nil),
		},
	}
	logger, logs := bufferLogger()
	opts := YoloOptions{
		ImagesDir:    imagesDir,
		DstImagesDir: filepath.Join(dir, "out", "images", "val"),
		DstLabelsDir: filepath.Join(dir, "out", "labels", "val"),
		Logger:       logger,
	}

	summary, err := ToYolo(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("ToYolo failed: %v", err)
	}
	if summary.LabelFiles != 2 || summary.Skipped != 1 || summary.Annotations != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	label, err := os.ReadFile(filepath.Join(opts.DstLabelsDir, "a.txt"))
	if err != nil {
		t.Fatalf("read label: %v", err)
	}
	if string(label) != "0 0.35 0.25 0.5 0.4\n1 0.275 0.15 0.25 0.15\n" {
		t.Fatalf("unexpected label content %q", label)
	}
	empty, err := os.ReadFile(filepath.Join(opts.DstLabelsDir, "b.txt"))
	if err != nil {
		t.Fatalf("expected empty label file for image without detections: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty label file, got %q", empty)
	}
	if testsupport.FileExists(filepath.Join(opts.DstLabelsDir, "c.txt")) {
		t.Fatal("missing image must not produce a label file")
	}
	copied, err := os.ReadFile(filepath.Join(opts.DstImagesDir, "a.jpg"))
	if err != nil || string(copied) != "jpeg-a" {
		t.Fatalf("expected copied image, got %q (%v)", copied, err)
	}
	if !strings.Contains(logs.String(), "path_not_found") || !strings.Contains(logs.String(), "c.jpg") {
		t.Fatalf("expected warning for missing image, got %s", logs.String())
	}
}

func TestToYoloLeavesNoLabelWhenImageCopyFails(t *testing.T) {
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	testsupport.WriteFile(t, filepath.Join(imagesDir, "a.jpg"), []byte("jpeg-a"))
	opts := YoloOptions{
		ImagesDir:    imagesDir,
		DstImagesDir: filepath.Join(dir, "out", "images", "train"),
		DstLabelsDir: filepath.Join(dir, "out", "labels", "train"),
	}
	// A directory in place of the destination image makes the copy fail.
	if err := os.MkdirAll(filepath.Join(opts.DstImagesDir, "a.jpg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := &annotations.Source{
		Images:     []annotations.ImageRecord{{ID: 1, FileName: "a.jpg", Width: 100, Height: 100}},
		Detections: []annotations.PersonDetection{detection(1, 1, [4]float64{10, 10, 20, 20}, nil)},
	}

	if _, err := ToYolo(context.Background(), src, opts); err == nil {
		t.Fatal("expected copy failure")
	}
	if testsupport.FileExists(filepath.Join(opts.DstLabelsDir, "a.txt")) {
		t.Fatal("expected no label file for an image that was not copied")
	}
}

func TestToYoloRejectsOrphanDetections(t *testing.T) {
	dir := t.TempDir()
	src := &annotations.Source{
		Images:     []annotations.ImageRecord{{ID: 1, FileName: "a.jpg", Width: 10, Height: 10}},
		Detections: []annotations.PersonDetection{detection(1, 2, [4]float64{0, 0, 1, 1}, nil)},
	}
	_, err := ToYolo(context.Background(), src, YoloOptions{
		ImagesDir:    dir,
		DstImagesDir: filepath.Join(dir, "i"),
		DstLabelsDir: filepath.Join(dir, "l"),
	})
	if !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestToYoloRequiresDirectories(t *testing.T) {
	_, err := ToYolo(context.Background(), &annotations.Source{}, YoloOptions{ImagesDir: "x"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestToYoloHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &annotations.Source{Images: []annotations.ImageRecord{{ID: 1, FileName: "a.jpg", Width: 10, Height: 10}}}

	_, err := ToYolo(ctx, src, YoloOptions{
		ImagesDir:    dir,
		DstImagesDir: filepath.Join(dir, "i"),
		DstLabelsDir: filepath.Join(dir, "l"),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestToYoloFileLoadsSource(t *testing.T) {
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	testsupport.WriteFile(t, filepath.Join(imagesDir, "a.jpg"), []byte("x"))
	src := writeSource(t, dir,
		[]map[string]any{{"id": 1, "file_name": "a.jpg", "width": 100, "height": 100}},
		[]map[string]any{{"id": 1, "image_id": 1, "bbox": []float64{0, 0, 50, 50}, "hierarchy": make([]float64, 36)}},
	)

	summary, err := ToYoloFile(context.Background(), src, YoloOptions{
		ImagesDir:    imagesDir,
		DstImagesDir: filepath.Join(dir, "out", "images"),
		DstLabelsDir: filepath.Join(dir, "out", "labels"),
	})
	if err != nil {
		t.Fatalf("ToYoloFile failed: %v", err)
	}
	if summary.Annotations != 1 {
		t.Fatalf("expected person-only line, got %+v", summary)
	}
}

func TestUpdateDataConfigMergesSplits(t *testing.T) {
	root := t.TempDir()
	table := annotations.MustTable(annotations.VariantParts7)

	if _, err := UpdateDataConfig(root, "train", table); err != nil {
		t.Fatalf("UpdateDataConfig train: %v", err)
	}
	path, err := UpdateDataConfig(root, "val", table)
	if err != nil {
		t.Fatalf("UpdateDataConfig val: %v", err)
	}

	data, err := yolo.LoadDataConfig(path)
	if err != nil {
		t.Fatalf("load data.yaml: %v", err)
	}
	if data["train"] != "images/train" || data["val"] != "images/val" {
		t.Fatalf("expected both splits recorded, got %v", data)
	}
	if data["path"] != root {
		t.Fatalf("expected absolute root %q, got %v", root, data["path"])
	}
	names, err := data.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 7 || names[0] != "person" || names[6] != "rightfoot" {
		t.Fatalf("unexpected names %v", names)
	}
}
