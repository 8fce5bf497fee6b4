package datasets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"humanparts/internal/annotations"
	"humanparts/internal/services"
	"humanparts/internal/testsupport"
	"humanparts/internal/yolo"
)

func writeExpanded(t *testing.T, path string) {
	t.Helper()
	table := annotations.MustTable(annotations.VariantParts7)
	var anns []map[string]any
	for i, category := range table.Categories {
		anns = append(anns, map[string]any{
			"id": i + 1, "image_id": 1, "category_id": category.ID,
			"bbox": []float64{0, 0, 1, 1}, "area": 1, "iscrowd": 0,
		})
	}
	testsupport.WriteJSON(t, path, map[string]any{
		"categories":  table.Categories,
		"images":      []map[string]any{{"id": 1, "file_name": "a.jpg", "width": 10, "height": 10}},
		"annotations": anns,
	})
}

func TestFuseCOCORemapsAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "annotations", "instances_train.json")
	writeExpanded(t, target)
	original, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	summary, err := FuseCOCO(context.Background(), dir, FuseOptions{})
	if err != nil {
		t.Fatalf("FuseCOCO failed: %v", err)
	}
	if summary.Files != 1 || summary.Records != 7 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	backup, err := os.ReadFile(filepath.Join(dir, "annotations", "instances_train_backup.json"))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != string(original) {
		t.Fatal("backup differs from the original file")
	}

	dataset, err := annotations.LoadDataset(target)
	if err != nil {
		t.Fatalf("load fused: %v", err)
	}
	want := []int{1, 2, 3, 4, 4, 5, 5}
	for i, ann := range dataset.Annotations {
		if ann.CategoryID != want[i] {
			t.Fatalf("annotation %d: expected category %d, got %d", i, want[i], ann.CategoryID)
		}
	}
	if len(dataset.Categories) != 5 {
		t.Fatalf("expected fused category table, got %+v", dataset.Categories)
	}

	again, err := FuseCOCO(context.Background(), dir, FuseOptions{})
	if err != nil {
		t.Fatalf("second FuseCOCO failed: %v", err)
	}
	if again.Files != 0 || again.Skipped != 1 {
		t.Fatalf("expected already fused file to be skipped and backup ignored, got %+v", again)
	}
}

func TestFuseCOCOWithoutFiles(t *testing.T) {
	_, err := FuseCOCO(context.Background(), t.TempDir(), FuseOptions{})
	if !errors.Is(err, services.ErrPathNotFound) {
		t.Fatalf("expected path not found, got %v", err)
	}
}

func TestFuseYOLORemapsLabels(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "data.yaml"), []byte("path: /data\nnames:\n  0: person\n  1: head\n  2: face\n  3: lefthand\n  4: righthand\n  5: leftfoot\n  6: rightfoot\n"))
	labels := "0 0.5 0.5 0.1 0.1\n3 0.1 0.1 0.1 0.1\n4 0.2 0.2 0.1 0.1\nnot a label\n5 0.3 0.3 0.1 0.1\n6 0.4 0.4 0.1 0.1\n"
	testsupport.WriteFile(t, filepath.Join(dir, "labels", "train", "a.txt"), []byte(labels))
	testsupport.WriteFile(t, filepath.Join(dir, "labels", "val", "b.txt"), []byte("1 0.5 0.5 0.2 0.2\n"))
	testsupport.WriteFile(t, filepath.Join(dir, "labels", "train_backup", "stale.txt"), []byte("stale"))

	summary, err := FuseYOLO(context.Background(), dir, FuseOptions{})
	if err != nil {
		t.Fatalf("FuseYOLO failed: %v", err)
	}
	if summary.Files != 2 || summary.DroppedLines != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	got, err := os.ReadFile(filepath.Join(dir, "labels", "train", "a.txt"))
	if err != nil {
		t.Fatalf("read fused labels: %v", err)
	}
	want := "0 0.5 0.5 0.1 0.1\n3 0.1 0.1 0.1 0.1\n3 0.2 0.2 0.1 0.1\n4 0.3 0.3 0.1 0.1\n4 0.4 0.4 0.1 0.1\n"
	if string(got) != want {
		t.Fatalf("unexpected fused labels:\n%s\nwant:\n%s", got, want)
	}

	backup, err := os.ReadFile(filepath.Join(dir, "labels", "train_backup", "a.txt"))
	if err != nil || string(backup) != labels {
		t.Fatalf("expected original labels in backup, got %q (%v)", backup, err)
	}
	if testsupport.FileExists(filepath.Join(dir, "labels", "train_backup", "stale.txt")) {
		t.Fatal("expected older backup to be replaced")
	}
	if testsupport.FileExists(filepath.Join(dir, "labels", "train_backup_backup")) {
		t.Fatal("backup directories must not be fused")
	}
	if !testsupport.FileExists(filepath.Join(dir, "data_backup.yaml")) {
		t.Fatal("expected data.yaml backup")
	}

	data, err := yolo.LoadDataConfig(filepath.Join(dir, "data.yaml"))
	if err != nil {
		t.Fatalf("load data.yaml: %v", err)
	}
	names, err := data.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 5 || names[3] != "hand" || names[4] != "foot" {
		t.Fatalf("unexpected fused names %v", names)
	}
	if data["path"] != "/data" {
		t.Fatalf("expected path preserved, got %v", data["path"])
	}

	again, err := FuseYOLO(context.Background(), dir, FuseOptions{})
	if err != nil {
		t.Fatalf("second FuseYOLO failed: %v", err)
	}
	if again.Skipped != 1 || again.Files != 0 {
		t.Fatalf("expected already fused dataset to be skipped, got %+v", again)
	}
}

func TestFuseYOLOMissingDataConfig(t *testing.T) {
	_, err := FuseYOLO(context.Background(), t.TempDir(), FuseOptions{})
	if !errors.Is(err, services.ErrPathNotFound) {
		t.Fatalf("expected path not found, got %v", err)
	}
}
