package yolo_test

import (
	"os"
	"path/filepath"
	"testing"

	"humanparts/internal/yolo"
)

func TestDataConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.yaml")
	contents := "path: /somewhere/else\ntrain: images/train\nval: images/val\nnames:\n  0: person\n  1: head\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := yolo.LoadDataConfig(path)
	if err != nil {
		t.Fatalf("LoadDataConfig: %v", err)
	}
	names, err := cfg.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if names[0] != "person" || names[1] != "head" {
		t.Fatalf("unexpected names %v", names)
	}

	if err := cfg.SetPath(dir); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	cfg.SetNames(map[int]string{0: "person", 1: "head", 2: "face", 3: "hand", 4: "foot"})
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := yolo.LoadDataConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded["path"] != dir {
		t.Fatalf("expected path %q, got %v", dir, reloaded["path"])
	}
	if reloaded["train"] != "images/train" {
		t.Fatalf("expected train key preserved, got %v", reloaded["train"])
	}
	names, err = reloaded.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 5 || names[4] != "foot" {
		t.Fatalf("unexpected names after save %v", names)
	}
}

func TestDataConfigNamesListForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(path, []byte("names: [person, head]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := yolo.LoadDataConfig(path)
	if err != nil {
		t.Fatalf("LoadDataConfig: %v", err)
	}
	names, err := cfg.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if names[1] != "head" {
		t.Fatalf("unexpected names %v", names)
	}

	delete(cfg, "names")
	if _, err := cfg.Names(); err == nil {
		t.Fatal("expected error for missing names")
	}
}
