package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"humanparts/internal/fileutil"
)

func TestCopyDir(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "train")
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, contents := range map[string]string{"a.txt": "0 0.5 0.5 0.1 0.1\n", "nested/b.txt": "1 0.2 0.2 0.1 0.1\n"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(contents), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	dst := filepath.Join(base, "train_backup")
	if err := fileutil.CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "nested", "b.txt"))
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(got) != "1 0.2 0.2 0.1 0.1\n" {
		t.Fatalf("unexpected copy contents %q", got)
	}

	if err := fileutil.CopyDir(src, dst); err == nil {
		t.Fatal("expected error when destination exists")
	}
}

func TestBackupPath(t *testing.T) {
	cases := map[string]string{
		"a/instances_train.json": "a/instances_train_backup.json",
		"data.yaml":              "data_backup.yaml",
		"noext":                  "noext_backup",
	}
	for in, want := range cases {
		if got := fileutil.BackupPath(in, "_backup"); got != want {
			t.Fatalf("BackupPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "labels", "train")
	if err := fileutil.CheckWritableDir(dir); err != nil {
		t.Fatalf("CheckWritableDir: %v", err)
	}
	file := filepath.Join(dir, "x.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fileutil.CheckWritableDir(file); err == nil {
		t.Fatal("expected error for file path")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	if err := os.WriteFile(src, []byte("jpeg"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	dst := filepath.Join(dir, "dst.jpg")
	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "jpeg" {
		t.Fatalf("unexpected contents %q", got)
	}
}
