package fetch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"humanparts/internal/services"
)

// Extract unpacks a zip archive into destDir and returns the number of files
// written. Entries that would escape destDir are rejected.
func Extract(archivePath, destDir string) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		if reader != nil {
			reader.Close()
		}
		return 0, services.Wrap(services.ErrExtraction, "extract", archivePath, "", err)
	}
	defer reader.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", destDir, err)
	}

	count := 0
	for _, entry := range reader.File {
		target := filepath.Join(root, filepath.FromSlash(entry.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return count, services.Wrap(services.ErrExtraction, "extract", archivePath, fmt.Sprintf("entry %q escapes destination", entry.Name), nil)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(entry, target); err != nil {
			return count, services.Wrap(services.ErrExtraction, "extract", archivePath, entry.Name, err)
		}
		count++
	}
	return count, nil
}

func extractFile(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
