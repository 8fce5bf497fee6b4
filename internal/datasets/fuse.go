package datasets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"humanparts/internal/annotations"
	"humanparts/internal/fileutil"
	"humanparts/internal/logging"
	"humanparts/internal/progress"
	"humanparts/internal/services"
	"humanparts/internal/yolo"
)

const (
	dataConfigName = "data.yaml"
	backupSuffix   = "_backup"
)

// FuseOptions configures the fuse workflows.
type FuseOptions struct {
	// Mapping overrides the default fuse table of the format.
	Mapping annotations.Mapping
	// Force fuses files whose categories already look fused.
	Force    bool
	Logger   *slog.Logger
	Progress io.Writer
}

// FuseSummary reports what a fuse run touched.
type FuseSummary struct {
	Files        int
	Records      int
	DroppedLines int
	Skipped      int
	Backups      []string
}

func isBackup(path string) bool {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.HasSuffix(name, backupSuffix)
}

// FuseCOCO remaps every <dir>/*/*.json annotation file to the fused 5-class
// table. Each file is first copied to <name>_backup.json. Existing backups are
// never treated as inputs.
func FuseCOCO(ctx context.Context, dir string, opts FuseOptions) (FuseSummary, error) {
	ctx = services.WithStage(ctx, "fuse_coco")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "fuse"))
	mapping := opts.Mapping
	if mapping == nil {
		mapping = annotations.FuseCOCOMapping()
	}
	fused := annotations.MustTable(annotations.VariantFused5)

	matches, err := filepath.Glob(filepath.Join(dir, "*", "*.json"))
	if err != nil {
		return FuseSummary{}, fmt.Errorf("glob %s: %w", dir, err)
	}
	var files []string
	for _, match := range matches {
		if !isBackup(match) {
			files = append(files, match)
		}
	}
	if len(files) == 0 {
		return FuseSummary{}, services.Wrap(services.ErrPathNotFound, "fuse_coco", dir, "no annotation files found", nil)
	}
	sort.Strings(files)

	var summary FuseSummary
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		dataset, err := annotations.LoadDataset(path)
		if err != nil {
			return summary, err
		}
		if !opts.Force && sameCategories(dataset.Categories, fused.Categories) {
			logging.WarnWithContext(logger, "annotation file already fused; skipping", "already_fused",
				logging.String("file", path),
				logging.String(logging.FieldErrorHint, "pass --force to fuse again"),
				logging.String(logging.FieldImpact, "file left unchanged"),
			)
			summary.Skipped++
			continue
		}

		backup := fileutil.BackupPath(path, backupSuffix)
		if err := fileutil.CopyFile(path, backup); err != nil {
			return summary, fmt.Errorf("backup %s: %w", path, err)
		}
		summary.Backups = append(summary.Backups, backup)
		logger.Info("backup created", logging.String("backup", backup))

		dataset.Annotations = annotations.Remap(dataset.Annotations, mapping)
		dataset.Categories = fused.Categories
		if err := dataset.Save(path, ""); err != nil {
			return summary, err
		}
		summary.Files++
		summary.Records += len(dataset.Annotations)
	}

	logger.Info("fused coco annotations",
		logging.String("dir", dir),
		logging.Int("files", summary.Files),
		logging.Int("annotations", summary.Records),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func sameCategories(a, b []annotations.Category) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// FuseYOLO rewrites data.yaml names to the fused table and remaps the class
// ids of every labels/<split>/*.txt file. data.yaml is backed up to
// data_backup.yaml and each split directory to <split>_backup, replacing an
// older backup. Malformed label lines are reported and dropped.
func FuseYOLO(ctx context.Context, dir string, opts FuseOptions) (FuseSummary, error) {
	ctx = services.WithStage(ctx, "fuse_yolo")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "fuse"))
	mapping := opts.Mapping
	if mapping == nil {
		mapping = annotations.FuseYOLOMapping()
	}
	fusedNames := annotations.MustTable(annotations.VariantFused5).YOLONames()

	dataPath := filepath.Join(dir, dataConfigName)
	data, err := yolo.LoadDataConfig(dataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FuseSummary{}, services.Wrap(services.ErrPathNotFound, "fuse_yolo", dataPath, "", err)
		}
		return FuseSummary{}, services.Wrap(services.ErrSchemaMismatch, "fuse_yolo", dataPath, "", err)
	}
	if names, err := data.Names(); err == nil && !opts.Force && sameNames(names, fusedNames) {
		logging.WarnWithContext(logger, "dataset already fused; skipping", "already_fused",
			logging.String("file", dataPath),
			logging.String(logging.FieldErrorHint, "pass --force to fuse again"),
			logging.String(logging.FieldImpact, "dataset left unchanged"),
		)
		return FuseSummary{Skipped: 1}, nil
	}

	var summary FuseSummary
	backup := fileutil.BackupPath(dataPath, backupSuffix)
	if err := fileutil.CopyFile(dataPath, backup); err != nil {
		return summary, fmt.Errorf("backup %s: %w", dataPath, err)
	}
	summary.Backups = append(summary.Backups, backup)
	data.SetNames(fusedNames)
	if err := data.Save(dataPath); err != nil {
		return summary, err
	}
	logger.Info("updated data.yaml names", logging.String("path", dataPath), logging.String("backup", backup))

	splits, err := labelSplits(filepath.Join(dir, "labels"))
	if err != nil {
		return summary, err
	}
	for _, splitDir := range splits {
		splitCtx := services.WithSplit(ctx, filepath.Base(splitDir))
		if err := fuseSplit(splitCtx, splitDir, mapping, opts, logging.WithContext(splitCtx, logger), &summary); err != nil {
			return summary, err
		}
	}

	logger.Info("fused yolo labels",
		logging.String("dir", dir),
		logging.Int("files", summary.Files),
		logging.Int("dropped_lines", summary.DroppedLines),
	)
	return summary, nil
}

func sameNames(a, b map[int]string) bool {
	if len(a) != len(b) {
		return false
	}
	for id, name := range a {
		if b[id] != name {
			return false
		}
	}
	return true
}

func labelSplits(labelsDir string) ([]string, error) {
	entries, err := os.ReadDir(labelsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrPathNotFound, "fuse_yolo", labelsDir, "", err)
		}
		return nil, fmt.Errorf("list %s: %w", labelsDir, err)
	}
	var splits []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}
		splits = append(splits, filepath.Join(labelsDir, entry.Name()))
	}
	return splits, nil
}

func fuseSplit(ctx context.Context, splitDir string, mapping annotations.Mapping, opts FuseOptions, logger *slog.Logger, summary *FuseSummary) error {
	backup := splitDir + backupSuffix
	if err := os.RemoveAll(backup); err != nil {
		return fmt.Errorf("remove old backup %s: %w", backup, err)
	}
	if err := fileutil.CopyDir(splitDir, backup); err != nil {
		return fmt.Errorf("backup %s: %w", splitDir, err)
	}
	summary.Backups = append(summary.Backups, backup)
	logger.Info("backup created", logging.String("backup", backup))

	files, err := filepath.Glob(filepath.Join(splitDir, "*.txt"))
	if err != nil {
		return fmt.Errorf("glob %s: %w", splitDir, err)
	}
	bar := progress.NewCount(opts.Progress, len(files), filepath.Base(splitDir))
	defer bar.Finish()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		bad, err := yolo.RemapFile(path, mapping)
		if err != nil {
			return fmt.Errorf("remap %s: %w", path, err)
		}
		for _, m := range bad {
			logging.WarnWithContext(logger, "malformed label line dropped", "malformed_label",
				logging.String("file", path),
				logging.Int("line", m.LineNumber),
				logging.String("text", m.Text),
				logging.String(logging.FieldImpact, "line removed from the label file"),
			)
		}
		summary.Files++
		summary.DroppedLines += len(bad)
		bar.Add(1)
	}
	return nil
}
