package datasets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"humanparts/internal/config"
	"humanparts/internal/fetch"
	"humanparts/internal/fileutil"
	"humanparts/internal/logging"
	"humanparts/internal/services"
	"humanparts/internal/yolo"
)

const (
	recipeConcurrency = 2
	mscocoConcurrency = 4

	trainAnnotationsName = "person_humanparts_train2017_coco_format.json"
	valAnnotationsName   = "person_humanparts_val2017_coco_format.json"
)

// Fetcher retrieves URLs into a directory.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string, destDir string, opts fetch.Options) error
}

// Preparer downloads dataset distributions into local directories.
type Preparer struct {
	fetcher       Fetcher
	baseURL       string
	mscocoURLs    []string
	unzip         bool
	deleteArchive bool
	logger        *slog.Logger
}

// NewPreparer builds a Preparer from configuration.
func NewPreparer(cfg *config.Config, fetcher Fetcher, logger *slog.Logger) *Preparer {
	return &Preparer{
		fetcher:       fetcher,
		baseURL:       strings.TrimRight(cfg.Remote.BaseURL, "/"),
		mscocoURLs:    append([]string(nil), cfg.Remote.MSCOCOURLs...),
		unzip:         cfg.Fetch.Unzip,
		deleteArchive: cfg.Fetch.DeleteArchive,
		logger:        logging.NewComponentLogger(logger, "prepare"),
	}
}

func (p *Preparer) remote(parts ...string) string {
	return p.baseURL + "/" + strings.Join(parts, "/")
}

func (p *Preparer) archives(concurrency int) fetch.Options {
	return fetch.Options{Unzip: p.unzip, DeleteArchive: p.deleteArchive, Concurrency: concurrency}
}

// PrepareCOCO lays out the COCO-format distribution:
//
//	<dir>/images/{train,val}/...
//	<dir>/annotations/instances_{train,val,test}.json
//
// The test annotations are a copy of the validation annotations.
func (p *Preparer) PrepareCOCO(ctx context.Context, dir string) error {
	ctx = services.WithStage(ctx, "prepare_coco")
	logger := logging.WithContext(ctx, p.logger)

	imagesDir := filepath.Join(dir, "images")
	annotationsDir := filepath.Join(dir, "annotations")
	for _, d := range []string{imagesDir, annotationsDir} {
		if err := fileutil.CheckWritableDir(d); err != nil {
			return err
		}
	}

	logger.Info("fetching images", logging.String("dir", imagesDir))
	if err := p.fetcher.Fetch(ctx, []string{p.remote("images", "train.zip"), p.remote("images", "val.zip")}, imagesDir, p.archives(recipeConcurrency)); err != nil {
		return err
	}

	logger.Info("fetching annotations", logging.String("dir", annotationsDir))
	urls := []string{p.remote("annotations", trainAnnotationsName), p.remote("annotations", valAnnotationsName)}
	if err := p.fetcher.Fetch(ctx, urls, annotationsDir, fetch.Options{Concurrency: recipeConcurrency}); err != nil {
		return err
	}

	renames := []struct{ from, to string }{
		{trainAnnotationsName, "instances_train.json"},
		{valAnnotationsName, "instances_val.json"},
	}
	for _, r := range renames {
		from := filepath.Join(annotationsDir, r.from)
		to := filepath.Join(annotationsDir, r.to)
		if err := os.Rename(from, to); err != nil {
			if os.IsNotExist(err) {
				return services.Wrap(services.ErrPathNotFound, "prepare_coco", from, "", err)
			}
			return fmt.Errorf("rename %s: %w", from, err)
		}
	}
	val := filepath.Join(annotationsDir, "instances_val.json")
	if err := fileutil.CopyFile(val, filepath.Join(annotationsDir, "instances_test.json")); err != nil {
		return fmt.Errorf("copy validation annotations: %w", err)
	}

	logger.Info("coco dataset ready", logging.String("dir", dir))
	return nil
}

// PrepareYOLO lays out the YOLO-format distribution with data.yaml pointing
// at the absolute dataset directory.
func (p *Preparer) PrepareYOLO(ctx context.Context, dir string) error {
	ctx = services.WithStage(ctx, "prepare_yolo")
	logger := logging.WithContext(ctx, p.logger)

	if err := fileutil.CheckWritableDir(dir); err != nil {
		return err
	}
	if err := p.fetcher.Fetch(ctx, []string{p.remote(dataConfigName)}, dir, fetch.Options{}); err != nil {
		return err
	}
	dataPath := filepath.Join(dir, dataConfigName)
	data, err := yolo.LoadDataConfig(dataPath)
	if err != nil {
		return services.Wrap(services.ErrSchemaMismatch, "prepare_yolo", dataPath, "", err)
	}
	if err := data.SetPath(dir); err != nil {
		return err
	}
	if err := data.Save(dataPath); err != nil {
		return err
	}
	logger.Info("updated data.yaml", logging.String("path", dataPath), logging.Any("root", data["path"]))

	for _, kind := range []string{"labels", "images"} {
		target := filepath.Join(dir, kind)
		logger.Info("fetching "+kind, logging.String("dir", target))
		urls := []string{p.remote(kind, "train.zip"), p.remote(kind, "val.zip")}
		if err := p.fetcher.Fetch(ctx, urls, target, p.archives(recipeConcurrency)); err != nil {
			return err
		}
	}

	logger.Info("yolo dataset ready", logging.String("dir", dir))
	return nil
}

// PrepareMSCOCO fetches the configured MS-COCO 2017 archives into dir.
func (p *Preparer) PrepareMSCOCO(ctx context.Context, dir string) error {
	ctx = services.WithStage(ctx, "prepare_mscoco")
	logger := logging.WithContext(ctx, p.logger)

	if len(p.mscocoURLs) == 0 {
		return services.Wrap(services.ErrConfiguration, "prepare_mscoco", "remote.mscoco_urls", "no archives configured", nil)
	}
	if err := fileutil.CheckWritableDir(dir); err != nil {
		return err
	}
	if err := p.fetcher.Fetch(ctx, p.mscocoURLs, dir, p.archives(mscocoConcurrency)); err != nil {
		return err
	}
	logger.Info("ms-coco archives ready", logging.String("dir", dir), logging.Int("archives", len(p.mscocoURLs)))
	return nil
}
