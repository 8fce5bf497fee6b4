package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"humanparts/internal/logging"
	"humanparts/internal/progress"
	"humanparts/internal/services"
)

const (
	lockFileName   = ".humanparts.lock"
	partialSuffix  = ".part"
	archiveExt     = ".zip"
	defaultTimeout = time.Hour
)

// Options controls a fetch batch.
type Options struct {
	Unzip         bool
	DeleteArchive bool
	Concurrency   int
}

// Fetcher downloads URLs into directories.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
	progress  io.Writer
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the per-request timeout on a copy of the current client.
// Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		client := *f.client
		client.Timeout = timeout
		f.client = &client
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(agent string) Option {
	return func(f *Fetcher) {
		f.userAgent = strings.TrimSpace(agent)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithProgress draws a byte progress bar per sequential download on w.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// New constructs a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetch")
	return f
}

// Fetch retrieves every URL into destDir. The first failure aborts the batch.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, destDir string, opts Options) error {
	if len(urls) == 0 {
		return nil
	}
	jobs, err := planJobs(urls)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination %q: %w", destDir, err)
	}

	lock := flock.New(filepath.Join(destDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", destDir, err)
	}
	if !locked {
		return fmt.Errorf("another humanparts process is writing into %s", destDir)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if opts.Concurrency > 1 && len(jobs) > 1 {
		return f.fetchParallel(ctx, jobs, destDir, opts)
	}
	for _, j := range jobs {
		if err := f.fetchOne(ctx, j, destDir, opts, f.progress); err != nil {
			return err
		}
	}
	return nil
}

type job struct {
	url  string
	name string
}

// planJobs resolves the destination name of every URL. Two URLs that land on
// the same file name would overwrite each other, so the batch is rejected.
func planJobs(urls []string) ([]job, error) {
	jobs := make([]job, 0, len(urls))
	seen := make(map[string]string, len(urls))
	for _, raw := range urls {
		name, err := FileName(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrRetrieval, "fetch", raw, "", err)
		}
		if prior, ok := seen[name]; ok {
			return nil, services.Wrap(services.ErrRetrieval, "fetch", raw,
				fmt.Sprintf("file name %q is also used by %s", name, prior), nil)
		}
		seen[name] = raw
		jobs = append(jobs, job{url: raw, name: name})
	}
	return jobs, nil
}

func (f *Fetcher) fetchParallel(ctx context.Context, jobs []job, destDir string, opts Options) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opts.Concurrency)
	for _, j := range jobs {
		j := j
		group.Go(func() error {
			err := f.fetchOne(groupCtx, j, destDir, opts, nil)
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.ErrorWithContext(f.logger, "download failed", services.Kind(err),
					logging.String("url", j.url),
					logging.String(logging.FieldErrorHint, services.Hint(err)),
					logging.Error(err),
				)
			}
			return err
		})
	}
	return group.Wait()
}

// FileName returns the destination file name for a URL: its last path segment.
// A URL whose path ends in "/" names a directory and has no file name.
func FileName(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if strings.HasSuffix(parsed.Path, "/") {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}
	return name, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, j job, destDir string, opts Options, bar io.Writer) error {
	rawURL, name := j.url, j.name
	target := filepath.Join(destDir, name)

	started := time.Now()
	f.logger.Info("downloading", logging.String("url", rawURL), logging.String("dest", target))
	written, err := f.download(ctx, rawURL, target, bar)
	if err != nil {
		return err
	}
	f.logger.Info("downloaded",
		logging.String("dest", target),
		logging.String("size", humanize.Bytes(uint64(written))),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)

	if !opts.Unzip || !strings.EqualFold(filepath.Ext(name), archiveExt) {
		return nil
	}
	f.logger.Info("extracting archive", logging.String("archive", target))
	count, err := Extract(target, destDir)
	if err != nil {
		return err
	}
	f.logger.Info("extracted archive", logging.String("archive", target), logging.Int("files", count))
	if opts.DeleteArchive {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("remove archive %s: %w", target, err)
		}
		f.logger.Debug("removed archive", logging.String("archive", target))
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, target string, bar io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrRetrieval, "fetch", rawURL, "build request", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrRetrieval, "fetch", rawURL, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, services.Wrap(services.ErrRetrieval, "fetch", rawURL, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	partial := target + partialSuffix
	file, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", partial, err)
	}

	var body io.Reader = resp.Body
	var meter *progress.Bar
	if bar != nil {
		meter = progress.NewBytes(bar, resp.ContentLength, filepath.Base(target))
		body = io.TeeReader(resp.Body, meter)
	}

	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	meter.Finish()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && resp.ContentLength >= 0 && written != resp.ContentLength {
		copyErr = fmt.Errorf("short body: got %d of %d bytes", written, resp.ContentLength)
	}
	if copyErr != nil {
		_ = os.Remove(partial)
		if errors.Is(copyErr, context.Canceled) {
			return 0, copyErr
		}
		return 0, services.Wrap(services.ErrRetrieval, "fetch", rawURL, "", copyErr)
	}

	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return 0, fmt.Errorf("replace %s: %w", target, err)
	}
	return written, nil
}
