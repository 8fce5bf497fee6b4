// Package progress draws terminal progress bars for downloads and conversion
// loops. A Bar built without a writer is inert, so library code can report
// progress unconditionally and let the CLI decide whether anything is drawn.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar is a nil-safe wrapper around a progress bar.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewCount builds a bar counting items. A nil writer yields an inert bar.
func NewCount(w io.Writer, total int, description string) *Bar {
	if w == nil {
		return &Bar{}
	}
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("it"),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100_000_000),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)}
}

// NewBytes builds a bar counting bytes. total may be -1 when the size is
// unknown. A nil writer yields an inert bar.
func NewBytes(w io.Writer, total int64, description string) *Bar {
	if w == nil {
		return &Bar{}
	}
	return &Bar{bar: progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100_000_000),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)}
}

// Add advances the bar by n items.
func (b *Bar) Add(n int) {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Add(n)
}

// Write advances a byte bar so the bar can sit behind an io.TeeReader.
func (b *Bar) Write(p []byte) (int, error) {
	if b == nil || b.bar == nil {
		return len(p), nil
	}
	return b.bar.Write(p)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Finish()
}
