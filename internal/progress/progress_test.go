package progress_test

import (
	"bytes"
	"strings"
	"testing"

	"humanparts/internal/progress"
)

func TestInertBarAcceptsWrites(t *testing.T) {
	bar := progress.NewBytes(nil, 10, "download")
	n, err := bar.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	bar.Add(1)
	bar.Finish()

	var nilBar *progress.Bar
	nilBar.Add(1)
	nilBar.Finish()
}

func TestCountBarRendersDescription(t *testing.T) {
	var buf bytes.Buffer
	bar := progress.NewCount(&buf, 2, "images")
	bar.Add(1)
	bar.Add(1)
	bar.Finish()
	if !strings.Contains(buf.String(), "images") {
		t.Fatalf("expected description in output, got %q", buf.String())
	}
}
