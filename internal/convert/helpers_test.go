package convert

import (
	"bytes"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"humanparts/internal/annotations"
	"humanparts/internal/testsupport"
)

func hierarchy(slots map[annotations.PartSlot][4]float64) []float64 {
	values := make([]float64, annotations.MinHierarchyLen)
	for slot, box := range slots {
		base := int(slot) * 5
		copy(values[base:], box[:])
		values[base+4] = 1
	}
	return values
}

func detection(id, imageID int64, bbox [4]float64, slots map[annotations.PartSlot][4]float64) annotations.PersonDetection {
	parts, err := annotations.DecodeHierarchy(hierarchy(slots))
	if err != nil {
		panic(err)
	}
	return annotations.PersonDetection{ID: id, ImageID: imageID, BBox: bbox, Parts: parts}
}

func writeSource(t *testing.T, dir string, images []map[string]any, anns []map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, "source.json")
	testsupport.WriteJSON(t, path, map[string]any{"images": images, "annotations": anns})
	return path
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
