package annotations_test

import (
	"testing"

	"humanparts/internal/annotations"
)

func sampleAnnotations() []annotations.Annotation {
	anns := make([]annotations.Annotation, 0, 7)
	for id := 1; id <= 7; id++ {
		anns = append(anns, annotations.Annotation{ID: int64(id), ImageID: 1, CategoryID: id})
	}
	return anns
}

func categoryIDs(anns []annotations.Annotation) []int {
	ids := make([]int, len(anns))
	for i, ann := range anns {
		ids[i] = ann.CategoryID
	}
	return ids
}

func TestRemapIdentityLeavesAnnotationsUnchanged(t *testing.T) {
	in := sampleAnnotations()
	out := annotations.Remap(in, annotations.Mapping{})
	for i := range in {
		if out[i].CategoryID != in[i].CategoryID || out[i].ID != in[i].ID {
			t.Fatalf("identity changed annotation %d: %+v", i, out[i])
		}
	}
}

func TestRemapFuseCOCO(t *testing.T) {
	in := sampleAnnotations()
	out := annotations.Remap(in, annotations.FuseCOCOMapping())
	want := []int{1, 2, 3, 4, 4, 5, 5}
	got := categoryIDs(out)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fused ids = %v, want %v", got, want)
		}
	}
	if in[4].CategoryID != 5 {
		t.Fatal("expected input slice to be left untouched")
	}
}

func TestRemapFuseTwiceIsNotIdempotent(t *testing.T) {
	once := annotations.Remap(sampleAnnotations(), annotations.FuseCOCOMapping())
	twice := annotations.Remap(once, annotations.FuseCOCOMapping())
	if categoryIDs(twice)[5] != 4 {
		t.Fatalf("expected double fusion to collapse foot into hand, got %v", categoryIDs(twice))
	}
}

func TestMappingApplyPassesThroughUnmapped(t *testing.T) {
	m := annotations.FuseYOLOMapping()
	for _, tc := range []struct{ in, want int }{{0, 0}, {3, 3}, {4, 3}, {5, 4}, {6, 4}, {9, 9}} {
		if got := m.Apply(tc.in); got != tc.want {
			t.Fatalf("Apply(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
