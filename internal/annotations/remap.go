package annotations

// Mapping rewrites category ids. Ids without an entry pass through unchanged.
type Mapping map[int]int

// Apply returns the mapped id for id.
func (m Mapping) Apply(id int) int {
	if to, ok := m[id]; ok {
		return to
	}
	return id
}

// FuseCOCOMapping merges the left/right pairs of 1-based COCO category ids.
func FuseCOCOMapping() Mapping {
	return Mapping{5: 4, 6: 5, 7: 5}
}

// FuseYOLOMapping merges the left/right pairs of 0-based YOLO class ids.
func FuseYOLOMapping() Mapping {
	return Mapping{4: 3, 5: 4, 6: 4}
}

// Remap returns copies of anns with category ids rewritten through m. The
// input slice is not modified. Applying a fusing mapping twice is not
// detected; callers must track whether data was already fused.
func Remap(anns []Annotation, m Mapping) []Annotation {
	out := make([]Annotation, len(anns))
	for i, ann := range anns {
		ann.CategoryID = m.Apply(ann.CategoryID)
		out[i] = ann
	}
	return out
}
