package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// PartSlot identifies one of the six body-part slots of a hierarchy vector.
type PartSlot int

const (
	SlotHead PartSlot = iota
	SlotFace
	SlotLeftHand
	SlotRightHand
	SlotLeftFoot
	SlotRightFoot
)

// NumParts is the number of part slots encoded per person.
const NumParts = 6

// slotWidth is the count of numbers per slot: xmin, ymin, xmax, ymax, visibility.
const slotWidth = 5

// MinHierarchyLen is the shortest hierarchy vector that carries all six slots.
const MinHierarchyLen = NumParts * slotWidth

var slotNames = [NumParts]string{"head", "face", "lefthand", "righthand", "leftfoot", "rightfoot"}

func (s PartSlot) String() string {
	if s < 0 || int(s) >= NumParts {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// COCOCategory is the 7-class category id emitted for the slot.
func (s PartSlot) COCOCategory() int { return int(s) + 2 }

// YOLOClass is the 0-based class id emitted for the slot.
func (s PartSlot) YOLOClass() int { return int(s) + 1 }

// Box is a corner-form pixel box.
type Box struct {
	XMin, YMin, XMax, YMax float64
}

// XYWH converts the box to origin plus extent. Degenerate boxes yield
// zero or negative extents; they are not corrected.
func (b Box) XYWH() [4]float64 {
	return [4]float64{b.XMin, b.YMin, b.XMax - b.XMin, b.YMax - b.YMin}
}

// Area is |width| * |height| truncated toward zero.
func (b Box) Area() float64 {
	return math.Trunc(math.Abs(b.XMax-b.XMin) * math.Abs(b.YMax-b.YMin))
}

// BoxFromXYWH converts origin plus extent back into corner form.
func BoxFromXYWH(bbox [4]float64) Box {
	return Box{XMin: bbox[0], YMin: bbox[1], XMax: bbox[0] + bbox[2], YMax: bbox[1] + bbox[3]}
}

// Part is one decoded hierarchy slot.
type Part struct {
	Box     Box
	Visible bool
}

// PersonDetection is one person record of a source annotation file.
type PersonDetection struct {
	ID      int64
	ImageID int64
	BBox    [4]float64
	// Area is the source area, zero when the record carries none.
	Area    float64
	IsCrowd int
	Parts   [NumParts]Part
}

// VisibleParts returns the number of visible part slots.
func (d PersonDetection) VisibleParts() int {
	count := 0
	for _, part := range d.Parts {
		if part.Visible {
			count++
		}
	}
	return count
}

type rawDetection struct {
	ID        *int64     `json:"id"`
	ImageID   *int64     `json:"image_id"`
	BBox      []float64  `json:"bbox"`
	Area      *float64   `json:"area"`
	IsCrowd   *int       `json:"iscrowd"`
	Hier      *[]float64 `json:"hier"`
	Hierarchy *[]float64 `json:"hierarchy"`
}

// UnmarshalJSON decodes a source record, accepting the hierarchy vector under
// either "hier" or "hierarchy".
func (d *PersonDetection) UnmarshalJSON(data []byte) error {
	var raw rawDetection
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ID == nil {
		return errors.New("missing id")
	}
	if raw.ImageID == nil {
		return fmt.Errorf("annotation %d: missing image_id", *raw.ID)
	}
	if len(raw.BBox) != 4 {
		return fmt.Errorf("annotation %d: bbox must have 4 values, got %d", *raw.ID, len(raw.BBox))
	}
	hier := raw.Hier
	if hier == nil {
		hier = raw.Hierarchy
	}
	if hier == nil {
		return fmt.Errorf("annotation %d: missing hier", *raw.ID)
	}
	parts, err := DecodeHierarchy(*hier)
	if err != nil {
		return fmt.Errorf("annotation %d: %w", *raw.ID, err)
	}

	out := PersonDetection{ID: *raw.ID, ImageID: *raw.ImageID, Parts: parts}
	copy(out.BBox[:], raw.BBox)
	if raw.Area != nil {
		out.Area = *raw.Area
	}
	if raw.IsCrowd != nil {
		out.IsCrowd = *raw.IsCrowd
	}
	*d = out
	return nil
}

// MarshalJSON re-encodes the record with a 30-number "hier" vector.
func (d PersonDetection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID      int64      `json:"id"`
		ImageID int64      `json:"image_id"`
		BBox    [4]float64 `json:"bbox"`
		Area    float64    `json:"area"`
		IsCrowd int        `json:"iscrowd"`
		Hier    []float64  `json:"hier"`
	}{d.ID, d.ImageID, d.BBox, d.Area, d.IsCrowd, EncodeHierarchy(d.Parts)})
}

// DecodeHierarchy splits a flat hierarchy vector into six part slots. Numbers
// past the sixth slot are ignored.
func DecodeHierarchy(values []float64) ([NumParts]Part, error) {
	var parts [NumParts]Part
	if len(values) < MinHierarchyLen {
		return parts, fmt.Errorf("hier must have at least %d values, got %d", MinHierarchyLen, len(values))
	}
	for slot := range parts {
		chunk := values[slot*slotWidth : (slot+1)*slotWidth]
		parts[slot] = Part{
			Box:     Box{XMin: chunk[0], YMin: chunk[1], XMax: chunk[2], YMax: chunk[3]},
			Visible: chunk[4] != 0,
		}
	}
	return parts, nil
}

// EncodeHierarchy flattens part slots back into a 30-number vector.
func EncodeHierarchy(parts [NumParts]Part) []float64 {
	values := make([]float64, 0, MinHierarchyLen)
	for _, part := range parts {
		visible := 0.0
		if part.Visible {
			visible = 1
		}
		values = append(values, part.Box.XMin, part.Box.YMin, part.Box.XMax, part.Box.YMax, visible)
	}
	return values
}

// ImageRecord describes one image. Fields other than the four modelled ones
// are preserved when the record is re-encoded.
type ImageRecord struct {
	ID       int64
	FileName string
	Width    int
	Height   int

	raw json.RawMessage
}

type imageFields struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       *int64  `json:"id"`
		FileName *string `json:"file_name"`
		Width    *int    `json:"width"`
		Height   *int    `json:"height"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.ID == nil:
		return errors.New("image: missing id")
	case raw.FileName == nil:
		return fmt.Errorf("image %d: missing file_name", *raw.ID)
	case raw.Width == nil || raw.Height == nil:
		return fmt.Errorf("image %d: missing width or height", *raw.ID)
	}
	*r = ImageRecord{
		ID:       *raw.ID,
		FileName: *raw.FileName,
		Width:    *raw.Width,
		Height:   *raw.Height,
		raw:      append(json.RawMessage(nil), data...),
	}
	return nil
}

func (r ImageRecord) MarshalJSON() ([]byte, error) {
	return mergeRaw(r.raw, imageFields{ID: r.ID, FileName: r.FileName, Width: r.Width, Height: r.Height})
}

// Annotation is one expanded detection record: a person or a single part.
// Fields other than the modelled ones are preserved when re-encoded.
type Annotation struct {
	ID         int64
	ImageID    int64
	CategoryID int
	BBox       [4]float64
	Area       float64
	IsCrowd    int

	raw json.RawMessage
}

type annotationFields struct {
	ID         int64      `json:"id"`
	ImageID    int64      `json:"image_id"`
	CategoryID int        `json:"category_id"`
	BBox       [4]float64 `json:"bbox"`
	Area       float64    `json:"area"`
	IsCrowd    int        `json:"iscrowd"`
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         *int64    `json:"id"`
		ImageID    *int64    `json:"image_id"`
		CategoryID *int      `json:"category_id"`
		BBox       []float64 `json:"bbox"`
		Area       float64   `json:"area"`
		IsCrowd    int       `json:"iscrowd"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.ID == nil:
		return errors.New("annotation: missing id")
	case raw.ImageID == nil:
		return fmt.Errorf("annotation %d: missing image_id", *raw.ID)
	case raw.CategoryID == nil:
		return fmt.Errorf("annotation %d: missing category_id", *raw.ID)
	case len(raw.BBox) != 4:
		return fmt.Errorf("annotation %d: bbox must have 4 values, got %d", *raw.ID, len(raw.BBox))
	}
	out := Annotation{
		ID:         *raw.ID,
		ImageID:    *raw.ImageID,
		CategoryID: *raw.CategoryID,
		Area:       raw.Area,
		IsCrowd:    raw.IsCrowd,
		raw:        append(json.RawMessage(nil), data...),
	}
	copy(out.BBox[:], raw.BBox)
	*a = out
	return nil
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	return mergeRaw(a.raw, annotationFields{
		ID:         a.ID,
		ImageID:    a.ImageID,
		CategoryID: a.CategoryID,
		BBox:       a.BBox,
		Area:       a.Area,
		IsCrowd:    a.IsCrowd,
	})
}

// mergeRaw encodes known over the object in raw so unmodelled keys survive.
func mergeRaw(raw json.RawMessage, known any) ([]byte, error) {
	encoded, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return encoded, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	for key, value := range fields {
		merged[key] = value
	}
	return json.Marshal(merged)
}
