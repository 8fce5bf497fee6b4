package annotations_test

import (
	"encoding/json"
	"strings"
	"testing"

	"humanparts/internal/annotations"
)

func hierWithHead(box [4]float64) []float64 {
	values := make([]float64, annotations.MinHierarchyLen)
	copy(values, box[:])
	values[4] = 1
	return values
}

func TestDecodeHierarchySlots(t *testing.T) {
	values := make([]float64, 36)
	for slot := 0; slot < annotations.NumParts; slot++ {
		base := slot * 5
		values[base] = float64(slot * 10)
		values[base+1] = float64(slot*10 + 1)
		values[base+2] = float64(slot*10 + 2)
		values[base+3] = float64(slot*10 + 3)
		if slot%2 == 0 {
			values[base+4] = 2
		}
	}
	values[35] = 99

	parts, err := annotations.DecodeHierarchy(values)
	if err != nil {
		t.Fatalf("DecodeHierarchy: %v", err)
	}
	for slot, part := range parts {
		want := annotations.Box{XMin: float64(slot * 10), YMin: float64(slot*10 + 1), XMax: float64(slot*10 + 2), YMax: float64(slot*10 + 3)}
		if part.Box != want {
			t.Fatalf("slot %d box = %+v, want %+v", slot, part.Box, want)
		}
		if part.Visible != (slot%2 == 0) {
			t.Fatalf("slot %d visible = %v", slot, part.Visible)
		}
	}

	round := annotations.EncodeHierarchy(parts)
	if len(round) != annotations.MinHierarchyLen {
		t.Fatalf("encoded length %d", len(round))
	}
	if round[0] != 0 || round[4] != 1 || round[9] != 0 {
		t.Fatalf("unexpected encoded vector %v", round)
	}
}

func TestDecodeHierarchyRejectsShortVector(t *testing.T) {
	if _, err := annotations.DecodeHierarchy(make([]float64, 29)); err == nil {
		t.Fatal("expected error for short hierarchy")
	}
}

func TestPersonDetectionUnmarshal(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{
		"id":        7,
		"image_id":  10,
		"bbox":      []float64{10, 10, 50, 80},
		"hierarchy": hierWithHead([4]float64{15, 15, 40, 45}),
	})
	var det annotations.PersonDetection
	if err := json.Unmarshal(payload, &det); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if det.ID != 7 || det.ImageID != 10 {
		t.Fatalf("unexpected ids %+v", det)
	}
	if det.BBox != [4]float64{10, 10, 50, 80} {
		t.Fatalf("unexpected bbox %v", det.BBox)
	}
	if det.VisibleParts() != 1 || !det.Parts[annotations.SlotHead].Visible {
		t.Fatalf("expected only head visible, got %+v", det.Parts)
	}
	if det.Area != 0 {
		t.Fatalf("expected zero area when absent, got %v", det.Area)
	}
}

func TestPersonDetectionUnmarshalErrors(t *testing.T) {
	cases := map[string]string{
		"missing hier":  `{"id":1,"image_id":2,"bbox":[0,0,1,1]}`,
		"short bbox":    `{"id":1,"image_id":2,"bbox":[0,0,1],"hier":[]}`,
		"missing image": `{"id":1,"bbox":[0,0,1,1],"hier":[]}`,
		"missing id":    `{"image_id":2,"bbox":[0,0,1,1],"hier":[]}`,
		"short hier":    `{"id":1,"image_id":2,"bbox":[0,0,1,1],"hier":[1,2,3]}`,
	}
	for name, payload := range cases {
		var det annotations.PersonDetection
		if err := json.Unmarshal([]byte(payload), &det); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBoxConversions(t *testing.T) {
	box := annotations.Box{XMin: 15, YMin: 15, XMax: 40, YMax: 45}
	if got := box.XYWH(); got != [4]float64{15, 15, 25, 30} {
		t.Fatalf("XYWH = %v", got)
	}
	if got := box.Area(); got != 750 {
		t.Fatalf("Area = %v", got)
	}
	if back := annotations.BoxFromXYWH(box.XYWH()); back != box {
		t.Fatalf("round trip = %+v", back)
	}

	// Degenerate boxes keep their negative extent; area uses magnitudes.
	inverted := annotations.Box{XMin: 40, YMin: 45, XMax: 15, YMax: 15}
	if got := inverted.XYWH(); got[2] != -25 || got[3] != -30 {
		t.Fatalf("expected negative extent, got %v", got)
	}
	if got := inverted.Area(); got != 750 {
		t.Fatalf("inverted Area = %v", got)
	}
}

func TestAnnotationPreservesUnknownFields(t *testing.T) {
	payload := `{"id":3,"image_id":4,"category_id":6,"bbox":[1,2,3,4],"area":12,"iscrowd":0,"segmentation":[[1,2,3]],"num_keypoints":5}`
	var ann annotations.Annotation
	if err := json.Unmarshal([]byte(payload), &ann); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ann.CategoryID = 5

	out, err := json.Marshal(ann)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["category_id"] != float64(5) {
		t.Fatalf("expected updated category, got %v", decoded["category_id"])
	}
	if decoded["num_keypoints"] != float64(5) {
		t.Fatalf("expected passthrough field, got %v", decoded)
	}
	if _, ok := decoded["segmentation"]; !ok {
		t.Fatalf("expected segmentation to survive, got %s", out)
	}
}

func TestImageRecordRequiresDimensions(t *testing.T) {
	var image annotations.ImageRecord
	err := json.Unmarshal([]byte(`{"id":1,"file_name":"a.jpg","width":10}`), &image)
	if err == nil || !strings.Contains(err.Error(), "width or height") {
		t.Fatalf("expected dimension error, got %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id":1,"file_name":"a.jpg","width":10,"height":20,"license":3}`), &image); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, _ := json.Marshal(image)
	if !strings.Contains(string(out), `"license":3`) {
		t.Fatalf("expected license passthrough, got %s", out)
	}
}

func TestPartSlotIDs(t *testing.T) {
	if annotations.SlotHead.COCOCategory() != 2 || annotations.SlotRightFoot.COCOCategory() != 7 {
		t.Fatal("unexpected COCO category ids")
	}
	if annotations.SlotHead.YOLOClass() != 1 || annotations.SlotRightFoot.YOLOClass() != 6 {
		t.Fatal("unexpected YOLO class ids")
	}
	if annotations.SlotLeftHand.String() != "lefthand" {
		t.Fatalf("unexpected slot name %q", annotations.SlotLeftHand)
	}
}
