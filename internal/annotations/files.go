package annotations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"humanparts/internal/services"
)

// Source is a parsed COCO Human Parts source file.
type Source struct {
	Images     []ImageRecord     `json:"images"`
	Detections []PersonDetection `json:"annotations"`
}

// Dataset is a COCO-style detection file.
type Dataset struct {
	Info        json.RawMessage `json:"info,omitempty"`
	Categories  []Category      `json:"categories"`
	Images      []ImageRecord   `json:"images"`
	Annotations []Annotation    `json:"annotations"`
}

// LoadSource reads a source annotation file. Any malformed record rejects the
// whole file.
func LoadSource(path string) (*Source, error) {
	var raw struct {
		Images      *[]ImageRecord     `json:"images"`
		Annotations *[]PersonDetection `json:"annotations"`
	}
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	if raw.Images == nil || raw.Annotations == nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "load", path, "file must contain images and annotations", nil)
	}
	return &Source{Images: *raw.Images, Detections: *raw.Annotations}, nil
}

// LoadDataset reads an expanded COCO-style annotation file.
func LoadDataset(path string) (*Dataset, error) {
	var dataset Dataset
	if err := readJSON(path, &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrPathNotFound, "load", path, "", err)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return services.Wrap(services.ErrSchemaMismatch, "load", path, "", err)
	}
	return nil
}

// Save writes the dataset to path through a temporary file so a failed write
// never leaves a truncated file behind. indent selects the human-readable form.
func (d *Dataset) Save(path string, indent string) error {
	var (
		data []byte
		err  error
	)
	if indent == "" {
		data, err = json.Marshal(d)
	} else {
		data, err = json.MarshalIndent(d, "", indent)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ImageIndex maps image ids to records.
func ImageIndex(images []ImageRecord) map[int64]ImageRecord {
	index := make(map[int64]ImageRecord, len(images))
	for _, image := range images {
		index[image.ID] = image
	}
	return index
}
