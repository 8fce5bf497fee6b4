package yolo

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DataConfig is the generic content of a data.yaml file. Keys other than
// path and names are preserved untouched.
type DataConfig map[string]any

// LoadDataConfig parses a data.yaml file.
func LoadDataConfig(path string) (DataConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DataConfig{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c DataConfig) Save(path string) error {
	data, err := yaml.Marshal(map[string]any(c))
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SetPath records the absolute dataset root.
func (c DataConfig) SetPath(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve dataset root %q: %w", root, err)
	}
	c["path"] = abs
	return nil
}

// SetNames records the class-id-to-name table.
func (c DataConfig) SetNames(names map[int]string) {
	c["names"] = names
}

// Names returns the class-id-to-name table. Both the mapping form and the
// list form of "names" are accepted.
func (c DataConfig) Names() (map[int]string, error) {
	raw, ok := c["names"]
	if !ok {
		return nil, fmt.Errorf("data.yaml: missing names")
	}
	names := map[int]string{}
	switch value := raw.(type) {
	case map[int]string:
		return value, nil
	case map[string]any:
		for key, name := range value {
			var id int
			if _, err := fmt.Sscanf(key, "%d", &id); err != nil {
				return nil, fmt.Errorf("data.yaml: names key %q is not an integer", key)
			}
			names[id] = fmt.Sprint(name)
		}
	case map[any]any:
		for key, name := range value {
			id, ok := key.(int)
			if !ok {
				return nil, fmt.Errorf("data.yaml: names key %v is not an integer", key)
			}
			names[id] = fmt.Sprint(name)
		}
	case map[int]any:
		for id, name := range value {
			names[id] = fmt.Sprint(name)
		}
	case []any:
		for id, name := range value {
			names[id] = fmt.Sprint(name)
		}
	default:
		return nil, fmt.Errorf("data.yaml: unsupported names type %T", raw)
	}
	return names, nil
}

// SetSplit records the image directory of a split, relative to the root.
func (c DataConfig) SetSplit(split, imagesDir string) {
	c[split] = filepath.ToSlash(imagesDir)
}
