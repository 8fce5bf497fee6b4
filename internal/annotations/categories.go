package annotations

import (
	"fmt"
	"sort"
	"strings"
)

// Category is one entry of a COCO category table.
type Category struct {
	ID            int    `json:"id"`
	Supercategory string `json:"supercategory"`
	Name          string `json:"name"`
}

// CategoryTable is a versioned, ordered category list.
type CategoryTable struct {
	Version    string
	Categories []Category
}

const (
	// VariantParts7 keeps left and right hands and feet apart.
	VariantParts7 = "parts7"
	// VariantFused5 merges the left/right pairs into hand and foot.
	VariantFused5 = "fused5"
)

// PersonCategory is the category id of the person record in both variants.
const PersonCategory = 1

var catalog = map[string][]Category{
	VariantParts7: {
		{ID: 1, Supercategory: "person", Name: "person"},
		{ID: 2, Supercategory: "head", Name: "head"},
		{ID: 3, Supercategory: "face", Name: "face"},
		{ID: 4, Supercategory: "lefthand", Name: "lefthand"},
		{ID: 5, Supercategory: "righthand", Name: "righthand"},
		{ID: 6, Supercategory: "leftfoot", Name: "leftfoot"},
		{ID: 7, Supercategory: "rightfoot", Name: "rightfoot"},
	},
	VariantFused5: {
		{ID: 1, Supercategory: "person", Name: "person"},
		{ID: 2, Supercategory: "head", Name: "head"},
		{ID: 3, Supercategory: "face", Name: "face"},
		{ID: 4, Supercategory: "hand", Name: "hand"},
		{ID: 5, Supercategory: "foot", Name: "foot"},
	},
}

// Table returns a copy of the category table for the variant.
func Table(variant string) (CategoryTable, error) {
	key := strings.ToLower(strings.TrimSpace(variant))
	categories, ok := catalog[key]
	if !ok {
		return CategoryTable{}, fmt.Errorf("unknown category variant %q (want one of %s)", variant, strings.Join(Variants(), ", "))
	}
	return CategoryTable{Version: key, Categories: append([]Category(nil), categories...)}, nil
}

// MustTable is Table for the built-in variant names.
func MustTable(variant string) CategoryTable {
	table, err := Table(variant)
	if err != nil {
		panic(err)
	}
	return table
}

// Variants lists the known variant names in sorted order.
func Variants() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains reports whether id is a category of the table.
func (t CategoryTable) Contains(id int) bool {
	for _, category := range t.Categories {
		if category.ID == id {
			return true
		}
	}
	return false
}

// YOLONames maps 0-based class ids to names, the form data.yaml stores.
func (t CategoryTable) YOLONames() map[int]string {
	names := make(map[int]string, len(t.Categories))
	for _, category := range t.Categories {
		names[category.ID-1] = category.Name
	}
	return names
}
