// Package manifest reads the asset catalog that maps categories to the
// part options the thumbnail page can render.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// Part is one selectable option within a category. A nil Value is the
// "no part" placeholder.
type Part struct {
	Value *string `json:"value"`
}

// Category holds the ordered parts of one catalog entry.
type Category struct {
	Name  string
	Parts []Part
}

// Manifest keeps categories in file order.
type Manifest struct {
	Categories []Category
}

// WorkItem is one (category, part) pair to render.
type WorkItem struct {
	Category string
	Part     string
}

// Load reads a manifest from path.
func Load(path string) (Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Manifest{}, err
	}
	defer file.Close()

	m, err := Parse(file)
	if err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a JSON object of the form
// {"<category>": {"parts": [{"value": "..."}, ...]}, ...}
// keeping the category order of the document.
func Parse(r io.Reader) (Manifest, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return Manifest{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Manifest{}, errors.New("manifest must be a JSON object")
	}

	var (
		m    Manifest
		seen = make(map[string]bool)
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Manifest{}, err
		}
		name, _ := tok.(string)

		var entry struct {
			Parts []Part `json:"parts"`
		}
		if err := dec.Decode(&entry); err != nil {
			return Manifest{}, fmt.Errorf("category %q: %w", name, err)
		}
		if seen[name] {
			return Manifest{}, fmt.Errorf("category %q listed twice", name)
		}
		seen[name] = true
		m.Categories = append(m.Categories, Category{Name: name, Parts: entry.Parts})
	}
	if _, err := dec.Token(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Expand lists every renderable (category, part) pair in manifest order,
// skipping placeholder parts.
func (m Manifest) Expand() []WorkItem {
	var items []WorkItem
	for _, c := range m.Categories {
		for _, p := range c.Parts {
			if p.Value == nil {
				continue
			}
			items = append(items, WorkItem{Category: c.Name, Part: *p.Value})
		}
	}
	return items
}

// DuplicateParts returns part names used by more than one category, mapped
// to the categories that use them. Thumbnails are named by part alone, so
// such parts overwrite each other's output.
func (m Manifest) DuplicateParts() map[string][]string {
	owners := make(map[string][]string)
	for _, item := range m.Expand() {
		cats := owners[item.Part]
		if len(cats) > 0 && cats[len(cats)-1] == item.Category {
			continue
		}
		owners[item.Part] = append(cats, item.Category)
	}
	dups := make(map[string][]string)
	for part, cats := range owners {
		if len(cats) > 1 {
			sort.Strings(cats)
			dups[part] = cats
		}
	}
	return dups
}
