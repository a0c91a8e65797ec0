// Package catalog holds the static item list: category, default unit and
// how each item's stock is tracked.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"gopkg.in/yaml.v3"
)

// Catalog is an in-memory item list keyed by normalized name.
type Catalog struct {
	items map[string]domain.CatalogItem
}

type file struct {
	Items []domain.CatalogItem `yaml:"items"`
}

// New builds a catalog. Later entries with the same name replace earlier ones.
func New(items []domain.CatalogItem) *Catalog {
	c := &Catalog{items: make(map[string]domain.CatalogItem, len(items))}
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			continue
		}
		item.Tracking = parseTracking(string(item.Tracking))
		c.items[key(item.Name)] = item
	}
	return c
}

// Load reads a YAML catalog file. An empty path yields an empty catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Items), nil
}

// Lookup returns the entry for item.
func (c *Catalog) Lookup(item string) (domain.CatalogItem, bool) {
	if c == nil {
		return domain.CatalogItem{}, false
	}
	entry, ok := c.items[key(item)]
	return entry, ok
}

// Items returns every entry sorted by name.
func (c *Catalog) Items() []domain.CatalogItem {
	if c == nil {
		return nil
	}
	out := make([]domain.CatalogItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Merge returns a catalog holding the entries of c overlaid with other.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := New(c.Items())
	if other != nil {
		for k, v := range other.items {
			merged.items[k] = v
		}
	}
	return merged
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func parseTracking(s string) domain.Tracking {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fraction", "fractional", "percent", "percentage", "%", "百分比":
		return domain.TrackingFractional
	case "countable", "count", "数量":
		return domain.TrackingCountable
	default:
		return ""
	}
}
