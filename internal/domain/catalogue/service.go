// internal/domain/catalogue/service.go
package catalogue

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var builtin []byte

// Catalogue is the immutable, ordered list of items sold by the store
type Catalogue struct {
	items []Item
	index map[string]int
}

type document struct {
	Items []Item `yaml:"items"`
}

// Default returns the built-in catalogue
func Default() *Catalogue {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("built-in catalogue is invalid: %v", err))
	}
	return c
}

// Load reads a catalogue from a YAML file, or the built-in one when path is empty
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogue document
func Parse(data []byte) (*Catalogue, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue: %w", err)
	}
	return New(doc.Items)
}

// New builds a catalogue from items, copying them
func New(items []Item) (*Catalogue, error) {
	c := &Catalogue{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return nil, fmt.Errorf("catalogue item without id")
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("catalogue item %q has no name", item.ID)
		}
		if _, dup := c.index[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalogue item id %q", item.ID)
		}
		item.Colors = append([]string(nil), item.Colors...)
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

// Items returns the catalogue in display order
func (c *Catalogue) Items() []Item {
	out := make([]Item, len(c.items))
	for i, item := range c.items {
		item.Colors = append([]string(nil), item.Colors...)
		out[i] = item
	}
	return out
}

// Get looks an item up by id
func (c *Catalogue) Get(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	item := c.items[i]
	item.Colors = append([]string(nil), item.Colors...)
	return item, true
}

// DefaultColor returns the item's first color, or the fallback color for
// unknown ids
func (c *Catalogue) DefaultColor(id string) string {
	if i, ok := c.index[id]; ok {
		return c.items[i].DefaultColor()
	}
	return FallbackColor
}

// DefaultSelections maps every item id to its default color
func (c *Catalogue) DefaultSelections() map[string]string {
	out := make(map[string]string, len(c.items))
	for _, item := range c.items {
		out[item.ID] = item.DefaultColor()
	}
	return out
}
