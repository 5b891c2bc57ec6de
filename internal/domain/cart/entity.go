// internal/domain/cart/entity.go
package cart

import "context"

// Storage keys shared with the storefront front end
const (
	CartKey           = "uc-cart"
	SelectedColorsKey = "uc-selected-colors"
)

// Entry is one item's quantity and chosen color. Quantity is always > 0;
// removal is modelled by absence.
type Entry struct {
	Quantity int    `json:"quantity"`
	Color    string `json:"color"`
}

// State maps catalogue item ids to cart entries
type State map[string]Entry

// Clone returns an independent copy
func (s State) Clone() State {
	out := make(State, len(s))
	for id, entry := range s {
		out[id] = entry
	}
	return out
}

// Count is the total quantity across entries
func (s State) Count() int {
	total := 0
	for _, entry := range s {
		total += entry.Quantity
	}
	return total
}

// Storage is the key-value persistence port the store writes through
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Colors supplies catalogue color defaults
type Colors interface {
	DefaultColor(id string) string
	DefaultSelections() map[string]string
}
