// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Store holds one browsing session's cart and color selections and writes
// them through to Storage after every mutation. A Store is not safe for
// concurrent use; the owning session serializes access.
type Store struct {
	colors  Colors
	storage Storage
	logger  logrus.FieldLogger

	cart     State
	selected map[string]string
	// selections made before rehydration; stored values must not override them
	explicit map[string]bool
	hydrated bool
}

// NewStore creates an empty, not yet rehydrated store. Mutations made
// before Rehydrate are kept in memory and merged when it runs.
func NewStore(colors Colors, storage Storage, logger logrus.FieldLogger) *Store {
	return &Store{
		colors:   colors,
		storage:  storage,
		logger:   logger,
		cart:     State{},
		selected: colors.DefaultSelections(),
		explicit: map[string]bool{},
	}
}

// Load reads both storage keys and rehydrates the store from them
func (s *Store) Load(ctx context.Context) error {
	rawCart, _, err := s.storage.Get(ctx, CartKey)
	if err != nil {
		return fmt.Errorf("failed to read stored cart: %w", err)
	}
	rawColors, _, err := s.storage.Get(ctx, SelectedColorsKey)
	if err != nil {
		return fmt.Errorf("failed to read stored colors: %w", err)
	}

	s.Rehydrate(ctx, rawCart, rawColors)
	return nil
}

// Rehydrate merges persisted payloads into the in-memory state. Stored
// cart entries only fill ids the session has not touched yet; stored color
// selections replace catalogue defaults; a cart entry's color always wins
// for its id. Malformed payloads count as empty.
func (s *Store) Rehydrate(ctx context.Context, rawCart, rawColors string) {
	for id, entry := range ParseStoredCart(rawCart, s.colors.DefaultColor) {
		if _, present := s.cart[id]; !present {
			s.cart[id] = entry
		}
	}

	for id, color := range ParseStoredColors(rawColors) {
		if !s.explicit[id] {
			s.selected[id] = color
		}
	}

	for id, entry := range s.cart {
		s.selected[id] = entry.Color
	}

	s.hydrated = true
	s.explicit = map[string]bool{}

	s.persistCart(ctx)
	s.persistColors(ctx)
}

// Increment adds one unit of itemID. A new entry takes the given color,
// else the currently selected color, else the catalogue default. An
// existing entry keeps its color unless one is given.
func (s *Store) Increment(ctx context.Context, itemID, color string) Entry {
	entry, present := s.cart[itemID]
	if !present {
		applied := color
		if applied == "" {
			applied = s.selected[itemID]
		}
		if applied == "" {
			applied = s.colors.DefaultColor(itemID)
		}
		entry = Entry{Quantity: 1, Color: applied}
	} else {
		entry.Quantity++
		if color != "" {
			entry.Color = color
		}
	}

	s.cart[itemID] = entry
	s.persistCart(ctx)
	return entry
}

// Decrement removes one unit of itemID, dropping the entry when it reaches
// zero. It reports whether anything changed.
func (s *Store) Decrement(ctx context.Context, itemID string) (Entry, bool) {
	entry, present := s.cart[itemID]
	if !present {
		return Entry{}, false
	}

	entry.Quantity--
	if entry.Quantity <= 0 {
		delete(s.cart, itemID)
		entry = Entry{}
	} else {
		s.cart[itemID] = entry
	}

	s.persistCart(ctx)
	return entry, true
}

// SelectColor records a color choice for itemID and recolors its cart entry
// when there is one. Re-selecting the current color writes nothing.
func (s *Store) SelectColor(ctx context.Context, itemID, color string) {
	if !s.hydrated {
		s.explicit[itemID] = true
	}

	if s.selected[itemID] != color {
		s.selected[itemID] = color
		s.persistColors(ctx)
	}

	if entry, present := s.cart[itemID]; present && entry.Color != color {
		entry.Color = color
		s.cart[itemID] = entry
		s.persistCart(ctx)
	}
}

// Clear empties the cart and removes its storage entry. Color selections
// are kept.
func (s *Store) Clear(ctx context.Context) {
	s.cart = State{}
	if err := s.storage.Delete(ctx, CartKey); err != nil {
		s.logger.WithFields(logrus.Fields{"key": CartKey, "error": err}).Warn("Failed to remove stored cart")
	}
}

// Snapshot returns a copy of the cart
func (s *Store) Snapshot() State {
	return s.cart.Clone()
}

// SelectedColors returns a copy of the color selections
func (s *Store) SelectedColors() map[string]string {
	out := make(map[string]string, len(s.selected))
	for id, color := range s.selected {
		out[id] = color
	}
	return out
}

// Count is the number of units in the cart
func (s *Store) Count() int {
	return s.cart.Count()
}

// Hydrated reports whether Rehydrate has run
func (s *Store) Hydrated() bool {
	return s.hydrated
}

func (s *Store) persistCart(ctx context.Context) {
	if !s.hydrated {
		return
	}
	payload, err := SerializeCart(s.cart)
	if err == nil {
		err = s.storage.Set(ctx, CartKey, payload)
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{"key": CartKey, "error": err}).Warn("Failed to persist cart")
	}
}

func (s *Store) persistColors(ctx context.Context) {
	if !s.hydrated {
		return
	}
	payload, err := SerializeColors(s.selected)
	if err == nil {
		err = s.storage.Set(ctx, SelectedColorsKey, payload)
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{"key": SelectedColorsKey, "error": err}).Warn("Failed to persist selected colors")
	}
}
