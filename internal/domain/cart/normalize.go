// internal/domain/cart/normalize.go
package cart

import (
	"encoding/json"
	"math"
)

// ParseStoredCart normalizes a persisted cart payload. Two value formats
// are accepted per item: a legacy bare quantity (3) and {"quantity":3,
// "color":"black"}. Entries without a positive whole quantity are dropped,
// and a payload that is not a JSON object yields an empty state.
func ParseStoredCart(raw string, defaultColor func(id string) string) State {
	state := State{}
	if raw == "" {
		return state
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return state
	}

	for id, value := range parsed {
		var decoded interface{}
		if err := json.Unmarshal(value, &decoded); err != nil {
			continue
		}

		switch v := decoded.(type) {
		case float64:
			qty, ok := positiveQuantity(v)
			if !ok {
				continue
			}
			state[id] = Entry{Quantity: qty, Color: defaultColor(id)}
		case map[string]interface{}:
			rawQty, isNumber := v["quantity"].(float64)
			if !isNumber {
				continue
			}
			qty, ok := positiveQuantity(rawQty)
			if !ok {
				continue
			}
			color, isString := v["color"].(string)
			if !isString {
				color = defaultColor(id)
			}
			state[id] = Entry{Quantity: qty, Color: color}
		}
	}

	return state
}

// ParseStoredColors normalizes a persisted selected-colors payload,
// keeping only string values.
func ParseStoredColors(raw string) map[string]string {
	colors := map[string]string{}
	if raw == "" {
		return colors
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return colors
	}

	for id, value := range parsed {
		if color, ok := value.(string); ok {
			colors[id] = color
		}
	}
	return colors
}

// SerializeCart encodes a cart in the current storage format
func SerializeCart(state State) (string, error) {
	if state == nil {
		state = State{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SerializeColors encodes selected colors for storage
func SerializeColors(colors map[string]string) (string, error) {
	if colors == nil {
		colors = map[string]string{}
	}
	data, err := json.Marshal(colors)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// positiveQuantity drops fractional counts; the storefront only writes whole numbers.
func positiveQuantity(v float64) (int, bool) {
	if v <= 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
