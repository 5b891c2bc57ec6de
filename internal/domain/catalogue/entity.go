// internal/domain/catalogue/entity.go
package catalogue

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FallbackColor is used for items that declare no colors
const FallbackColor = "#f5f5f5"

// Item is a purchasable product definition. Prices are display strings
// and are parsed leniently by the pricing engine.
type Item struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Price          string   `yaml:"price" json:"price"`
	NewPrice       string   `yaml:"new_price,omitempty" json:"new_price,omitempty"`
	Href           string   `yaml:"href,omitempty" json:"href,omitempty"`
	PrimaryImage   string   `yaml:"primary_image" json:"primary_image"`
	SecondaryImage string   `yaml:"secondary_image" json:"secondary_image"`
	Badge          string   `yaml:"badge,omitempty" json:"badge,omitempty"`
	Colors         []string `yaml:"colors" json:"colors"`
}

// HasDiscount reports whether the item carries a discounted price
func (i Item) HasDiscount() bool {
	return i.NewPrice != ""
}

// EffectivePrice is the discounted price when present, else the list price
func (i Item) EffectivePrice() string {
	if i.NewPrice != "" {
		return i.NewPrice
	}
	return i.Price
}

// DefaultColor is the first declared color
func (i Item) DefaultColor() string {
	if len(i.Colors) == 0 {
		return FallbackColor
	}
	return i.Colors[0]
}

// FormatColorLabel turns a color token into display text: hex codes are
// upper-cased, names get a capital first letter.
func FormatColorLabel(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "#") {
		return strings.ToUpper(value)
	}
	r, size := utf8.DecodeRuneInString(value)
	return string(unicode.ToUpper(r)) + value[size:]
}
