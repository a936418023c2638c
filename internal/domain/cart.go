package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LineItem is one menu item and its requested quantity within a cart.
type LineItem struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menu_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	ImageRef   string          `json:"image,omitempty"`
}

// LineTotal returns unit price times quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MarshalJSON writes price as a JSON number, the layout stored cart_items
// values have always used. Decoding accepts numbers and quoted strings.
func (l LineItem) MarshalJSON() ([]byte, error) {
	type plain LineItem
	return json.Marshal(struct {
		plain
		UnitPrice json.Number `json:"price"`
	}{plain: plain(l), UnitPrice: json.Number(l.UnitPrice.String())})
}
