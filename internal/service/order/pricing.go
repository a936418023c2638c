package order

import "github.com/shopspring/decimal"

// Pricing holds the flat delivery fee and tax rate applied on top of the
// cart subtotal.
type Pricing struct {
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		DeliveryFee: decimal.RequireFromString("2.99"),
		TaxRate:     decimal.RequireFromString("0.08"),
	}
}

type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Summarize computes subtotal + fee + subtotal*rate. The total is rounded
// once from the exact sum, not from the rounded parts.
func (p Pricing) Summarize(subtotal decimal.Decimal) Summary {
	tax := subtotal.Mul(p.TaxRate)
	total := subtotal.Add(p.DeliveryFee).Add(tax)
	return Summary{
		Subtotal:    subtotal.Round(2),
		DeliveryFee: p.DeliveryFee.Round(2),
		Tax:         tax.Round(2),
		Total:       total.Round(2),
	}
}
