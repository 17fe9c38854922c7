package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy is the set of markups applied once to the direct production cost.
type Policy struct {
	OverheadRate  float64
	DefaultMargin float64
	VATRate       float64
	SpeedTier     string
}

func DefaultPolicy() Policy {
	return Policy{
		OverheadRate:  0.12,
		DefaultMargin: 0.20,
		VATRate:       0.21,
		SpeedTier:     DefaultSpeedTier,
	}
}

func (p Policy) Validate() error {
	if p.OverheadRate < 0 || p.DefaultMargin < 0 || p.VATRate < 0 {
		return fmt.Errorf("pricing policy rates must be non-negative: overhead=%v margin=%v vat=%v",
			p.OverheadRate, p.DefaultMargin, p.VATRate)
	}
	return nil
}

type Prices struct {
	DirectCost       float64 `json:"directCost"`
	OverheadRate     float64 `json:"overheadRate"`
	Overhead         float64 `json:"overhead"`
	CostPrice        float64 `json:"costPrice"`
	MarginPercentage float64 `json:"marginPercentage"`
	MarginAmount     float64 `json:"marginAmount"`
	SubTotal         float64 `json:"subTotal"`
	VATRate          float64 `json:"vatRate"`
	VAT              float64 `json:"vatAmount"`
	Total            float64 `json:"grandTotal"`
}

// Apply layers overhead, margin and VAT on direct. marginPercent is a percentage
// (25 means 25%); nil selects the policy default.
func (p Policy) Apply(direct float64, marginPercent *float64) Prices {
	margin := decimal.NewFromFloat(p.DefaultMargin)
	if marginPercent != nil {
		margin = decimal.NewFromFloat(*marginPercent).Div(hundred)
	}

	d := decimal.NewFromFloat(direct)
	overhead := d.Mul(decimal.NewFromFloat(p.OverheadRate))
	costPrice := d.Add(overhead)
	marginAmount := costPrice.Mul(margin)
	subTotal := costPrice.Add(marginAmount)
	vat := subTotal.Mul(decimal.NewFromFloat(p.VATRate))
	total := subTotal.Add(vat)

	return Prices{
		DirectCost:       direct,
		OverheadRate:     p.OverheadRate,
		Overhead:         overhead.InexactFloat64(),
		CostPrice:        costPrice.InexactFloat64(),
		MarginPercentage: margin.InexactFloat64(),
		MarginAmount:     marginAmount.InexactFloat64(),
		SubTotal:         subTotal.InexactFloat64(),
		VATRate:          p.VATRate,
		VAT:              vat.InexactFloat64(),
		Total:            total.InexactFloat64(),
	}
}

// sum adds amounts in decimal so that a long list of line items does not drift.
func sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}
