package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/recipebox/recipebox-server/internal/validation"
)

// pricePattern matches the textual forms a price may be sent in.
const pricePattern = `^\s*[0-9]+(\.[0-9]+)?\s*$`

// Price is a decimal amount that is always written as a string with two
// decimal places ("5.25"). Requests may send either a string or a number.
type Price struct {
	decimal.Decimal
}

// NewPrice wraps d.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

// MarshalJSON writes the price as a fixed-point string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.StringFixed(validation.PriceDecimalPlaces))), nil
}

// UnmarshalJSON accepts "5.25" or 5.25.
func (p *Price) UnmarshalJSON(data []byte) error {
	return p.Decimal.UnmarshalJSON(data)
}

// Schema implements huma.SchemaProvider.
func (Price) Schema(_ huma.Registry) *huma.Schema {
	s := &huma.Schema{
		Description: "Decimal amount with at most 5 digits, 2 after the point",
		OneOf: []*huma.Schema{
			{Type: huma.TypeString, Pattern: pricePattern, Examples: []any{"5.25"}},
			{Type: huma.TypeNumber, Minimum: ptrFloat(0)},
		},
	}
	s.PrecomputeMessages()
	return s
}

func ptrFloat(f float64) *float64 {
	return &f
}
