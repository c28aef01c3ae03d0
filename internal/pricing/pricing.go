package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMargins is returned when a profit or tax rate would make the
// sell/cost formulas divide by zero or produce negative prices.
var ErrInvalidMargins = errors.New("invalid margins")

// AcceptedDigits is the number of decimal digits a written price keeps.
const AcceptedDigits = 2

// Margins groups the parameters shared by the sell and cost formulas.
type Margins struct {
	ProfitPercent float64 `json:"profit_percent"`
	TaxRate       float64 `json:"tax_rate"`
}

// Validate reports whether the margins can be used by both formulas.
func (m Margins) Validate() error {
	if m.ProfitPercent <= -100 {
		return fmt.Errorf("%w: profit %.2f%% must be greater than -100%%", ErrInvalidMargins, m.ProfitPercent)
	}
	if m.TaxRate < 0 || m.TaxRate >= 1 {
		return fmt.Errorf("%w: sales tax rate %.4f must be in [0, 1)", ErrInvalidMargins, m.TaxRate)
	}
	return nil
}

// ProfitRate returns the profit as a fraction.
func (m Margins) ProfitRate() float64 {
	return m.ProfitPercent / 100.0
}

// SellPrice converts a cost price into a sell price.
//
//	SellPrice = CostPrice * (1 + Profit) / (1 - TaxRate)
func SellPrice(cost float64, m Margins) float64 {
	return cost * (1.0 + m.ProfitRate()) / (1.0 - m.TaxRate)
}

// CostPrice is the inverse of SellPrice.
//
//	CostPrice = SellPrice / (1 + Profit) * (1 - TaxRate)
func CostPrice(sell float64, m Margins) float64 {
	return sell / (1.0 + m.ProfitRate()) * (1.0 - m.TaxRate)
}

// Round rounds a price to the accepted currency precision.
func Round(price float64) float64 {
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return price
	}
	scale := math.Pow(10, AcceptedDigits)
	return math.Round(price*scale) / scale
}

// Breakdown contains the line items of a sell price.
type Breakdown struct {
	CostPrice float64 `json:"cost_price"`
	Margin    float64 `json:"margin"`
	Tax       float64 `json:"tax"`
}

// Totals contains roll-up values from the pricing calculation.
type Totals struct {
	Total   float64 `json:"total"`
	Rounded float64 `json:"rounded"`
}

// Result groups the full pricing output, including detailed breakdown and totals.
type Result struct {
	Margins   Margins   `json:"margins"`
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// Calculate splits the sell price of a cost into its margin and tax parts.
func Calculate(cost float64, m Margins) Result {
	margin := cost * m.ProfitRate()
	total := SellPrice(cost, m)
	tax := total * m.TaxRate

	return Result{
		Margins: m,
		Breakdown: Breakdown{
			CostPrice: cost,
			Margin:    margin,
			Tax:       tax,
		},
		Totals: Totals{
			Total:   total,
			Rounded: Round(total),
		},
	}
}
