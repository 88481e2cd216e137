package rates

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Bracket is one marginal band of a Schedule. Rate (percent) applies to the
// portion of an amount above Threshold and up to the next bracket's Threshold.
type Bracket struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Rate      float64 `yaml:"rate" json:"rate"`
}

// Schedule is an ascending list of marginal brackets starting at threshold 0.
type Schedule []Bracket

// Slice is the portion of an amount taxed within one bracket.
type Slice struct {
	Lower   float64
	Upper   float64 // 0 for the open-ended top bracket
	Rate    float64
	Taxable float64
	Tax     float64
}

// Slices integrates amount over the schedule and returns the per-bracket
// portions that carry a non-zero taxable amount. Arithmetic is exact and each
// slice's tax is rounded to the cent.
func (s Schedule) Slices(amount float64) []Slice {
	if amount <= 0 || len(s) == 0 {
		return nil
	}
	amt := decimal.NewFromFloat(amount)

	var slices []Slice
	for i, b := range s {
		lower := decimal.NewFromFloat(b.Threshold)
		if amt.LessThanOrEqual(lower) {
			break
		}
		upper := amt
		var bracketUpper float64
		if i+1 < len(s) {
			bracketUpper = s[i+1].Threshold
			next := decimal.NewFromFloat(bracketUpper)
			if next.LessThan(upper) {
				upper = next
			}
		}
		taxable := upper.Sub(lower)
		tax := taxable.Mul(decimal.NewFromFloat(b.Rate)).Div(hundred).Round(2)
		slices = append(slices, Slice{
			Lower:   b.Threshold,
			Upper:   bracketUpper,
			Rate:    b.Rate,
			Taxable: taxable.InexactFloat64(),
			Tax:     tax.InexactFloat64(),
		})
	}
	return slices
}

// Tax returns the total tax owed on amount under the schedule.
func (s Schedule) Tax(amount float64) float64 {
	total := decimal.Zero
	for _, slice := range s.Slices(amount) {
		total = total.Add(decimal.NewFromFloat(slice.Tax))
	}
	return total.InexactFloat64()
}

// MarginalRate returns the rate of the highest bracket reached by amount.
// Amounts at or below zero fall in the first bracket.
func (s Schedule) MarginalRate(amount float64) float64 {
	if len(s) == 0 {
		return 0
	}
	rate := s[0].Rate
	for _, b := range s[1:] {
		if amount > b.Threshold {
			rate = b.Rate
		}
	}
	return rate
}

// TopRate returns the rate of the open-ended top bracket.
func (s Schedule) TopRate() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Rate
}
