// Package format renders money, percentages and ratios as display strings.
package format

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
)

// Currency returns a Canadian-dollar string with thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	return money.New(cents(amount), money.CAD).Display()
}

// WholeCurrency returns a Canadian-dollar string rounded to the dollar (e.g., "$1,235").
func WholeCurrency(amount float64) string {
	display := money.New(int64(math.Round(amount))*constants.DecimalPrecision, money.CAD).Display()
	// Drop the ".00" the CAD formatter always appends.
	return display[:len(display)-3]
}

// Percent returns a percentage string with two decimals (e.g., "5.25%").
func Percent(value float64) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", value)
}

// Ratio returns a ratio string with two decimals (e.g., "1.25x").
func Ratio(value float64) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", value)
}

func cents(amount float64) int64 {
	return int64(math.Round(amount * constants.DecimalPrecision))
}
