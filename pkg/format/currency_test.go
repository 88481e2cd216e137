package format

import (
	"math"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Zero", 0, "$0.00"},
		{"Cents only", 0.29, "$0.29"},
		{"Thousands", 1234.56, "$1,234.56"},
		{"Millions", 1000000, "$1,000,000.00"},
		{"Negative", -1234.5, "-$1,234.50"},
		{"Rounds to cent", 10.005001, "$10.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestWholeCurrency(t *testing.T) {
	if got := WholeCurrency(299900.4); got != "$299,900" {
		t.Errorf("WholeCurrency() = %q, expected $299,900", got)
	}
	if got := WholeCurrency(-10000); got != "-$10,000" {
		t.Errorf("WholeCurrency() = %q, expected -$10,000", got)
	}
}

func TestPercentAndRatio(t *testing.T) {
	if got := Percent(5.25); got != "5.25%" {
		t.Errorf("Percent(5.25) = %q", got)
	}
	if got := Percent(math.Inf(1)); got != "n/a" {
		t.Errorf("Percent(+Inf) = %q", got)
	}
	if got := Ratio(1.254); got != "1.25x" {
		t.Errorf("Ratio(1.254) = %q", got)
	}
}
