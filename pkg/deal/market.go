package deal

import (
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
)

// Market comparison sources.
const (
	SourceBenchmark = "benchmark"
	SourceDefault   = "default"
)

// CompareMarket compares the deal's cap rate and rent-to-price ratio with
// the benchmark for its city and property type. Cities missing from the
// tables use the default benchmark and report Source "default".
//
// Neighbourhood quality scores are not produced: the tables carry no data
// for them.
func CompareMarket(tables *rates.Tables, inputs PropertyInputs, capRate float64) MarketComparison {
	lookup := tables.LookupMarket(inputs.City, string(inputs.PropertyType))
	source := SourceDefault
	if lookup.Found {
		source = SourceBenchmark
	}

	delta := capRate - lookup.CapRate
	return MarketComparison{
		City:              inputs.City,
		PropertyType:      string(inputs.PropertyType),
		MarketCapRate:     lookup.CapRate,
		CapRateDelta:      delta,
		MarketRentToPrice: lookup.RentToPrice,
		RentToPrice:       mathutil.Percent(inputs.MonthlyRent, inputs.PurchasePrice),
		Source:            source,
		Assessment:        assessCapRate(delta),
	}
}

func assessCapRate(delta float64) string {
	switch {
	case delta > 1:
		return "well above market"
	case delta >= 0:
		return "at or above market"
	case delta > -1:
		return "slightly below market"
	default:
		return "well below market"
	}
}
