package rates

import "github.com/iwvelando/deal-analyzer/pkg/constants"

// Default returns the built-in tables for the 2024 tax year. Each call
// returns a fresh value; callers share one instance by pointer.
func Default() *Tables {
	return &Tables{
		TaxYear: constants.DefaultTaxYear,
		CMHC: CMHCTable{
			MinimumDownPercent:       5,
			InsuranceFreeDownPercent: 20,
			MaxInsuredPrice:          1000000,
			Tiers: []CMHCTier{
				{MinDownPercent: 15, MaxDownPercent: 20, PremiumRate: 2.80},
				{MinDownPercent: 10, MaxDownPercent: 15, PremiumRate: 3.10},
				{MinDownPercent: 5, MaxDownPercent: 10, PremiumRate: 4.00},
			},
		},
		StressTest: StressTestRule{Buffer: 2.0, Floor: 5.25},
		LandTransfer: map[Province]LTTTable{
			Ontario: {
				Label:                   "Ontario land transfer tax",
				Schedule:                ontarioShape(),
				FirstTimeBuyerRebateCap: 4000,
			},
			BritishColumbia: {
				Label: "BC property transfer tax",
				Schedule: Schedule{
					{Threshold: 0, Rate: 1.0},
					{Threshold: 200000, Rate: 2.0},
					{Threshold: 2000000, Rate: 3.0},
					{Threshold: 3000000, Rate: 5.0},
				},
				FirstTimeBuyerRebateCap: 8000,
			},
			Alberta: {
				Label:    "Alberta land title transfer",
				Schedule: Schedule{{Threshold: 0, Rate: 0}},
			},
			NovaScotia: {
				Label:    "Nova Scotia deed transfer tax",
				Schedule: Schedule{{Threshold: 0, Rate: 1.5}},
			},
			Quebec: {
				Label: "Quebec welcome tax",
				Schedule: Schedule{
					{Threshold: 0, Rate: 0.5},
					{Threshold: 55200, Rate: 1.0},
					{Threshold: 276200, Rate: 1.5},
				},
			},
		},
		MunicipalLandTransfer: map[string]LTTTable{
			"toronto": {
				Label:                   "Toronto municipal land transfer tax",
				Schedule:                ontarioShape(),
				FirstTimeBuyerRebateCap: 4475,
			},
		},
		ClosingCosts: ClosingCosts{
			Legal:          1500,
			Inspection:     500,
			Appraisal:      400,
			TitleInsurance: 300,
		},
		IncomeTax: IncomeTaxTable{
			Federal: Schedule{
				{Threshold: 0, Rate: 15},
				{Threshold: 55867, Rate: 20.5},
				{Threshold: 111733, Rate: 26},
				{Threshold: 173205, Rate: 29},
				{Threshold: 246752, Rate: 33},
			},
			Provincial: map[Province]Schedule{
				Ontario: {
					{Threshold: 0, Rate: 5.05},
					{Threshold: 51446, Rate: 9.15},
					{Threshold: 102894, Rate: 11.16},
					{Threshold: 150000, Rate: 12.16},
					{Threshold: 220000, Rate: 13.16},
				},
				BritishColumbia: {
					{Threshold: 0, Rate: 5.06},
					{Threshold: 47937, Rate: 7.7},
					{Threshold: 95875, Rate: 10.5},
					{Threshold: 110076, Rate: 12.29},
					{Threshold: 133664, Rate: 14.7},
					{Threshold: 181232, Rate: 16.8},
					{Threshold: 252752, Rate: 20.5},
				},
				Alberta: {
					{Threshold: 0, Rate: 10},
					{Threshold: 148269, Rate: 12},
					{Threshold: 177922, Rate: 13},
					{Threshold: 237230, Rate: 14},
					{Threshold: 355845, Rate: 15},
				},
				NovaScotia: {
					{Threshold: 0, Rate: 8.79},
					{Threshold: 29590, Rate: 14.95},
					{Threshold: 59180, Rate: 16.67},
					{Threshold: 93000, Rate: 17.5},
					{Threshold: 150000, Rate: 21},
				},
				Quebec: {
					{Threshold: 0, Rate: 14},
					{Threshold: 51780, Rate: 19},
					{Threshold: 103545, Rate: 24},
					{Threshold: 126000, Rate: 25.75},
				},
			},
			CCARate:               4,
			HalfYearRule:          true,
			CapitalGainsInclusion: 50,
			MortgageInterestShare: 90,
		},
		Market: MarketTable{
			Cities: map[string]Benchmark{
				"toronto": {
					CapRate:     3.5,
					RentToPrice: 0.40,
					CapRates:    map[string]float64{"condo": 3.2, "single_family": 3.5, "townhouse": 3.6, "multi_family": 4.2},
				},
				"ottawa": {
					CapRate:     4.5,
					RentToPrice: 0.55,
					CapRates:    map[string]float64{"condo": 4.2, "single_family": 4.5, "townhouse": 4.6, "multi_family": 5.2},
				},
				"hamilton": {
					CapRate:     4.8,
					RentToPrice: 0.58,
					CapRates:    map[string]float64{"condo": 4.4, "single_family": 4.8, "multi_family": 5.5},
				},
				"vancouver": {
					CapRate:     3.0,
					RentToPrice: 0.33,
					CapRates:    map[string]float64{"condo": 2.9, "single_family": 2.6, "townhouse": 3.1, "multi_family": 3.8},
				},
				"victoria": {
					CapRate:     3.4,
					RentToPrice: 0.38,
				},
				"calgary": {
					CapRate:     5.5,
					RentToPrice: 0.65,
					CapRates:    map[string]float64{"condo": 5.8, "single_family": 5.2, "townhouse": 5.6, "multi_family": 6.2},
				},
				"edmonton": {
					CapRate:     6.0,
					RentToPrice: 0.75,
					CapRates:    map[string]float64{"condo": 6.4, "single_family": 5.8, "townhouse": 6.1, "multi_family": 6.8},
				},
				"halifax": {
					CapRate:     5.0,
					RentToPrice: 0.60,
				},
				"montreal": {
					CapRate:     4.5,
					RentToPrice: 0.52,
					CapRates:    map[string]float64{"condo": 4.2, "multi_family": 5.0},
				},
				"quebec city": {
					CapRate:     5.2,
					RentToPrice: 0.62,
				},
			},
			Default: Benchmark{CapRate: 5.0, RentToPrice: 0.60},
		},
	}
}

// ontarioShape is the marginal bracket shape shared by the Ontario provincial
// and Toronto municipal land transfer taxes.
func ontarioShape() Schedule {
	return Schedule{
		{Threshold: 0, Rate: 0.5},
		{Threshold: 55000, Rate: 1.0},
		{Threshold: 250000, Rate: 1.5},
		{Threshold: 400000, Rate: 2.0},
		{Threshold: 2000000, Rate: 2.5},
	}
}
