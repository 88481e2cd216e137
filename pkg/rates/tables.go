// Package rates holds the versioned, read-only rate tables every calculator
// draws on: CMHC premiums, land transfer tax schedules, the mortgage stress
// test, closing costs, income tax brackets and market benchmarks.
//
// A Tables value is built once (Default or LoadTables) and shared by pointer.
// Nothing in this module mutates a Tables after construction, so concurrent
// readers need no synchronization.
package rates

import (
	"fmt"
	"sort"
	"strings"
)

// Province is a Canadian province code supported by the tables.
type Province string

// Supported provinces.
const (
	Ontario         Province = "ON"
	BritishColumbia Province = "BC"
	Alberta         Province = "AB"
	NovaScotia      Province = "NS"
	Quebec          Province = "QC"
)

// Provinces lists every supported province in a stable order.
var Provinces = []Province{Ontario, BritishColumbia, Alberta, NovaScotia, Quebec}

var provinceNames = map[Province]string{
	Ontario:         "Ontario",
	BritishColumbia: "British Columbia",
	Alberta:         "Alberta",
	NovaScotia:      "Nova Scotia",
	Quebec:          "Quebec",
}

// ParseProvince normalizes a province code. The second return is false for
// unsupported codes.
func ParseProvince(code string) (Province, bool) {
	p := Province(strings.ToUpper(strings.TrimSpace(code)))
	_, ok := provinceNames[p]
	return p, ok
}

// Name returns the province's display name.
func (p Province) Name() string {
	if name, ok := provinceNames[p]; ok {
		return name
	}
	return string(p)
}

// CMHCTier maps a down-payment band [MinDownPercent, MaxDownPercent) to a
// premium rate (percent of the mortgage amount).
type CMHCTier struct {
	MinDownPercent float64 `yaml:"minDownPercent" json:"minDownPercent"`
	MaxDownPercent float64 `yaml:"maxDownPercent" json:"maxDownPercent"`
	PremiumRate    float64 `yaml:"premiumRate" json:"premiumRate"`
}

// CMHCTable holds mortgage default insurance rules.
type CMHCTable struct {
	MinimumDownPercent       float64    `yaml:"minimumDownPercent" json:"minimumDownPercent"`
	InsuranceFreeDownPercent float64    `yaml:"insuranceFreeDownPercent" json:"insuranceFreeDownPercent"`
	MaxInsuredPrice          float64    `yaml:"maxInsuredPrice" json:"maxInsuredPrice"`
	Tiers                    []CMHCTier `yaml:"tiers" json:"tiers"`
}

// StressTestRule is the OSFI B-20 minimum qualifying rate rule.
type StressTestRule struct {
	Buffer float64 `yaml:"buffer" json:"buffer"`
	Floor  float64 `yaml:"floor" json:"floor"`
}

// LTTTable is a land transfer tax schedule with its first-time-buyer rebate.
type LTTTable struct {
	Label                   string   `yaml:"label" json:"label"`
	Schedule                Schedule `yaml:"schedule" json:"schedule"`
	FirstTimeBuyerRebateCap float64  `yaml:"firstTimeBuyerRebateCap" json:"firstTimeBuyerRebateCap"`
}

// ClosingCosts are the flat fees paid at acquisition.
type ClosingCosts struct {
	Legal          float64 `yaml:"legal" json:"legal"`
	Inspection     float64 `yaml:"inspection" json:"inspection"`
	Appraisal      float64 `yaml:"appraisal" json:"appraisal"`
	TitleInsurance float64 `yaml:"titleInsurance" json:"titleInsurance"`
}

// Total returns the sum of all closing costs.
func (c ClosingCosts) Total() float64 {
	return c.Legal + c.Inspection + c.Appraisal + c.TitleInsurance
}

// IncomeTaxTable holds progressive personal income tax brackets and the
// rental property tax rules.
type IncomeTaxTable struct {
	Federal               Schedule              `yaml:"federal" json:"federal"`
	Provincial            map[Province]Schedule `yaml:"provincial" json:"provincial"`
	CCARate               float64               `yaml:"ccaRate" json:"ccaRate"`
	HalfYearRule          bool                  `yaml:"halfYearRule" json:"halfYearRule"`
	CapitalGainsInclusion float64               `yaml:"capitalGainsInclusion" json:"capitalGainsInclusion"`
	MortgageInterestShare float64               `yaml:"mortgageInterestShare" json:"mortgageInterestShare"`
}

// Benchmark is the market reference for one city.
type Benchmark struct {
	CapRates    map[string]float64 `yaml:"capRates" json:"capRates"`
	CapRate     float64            `yaml:"capRate" json:"capRate"`
	RentToPrice float64            `yaml:"rentToPrice" json:"rentToPrice"`
}

// MarketTable maps lower-case city names to benchmarks.
type MarketTable struct {
	Cities  map[string]Benchmark `yaml:"cities" json:"cities"`
	Default Benchmark            `yaml:"default" json:"default"`
}

// Tables is the complete set of rates for one tax year.
type Tables struct {
	TaxYear               int                   `yaml:"taxYear" json:"taxYear"`
	CMHC                  CMHCTable             `yaml:"cmhc" json:"cmhc"`
	StressTest            StressTestRule        `yaml:"stressTest" json:"stressTest"`
	LandTransfer          map[Province]LTTTable `yaml:"landTransfer" json:"landTransfer"`
	MunicipalLandTransfer map[string]LTTTable   `yaml:"municipalLandTransfer" json:"municipalLandTransfer"`
	ClosingCosts          ClosingCosts          `yaml:"closingCosts" json:"closingCosts"`
	IncomeTax             IncomeTaxTable        `yaml:"incomeTax" json:"incomeTax"`
	Market                MarketTable           `yaml:"market" json:"market"`
}

// MarketLookup is the outcome of a benchmark lookup.
type MarketLookup struct {
	CapRate     float64
	RentToPrice float64
	Found       bool
}

// LookupMarket returns the benchmark for the city and property type. Unknown
// cities fall back to the default benchmark; a known city without a cap rate
// for the property type uses the city's general cap rate.
func (t *Tables) LookupMarket(city, propertyType string) MarketLookup {
	key := strings.ToLower(strings.TrimSpace(city))
	bench, ok := t.Market.Cities[key]
	if !ok {
		return MarketLookup{CapRate: t.Market.Default.CapRate, RentToPrice: t.Market.Default.RentToPrice}
	}
	capRate := bench.CapRate
	if typed, ok := bench.CapRates[strings.ToLower(propertyType)]; ok {
		capRate = typed
	}
	return MarketLookup{CapRate: capRate, RentToPrice: bench.RentToPrice, Found: true}
}

// MunicipalSchedule returns the municipal land transfer table for the city,
// if the city levies one.
func (t *Tables) MunicipalSchedule(city string) (LTTTable, bool) {
	table, ok := t.MunicipalLandTransfer[strings.ToLower(strings.TrimSpace(city))]
	return table, ok
}

// ProvincialTax returns the provincial income tax schedule.
func (t *Tables) ProvincialTax(p Province) (Schedule, bool) {
	s, ok := t.IncomeTax.Provincial[p]
	return s, ok
}

// Validate checks structural consistency of the tables.
func (t *Tables) Validate() error {
	if t == nil {
		return fmt.Errorf("rate tables cannot be nil")
	}
	if t.TaxYear <= 0 {
		return fmt.Errorf("rate tables: tax year must be positive, got %d", t.TaxYear)
	}
	if t.CMHC.MinimumDownPercent <= 0 || t.CMHC.InsuranceFreeDownPercent <= t.CMHC.MinimumDownPercent {
		return fmt.Errorf("rate tables: invalid CMHC down payment bounds %.2f/%.2f",
			t.CMHC.MinimumDownPercent, t.CMHC.InsuranceFreeDownPercent)
	}
	if len(t.CMHC.Tiers) == 0 {
		return fmt.Errorf("rate tables: CMHC tiers cannot be empty")
	}
	for _, tier := range t.CMHC.Tiers {
		if tier.MinDownPercent >= tier.MaxDownPercent || tier.PremiumRate < 0 {
			return fmt.Errorf("rate tables: invalid CMHC tier [%.2f, %.2f) at %.2f%%",
				tier.MinDownPercent, tier.MaxDownPercent, tier.PremiumRate)
		}
	}

	for _, p := range Provinces {
		ltt, ok := t.LandTransfer[p]
		if !ok {
			return fmt.Errorf("rate tables: missing land transfer schedule for %s", p)
		}
		if err := validateSchedule(ltt.Schedule); err != nil {
			return fmt.Errorf("rate tables: land transfer %s: %w", p, err)
		}
		income, ok := t.IncomeTax.Provincial[p]
		if !ok {
			return fmt.Errorf("rate tables: missing provincial income tax for %s", p)
		}
		if err := validateSchedule(income); err != nil {
			return fmt.Errorf("rate tables: provincial income tax %s: %w", p, err)
		}
	}

	cities := make([]string, 0, len(t.MunicipalLandTransfer))
	for city := range t.MunicipalLandTransfer {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	for _, city := range cities {
		if err := validateSchedule(t.MunicipalLandTransfer[city].Schedule); err != nil {
			return fmt.Errorf("rate tables: municipal land transfer %s: %w", city, err)
		}
	}

	if err := validateSchedule(t.IncomeTax.Federal); err != nil {
		return fmt.Errorf("rate tables: federal income tax: %w", err)
	}
	if t.IncomeTax.CCARate < 0 || t.IncomeTax.CapitalGainsInclusion < 0 || t.IncomeTax.CapitalGainsInclusion > 100 {
		return fmt.Errorf("rate tables: invalid CCA rate %.2f or inclusion rate %.2f",
			t.IncomeTax.CCARate, t.IncomeTax.CapitalGainsInclusion)
	}
	return nil
}

func validateSchedule(s Schedule) error {
	if len(s) == 0 {
		return fmt.Errorf("schedule cannot be empty")
	}
	if s[0].Threshold != 0 {
		return fmt.Errorf("first bracket must start at 0, got %.2f", s[0].Threshold)
	}
	for i, b := range s {
		if b.Rate < 0 {
			return fmt.Errorf("bracket %d has negative rate %.2f", i, b.Rate)
		}
		if i > 0 && b.Threshold <= s[i-1].Threshold {
			return fmt.Errorf("bracket %d threshold %.2f is not above %.2f", i, b.Threshold, s[i-1].Threshold)
		}
	}
	return nil
}
