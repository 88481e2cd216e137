// Package taxrules implements the Canadian acquisition and financing rules:
// CMHC mortgage default insurance, provincial and municipal land transfer
// tax, the OSFI B-20 stress test and mortgage balance math.
package taxrules

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/deal-analyzer/pkg/amortization"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
)

// Rules evaluates the acquisition rules against one set of rate tables.
type Rules struct {
	tables *rates.Tables
}

// New returns Rules over the given tables. A nil tables value uses the
// built-in defaults.
func New(tables *rates.Tables) *Rules {
	if tables == nil {
		tables = rates.Default()
	}
	return &Rules{tables: tables}
}

// Tables returns the rate tables the rules read from.
func (r *Rules) Tables() *rates.Tables {
	return r.tables
}

// CMHCResult is the mortgage default insurance outcome. An ineligible
// purchase is a valid outcome, reported with Eligible=false and a Message.
type CMHCResult struct {
	MortgageAmount    float64 `json:"mortgageAmount"`
	DownPaymentPct    float64 `json:"downPaymentPercent"`
	PremiumRate       float64 `json:"premiumRate"`
	Premium           float64 `json:"premium"`
	TotalMortgage     float64 `json:"totalMortgage"`
	InsuranceRequired bool    `json:"insuranceRequired"`
	Eligible          bool    `json:"eligible"`
	Message           string  `json:"message,omitempty"`
}

// CMHCInsurance computes the premium on a purchase. Down payments below the
// minimum fail with an InputError.
func (r *Rules) CMHCInsurance(price, downPercent float64) (CMHCResult, error) {
	table := r.tables.CMHC
	if err := validation.RequirePositive("purchasePrice", price); err != nil {
		return CMHCResult{}, err
	}
	if downPercent < table.MinimumDownPercent {
		return CMHCResult{}, validation.NewInputError("downPaymentPercent", downPercent,
			fmt.Sprintf("must be at least %.0f%%", table.MinimumDownPercent))
	}
	if downPercent > 100 {
		return CMHCResult{}, validation.NewInputError("downPaymentPercent", downPercent, "cannot exceed 100%")
	}

	mortgage := price - price*downPercent/100
	result := CMHCResult{
		MortgageAmount: mortgage,
		DownPaymentPct: downPercent,
		TotalMortgage:  mortgage,
		Eligible:       true,
	}

	if downPercent >= table.InsuranceFreeDownPercent {
		return result, nil
	}

	if price > table.MaxInsuredPrice {
		result.Eligible = false
		result.Message = fmt.Sprintf("CMHC insurance is unavailable above %s; a down payment of at least %.0f%% is required",
			format.WholeCurrency(table.MaxInsuredPrice), table.InsuranceFreeDownPercent)
		return result, nil
	}

	for _, tier := range table.Tiers {
		if downPercent >= tier.MinDownPercent && downPercent < tier.MaxDownPercent {
			result.PremiumRate = tier.PremiumRate
			break
		}
	}
	result.InsuranceRequired = true
	result.Premium = mortgage * result.PremiumRate / 100
	result.TotalMortgage = mortgage + result.Premium
	return result, nil
}

// LTTLine is one item of a land transfer tax breakdown.
type LTTLine struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// LTTResult holds land transfer tax totals and an itemized breakdown.
type LTTResult struct {
	Province      rates.Province `json:"province"`
	ProvincialTax float64        `json:"provincialTax"`
	MunicipalTax  float64        `json:"municipalTax"`
	TotalTax      float64        `json:"totalTax"`
	Rebate        float64        `json:"rebate"`
	NetTax        float64        `json:"netTax"`
	Breakdown     []LTTLine      `json:"breakdown"`
}

// BreakdownText renders the breakdown one line per item.
func (l LTTResult) BreakdownText() string {
	var b strings.Builder
	for _, line := range l.Breakdown {
		fmt.Fprintf(&b, "%s: %s\n", line.Label, format.Currency(line.Amount))
	}
	return b.String()
}

// LandTransferTax computes the provincial tax, any municipal tax for the
// city, and first-time-buyer rebates capped at the lesser of the table's
// ceiling and the tax itself.
func (r *Rules) LandTransferTax(price float64, province rates.Province, city string, firstTimeBuyer bool) (LTTResult, error) {
	if err := validation.RequirePositive("purchasePrice", price); err != nil {
		return LTTResult{}, err
	}
	provincial, ok := r.tables.LandTransfer[province]
	if !ok {
		return LTTResult{}, validation.NewInputError("province", province, "unsupported province")
	}

	result := LTTResult{Province: province}
	result.ProvincialTax = r.itemize(&result, provincial, price)
	if firstTimeBuyer {
		r.rebate(&result, provincial, result.ProvincialTax)
	}

	if municipal, ok := r.tables.MunicipalSchedule(city); ok && province == rates.Ontario {
		result.MunicipalTax = r.itemize(&result, municipal, price)
		if firstTimeBuyer {
			r.rebate(&result, municipal, result.MunicipalTax)
		}
	}

	result.TotalTax = mathutil.Round(result.ProvincialTax + result.MunicipalTax)
	result.Rebate = mathutil.Round(result.Rebate)
	result.NetTax = math.Max(0, mathutil.Round(result.TotalTax-result.Rebate))
	result.Breakdown = append(result.Breakdown, LTTLine{Label: "Net land transfer tax", Amount: result.NetTax})
	return result, nil
}

func (r *Rules) rebate(result *LTTResult, table rates.LTTTable, tax float64) {
	rebate := math.Min(table.FirstTimeBuyerRebateCap, tax)
	if rebate <= 0 {
		return
	}
	result.Rebate += rebate
	result.Breakdown = append(result.Breakdown, LTTLine{Label: table.Label + " first-time buyer rebate", Amount: -rebate})
}

func (r *Rules) itemize(result *LTTResult, table rates.LTTTable, price float64) float64 {
	slices := table.Schedule.Slices(price)
	total := 0.0
	for _, s := range slices {
		var label string
		if s.Upper > 0 {
			label = fmt.Sprintf("%s %.2f%% on %s to %s", table.Label, s.Rate,
				format.WholeCurrency(s.Lower), format.WholeCurrency(s.Upper))
		} else {
			label = fmt.Sprintf("%s %.2f%% above %s", table.Label, s.Rate, format.WholeCurrency(s.Lower))
		}
		result.Breakdown = append(result.Breakdown, LTTLine{Label: label, Amount: s.Tax})
		total += s.Tax
	}
	if len(slices) == 0 {
		result.Breakdown = append(result.Breakdown, LTTLine{Label: table.Label, Amount: 0})
	}
	return mathutil.Round(total)
}

// StressTestResult holds the OSFI B-20 qualification figures.
type StressTestResult struct {
	ContractRate      float64 `json:"contractRate"`
	QualifyingRate    float64 `json:"qualifyingRate"`
	ContractPayment   float64 `json:"contractPayment"`
	QualifyingPayment float64 `json:"qualifyingPayment"`
	PaymentIncrease   float64 `json:"paymentIncrease"`
}

// StressTest computes the payment at the contract rate and at the qualifying
// rate max(contract + buffer, floor).
func (r *Rules) StressTest(mortgage, contractRate float64, years int) StressTestResult {
	rule := r.tables.StressTest
	qualifying := math.Max(contractRate+rule.Buffer, rule.Floor)
	contractPayment := amortization.MonthlyPayment(mortgage, contractRate, years)
	qualifyingPayment := amortization.MonthlyPayment(mortgage, qualifying, years)
	return StressTestResult{
		ContractRate:      contractRate,
		QualifyingRate:    qualifying,
		ContractPayment:   contractPayment,
		QualifyingPayment: qualifyingPayment,
		PaymentIncrease:   qualifyingPayment - contractPayment,
	}
}

// MortgageBalance returns the remaining balance after elapsedYears.
func (r *Rules) MortgageBalance(principal, rate float64, totalYears int, elapsedYears float64) float64 {
	return amortization.RemainingBalance(principal, rate, totalYears, elapsedYears)
}
