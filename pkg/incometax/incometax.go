// Package incometax estimates the personal income tax consequences of owning
// a rental property: marginal and progressive tax, Class 1 capital cost
// allowance, tax on net rental income and tax on disposition.
package incometax

import (
	"fmt"
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"github.com/iwvelando/deal-analyzer/pkg/metrics"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"go.uber.org/zap"
)

// TaxProfile describes the investor. BuildingValuePercent is the share of the
// purchase price attributable to the depreciable building; zero means 100.
// An empty Province uses the property's province.
type TaxProfile struct {
	AnnualIncome         float64        `json:"annualIncome"`
	Province             rates.Province `json:"province,omitempty"`
	BuildingValuePercent float64        `json:"buildingValuePercent,omitempty"`
}

// TaxBreakdown is the tax owed on one income figure. Rates are percents.
type TaxBreakdown struct {
	Income       float64 `json:"income"`
	Federal      float64 `json:"federal"`
	Provincial   float64 `json:"provincial"`
	Total        float64 `json:"total"`
	AverageRate  float64 `json:"averageRate"`
	MarginalRate float64 `json:"marginalRate"`
}

// CCAYear is one year of the capital cost allowance schedule.
type CCAYear struct {
	Year       int     `json:"year"`
	OpeningUCC float64 `json:"openingUcc"`
	Claim      float64 `json:"claim"`
	ClosingUCC float64 `json:"closingUcc"`
}

// Snapshot is the first-year rental tax position.
type Snapshot struct {
	RentalIncome      float64 `json:"rentalIncome"`
	OperatingExpenses float64 `json:"operatingExpenses"`
	MortgageInterest  float64 `json:"mortgageInterest"`
	CCA               float64 `json:"cca"`
	NetRentalIncome   float64 `json:"netRentalIncome"`
	MarginalRate      float64 `json:"marginalRate"`
	RentalTax         float64 `json:"rentalTax"`
	IncrementalTax    float64 `json:"incrementalTax"`
	PreTaxCashFlow    float64 `json:"preTaxCashFlow"`
	AfterTaxCashFlow  float64 `json:"afterTaxCashFlow"`
}

// Disposition is the tax on selling at the end of the hold period.
type Disposition struct {
	HoldYears       int     `json:"holdYears"`
	SaleValue       float64 `json:"saleValue"`
	AdjustedCost    float64 `json:"adjustedCost"`
	CapitalGain     float64 `json:"capitalGain"`
	TaxableGain     float64 `json:"taxableGain"`
	CCAClaimed      float64 `json:"ccaClaimed"`
	CCARecapture    float64 `json:"ccaRecapture"`
	MarginalRate    float64 `json:"marginalRate"`
	CapitalGainsTax float64 `json:"capitalGainsTax"`
	RecaptureTax    float64 `json:"recaptureTax"`
	TotalTax        float64 `json:"totalTax"`
	AfterTaxGain    float64 `json:"afterTaxGain"`
}

// TaxYearRow is one year of the hold-period tax table.
type TaxYearRow struct {
	Year             int     `json:"year"`
	RentalIncome     float64 `json:"rentalIncome"`
	Deductions       float64 `json:"deductions"`
	CCA              float64 `json:"cca"`
	NetRentalIncome  float64 `json:"netRentalIncome"`
	MarginalRate     float64 `json:"marginalRate"`
	Tax              float64 `json:"tax"`
	AfterTaxCashFlow float64 `json:"afterTaxCashFlow"`
	CumulativeTax    float64 `json:"cumulativeTax"`
}

// TaxImpact is the complete tax picture for one deal.
type TaxImpact struct {
	Profile     TaxProfile   `json:"profile"`
	Snapshot    Snapshot     `json:"snapshot"`
	Disposition Disposition  `json:"disposition"`
	Years       []TaxYearRow `json:"years"`
	TotalTax    float64      `json:"totalTax"`
}

// Calculator applies the income tax tables.
type Calculator struct {
	logger *zap.Logger
	tables *rates.Tables
}

// NewCalculator returns a Calculator. Nil arguments take a no-op logger and
// the built-in tables.
func NewCalculator(logger *zap.Logger, tables *rates.Tables) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tables == nil {
		tables = rates.Default()
	}
	return &Calculator{logger: logger, tables: tables}
}

func (c *Calculator) schedules(province rates.Province) (rates.Schedule, rates.Schedule, error) {
	provincial, ok := c.tables.ProvincialTax(province)
	if !ok {
		return nil, nil, validation.NewInputError("province", province, "unsupported province")
	}
	return c.tables.IncomeTax.Federal, provincial, nil
}

// MarginalTaxRate sums the federal and provincial rates of the highest
// brackets reached by income. It is the rate on the next dollar, not a
// blended rate.
func (c *Calculator) MarginalTaxRate(income float64, province rates.Province) (float64, error) {
	federal, provincial, err := c.schedules(province)
	if err != nil {
		return 0, err
	}
	return federal.MarginalRate(income) + provincial.MarginalRate(income), nil
}

// ProgressiveTax integrates the federal and provincial brackets over income.
func (c *Calculator) ProgressiveTax(income float64, province rates.Province) (TaxBreakdown, error) {
	federal, provincial, err := c.schedules(province)
	if err != nil {
		return TaxBreakdown{}, err
	}
	b := TaxBreakdown{
		Income:       income,
		Federal:      federal.Tax(income),
		Provincial:   provincial.Tax(income),
		MarginalRate: federal.MarginalRate(income) + provincial.MarginalRate(income),
	}
	b.Total = mathutil.Round(b.Federal + b.Provincial)
	b.AverageRate = mathutil.Percent(b.Total, income)
	return b, nil
}

// CCASchedule runs the declining-balance capital cost allowance for years,
// halving the first-year claim when the half-year rule applies.
func (c *Calculator) CCASchedule(buildingValue float64, years int) []CCAYear {
	rate := c.tables.IncomeTax.CCARate / constants.PercentageMultiplier
	schedule := make([]CCAYear, 0, years)
	ucc := math.Max(buildingValue, 0)
	for y := 1; y <= years; y++ {
		claim := ucc * rate
		if y == 1 && c.tables.IncomeTax.HalfYearRule {
			claim /= 2
		}
		schedule = append(schedule, CCAYear{Year: y, OpeningUCC: ucc, Claim: claim, ClosingUCC: ucc - claim})
		ucc -= claim
	}
	return schedule
}

// CCA returns the claim for a single year of ownership, 0 for year < 1.
func (c *Calculator) CCA(buildingValue float64, year int) float64 {
	if year < 1 {
		return 0
	}
	schedule := c.CCASchedule(buildingValue, year)
	return schedule[year-1].Claim
}

func (c *Calculator) resolveProfile(inputs deal.PropertyInputs, profile TaxProfile) (TaxProfile, error) {
	if profile.Province == "" {
		profile.Province = inputs.Province
	}
	province, ok := rates.ParseProvince(string(profile.Province))
	if !ok {
		return TaxProfile{}, validation.NewInputError("province", profile.Province, "unsupported province")
	}
	profile.Province = province
	if profile.BuildingValuePercent == 0 {
		profile.BuildingValuePercent = 100
	}
	if err := validation.RequireNonNegative("annualIncome", profile.AnnualIncome); err != nil {
		return TaxProfile{}, err
	}
	if err := validation.RequireRange("buildingValuePercent", profile.BuildingValuePercent, 0, 100); err != nil {
		return TaxProfile{}, err
	}
	return profile, nil
}

// Analyze computes the first-year snapshot, the hold-period table and the
// disposition. Mortgage interest is approximated as a fixed share of the
// annual payment; rental tax is charged at the marginal rate on positive net
// rental income only.
func (c *Calculator) Analyze(inputs deal.PropertyInputs, analysis deal.DealAnalysis, profile TaxProfile, assumptions metrics.Assumptions) (TaxImpact, error) {
	profile, err := c.resolveProfile(inputs, profile)
	if err != nil {
		return TaxImpact{}, err
	}
	projections, err := metrics.GenerateCashFlowProjections(inputs, analysis, assumptions)
	if err != nil {
		return TaxImpact{}, fmt.Errorf("tax projections: %w", err)
	}

	buildingValue := mathutil.ApplyPercentage(inputs.PurchasePrice, profile.BuildingValuePercent)
	cca := c.CCASchedule(buildingValue, assumptions.HoldPeriodYears)
	interestShare := c.tables.IncomeTax.MortgageInterestShare / constants.PercentageMultiplier

	impact := TaxImpact{Profile: profile, Years: make([]TaxYearRow, 0, len(projections))}
	cumulative := 0.0
	for i, p := range projections {
		interest := p.DebtService * interestShare
		net := p.EffectiveIncome - p.OperatingExpenses - interest - cca[i].Claim
		taxable := math.Max(0, net)
		marginal, err := c.MarginalTaxRate(profile.AnnualIncome+taxable, profile.Province)
		if err != nil {
			return TaxImpact{}, err
		}
		tax := taxable * marginal / constants.PercentageMultiplier
		cumulative += tax
		impact.Years = append(impact.Years, TaxYearRow{
			Year:             p.Year,
			RentalIncome:     p.EffectiveIncome,
			Deductions:       p.OperatingExpenses + interest,
			CCA:              cca[i].Claim,
			NetRentalIncome:  net,
			MarginalRate:     marginal,
			Tax:              tax,
			AfterTaxCashFlow: p.NetCashFlow - tax,
			CumulativeTax:    cumulative,
		})

		if i == 0 {
			snap, err := c.snapshot(profile, analysis, interest, cca[0].Claim, marginal, tax)
			if err != nil {
				return TaxImpact{}, err
			}
			impact.Snapshot = snap
		}
	}

	disposition, err := c.disposition(inputs, profile, assumptions, buildingValue, cca)
	if err != nil {
		return TaxImpact{}, err
	}
	impact.Disposition = disposition
	impact.TotalTax = cumulative + disposition.TotalTax

	c.logger.Debug("computed tax impact",
		zap.String("op", "incometax.Analyze"),
		zap.String("property", inputs.Name),
		zap.Float64("firstYearTax", impact.Snapshot.RentalTax),
		zap.Float64("dispositionTax", disposition.TotalTax),
	)
	return impact, nil
}

func (c *Calculator) snapshot(profile TaxProfile, analysis deal.DealAnalysis, interest, cca, marginal, tax float64) (Snapshot, error) {
	s := Snapshot{
		RentalIncome:      analysis.Revenue.AnnualEffectiveIncome,
		OperatingExpenses: analysis.Expenses.AnnualOperating,
		MortgageInterest:  interest,
		CCA:               cca,
		MarginalRate:      marginal,
		RentalTax:         tax,
		PreTaxCashFlow:    analysis.CashFlow.AnnualNet,
	}
	s.NetRentalIncome = s.RentalIncome - s.OperatingExpenses - s.MortgageInterest - s.CCA
	s.AfterTaxCashFlow = s.PreTaxCashFlow - s.RentalTax

	base, err := c.ProgressiveTax(profile.AnnualIncome, profile.Province)
	if err != nil {
		return Snapshot{}, err
	}
	with, err := c.ProgressiveTax(profile.AnnualIncome+math.Max(0, s.NetRentalIncome), profile.Province)
	if err != nil {
		return Snapshot{}, err
	}
	s.IncrementalTax = with.Total - base.Total
	return s, nil
}

// disposition taxes the inclusion share of the capital gain and fully taxes
// recaptured CCA, both at the marginal rate reached by adding them to income.
func (c *Calculator) disposition(inputs deal.PropertyInputs, profile TaxProfile, a metrics.Assumptions, buildingValue float64, cca []CCAYear) (Disposition, error) {
	years := a.HoldPeriodYears
	sale := inputs.PurchasePrice * math.Pow(1+a.AppreciationRate/constants.PercentageMultiplier, float64(years))
	d := Disposition{
		HoldYears:    years,
		SaleValue:    sale,
		AdjustedCost: inputs.PurchasePrice + inputs.RenovationBudget(),
	}
	d.CapitalGain = d.SaleValue - d.AdjustedCost
	d.TaxableGain = math.Max(0, d.CapitalGain) * c.tables.IncomeTax.CapitalGainsInclusion / constants.PercentageMultiplier

	ucc := buildingValue
	if len(cca) > 0 {
		ucc = cca[len(cca)-1].ClosingUCC
	}
	d.CCAClaimed = buildingValue - ucc
	buildingProceeds := mathutil.ApplyPercentage(sale, profile.BuildingValuePercent)
	d.CCARecapture = math.Max(0, math.Min(buildingValue, buildingProceeds)-ucc)

	marginal, err := c.MarginalTaxRate(profile.AnnualIncome+d.TaxableGain+d.CCARecapture, profile.Province)
	if err != nil {
		return Disposition{}, err
	}
	d.MarginalRate = marginal
	d.CapitalGainsTax = d.TaxableGain * marginal / constants.PercentageMultiplier
	d.RecaptureTax = d.CCARecapture * marginal / constants.PercentageMultiplier
	d.TotalTax = d.CapitalGainsTax + d.RecaptureTax
	d.AfterTaxGain = d.CapitalGain - d.TotalTax
	return d, nil
}
