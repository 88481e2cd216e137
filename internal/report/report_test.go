package report

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/optimizer"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/incometax"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"go.uber.org/zap"
)

func sampleInputs() deal.PropertyInputs {
	return deal.PropertyInputs{
		Name:                      "Hamilton duplex",
		Province:                  rates.Ontario,
		City:                      "Hamilton",
		PurchasePrice:             299900,
		DownPaymentPercent:        20,
		InterestRate:              5.5,
		AmortizationYears:         25,
		MonthlyRent:               1800,
		VacancyRate:               5,
		PropertyTaxAnnual:         3000,
		InsuranceAnnual:           1200,
		PropertyManagementPercent: 8,
		MaintenancePercent:        10,
	}
}

func loadFixture(t *testing.T) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

func TestGenerate(t *testing.T) {
	conf := loadFixture(t)
	report, err := NewGenerator(zap.NewNop(), nil).Generate(context.Background(), conf)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if report.TaxYear != rates.Default().TaxYear {
		t.Errorf("TaxYear = %d", report.TaxYear)
	}
	if len(report.Warnings) != 2 {
		t.Errorf("expected the 2 configuration warnings, got %v", report.Warnings)
	}
	if len(report.Properties) != 2 {
		t.Fatalf("expected 2 active properties, got %d", len(report.Properties))
	}

	for _, pr := range report.Properties {
		t.Run(pr.Name, func(t *testing.T) {
			if pr.PropertyName() != pr.Name || pr.Inputs.Name != pr.Name {
				t.Errorf("name mismatch %q %q", pr.PropertyName(), pr.Inputs.Name)
			}
			if pr.Tax == nil {
				t.Error("expected an income tax analysis for the configured investor")
			}
			if len(pr.Advanced.Projections) != 5 {
				t.Errorf("expected a 5 year projection, got %d", len(pr.Advanced.Projections))
			}
			if a := pr.Advanced.Assumptions; a.SaleCostsPercent != 0 || a.AppreciationRate != 2 || a.RentGrowthRate != 3 {
				t.Errorf("configured assumptions not applied as given: %+v", a)
			}
			if len(pr.Risk.Factors) != 9 {
				t.Errorf("expected 9 risk factors, got %d", len(pr.Risk.Factors))
			}
			if len(pr.Optimizations) != 2 {
				t.Fatalf("expected 2 optimizer summaries, got %d", len(pr.Optimizations))
			}
			for _, s := range pr.Optimizations {
				if s.Target != 100 {
					t.Errorf("%s target = %.2f, expected 100", s.Field, s.Target)
				}
			}
		})
	}

	ottawa := report.Properties[1]
	if ottawa.Inputs.Province != rates.Ontario {
		t.Errorf("province not normalized: %q", ottawa.Inputs.Province)
	}
	if ottawa.Analysis.BRRRR != nil {
		t.Error("BRRRR without an after repair value should omit the refinance block")
	}
}

func TestGenerateWithoutInvestorOrOptimizer(t *testing.T) {
	conf := &config.Configuration{
		Properties: []config.Property{config.FromPropertyInputs(sampleInputs())},
	}
	report, err := NewGenerator(nil, rates.Default()).Generate(context.Background(), conf)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	pr := report.Properties[0]
	if pr.Tax != nil || len(pr.Optimizations) != 0 {
		t.Errorf("expected no tax or optimizer results, got %+v %+v", pr.Tax, pr.Optimizations)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("unexpected configuration warnings %v", report.Warnings)
	}
	if len(pr.Warnings) != len(pr.Analysis.Warnings)+len(pr.Advanced.Warnings) {
		t.Errorf("property warnings should combine analysis and metrics warnings: %v", pr.Warnings)
	}
}

func TestGenerateErrors(t *testing.T) {
	g := NewGenerator(nil, nil)

	if _, err := g.Generate(context.Background(), nil); err == nil {
		t.Error("expected an error for a nil configuration")
	}

	bad := sampleInputs()
	bad.Province = "YT"
	conf := &config.Configuration{Properties: []config.Property{config.FromPropertyInputs(bad)}}
	_, err := g.Generate(context.Background(), conf)
	if !validation.IsInputError(err) {
		t.Fatalf("expected a wrapped InputError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Hamilton duplex") {
		t.Errorf("error should name the property: %v", err)
	}

	conf.Investor = &config.InvestorConfig{AnnualIncome: -5}
	conf.Properties[0] = config.FromPropertyInputs(sampleInputs())
	if _, err := g.Generate(context.Background(), conf); !validation.IsInputError(err) {
		t.Errorf("expected an InputError for a bad investor profile, got %v", err)
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(nil, nil).Generate(ctx, loadFixture(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	_, err = NewGenerator(nil, nil).GenerateProperty(ctx, Request{Inputs: sampleInputs()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateProperty() expected context.Canceled, got %v", err)
	}
}

func TestGeneratePropertyMatchesCalculators(t *testing.T) {
	inputs := sampleInputs()
	profile := incometax.TaxProfile{AnnualIncome: 100000}
	pr, err := NewGenerator(nil, nil).GenerateProperty(context.Background(), Request{
		Inputs:    inputs,
		Investor:  &profile,
		Optimizer: &optimizer.Options{},
	})
	if err != nil {
		t.Fatalf("GenerateProperty() error = %v", err)
	}

	direct, err := deal.NewAnalyzer(nil, nil).Analyze(inputs)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if pr.Analysis.CashFlow.MonthlyNet != direct.CashFlow.MonthlyNet || pr.Analysis.Scoring.Score != direct.Scoring.Score {
		t.Error("report analysis differs from a direct analyzer run")
	}
	if pr.BreakEven.Shortfall != -direct.CashFlow.MonthlyNet {
		t.Errorf("Shortfall = %.2f", pr.BreakEven.Shortfall)
	}
	if pr.Tax == nil || pr.Tax.Profile.Province != rates.Ontario {
		t.Errorf("tax profile should default to the property province: %+v", pr.Tax)
	}
}

func TestGenerateConcurrent(t *testing.T) {
	g := NewGenerator(nil, nil)
	conf := loadFixture(t)
	conf.Optimizer.Enabled = false

	var wg sync.WaitGroup
	scores := make([]int, 8)
	errs := make([]error, 8)
	for i := range scores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report, err := g.Generate(context.Background(), conf)
			if err != nil {
				errs[i] = err
				return
			}
			scores[i] = report.Properties[0].Analysis.Scoring.Score
		}(i)
	}
	wg.Wait()

	for i := range scores {
		if errs[i] != nil {
			t.Fatalf("Generate() error = %v", errs[i])
		}
		if scores[i] != scores[0] {
			t.Errorf("run %d score %d differs from %d", i, scores[i], scores[0])
		}
	}
}
