package taxrules

import (
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/deal-analyzer/pkg/amortization"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
)

func TestCMHCInsurance(t *testing.T) {
	rules := New(rates.Default())

	tests := []struct {
		name              string
		price             float64
		downPercent       float64
		expectedRate      float64
		expectedPremium   float64
		insuranceRequired bool
		eligible          bool
	}{
		{"Twenty percent down needs no insurance", 299900, 20, 0, 0, false, true},
		{"Fifteen percent lower bound", 400000, 15, 2.80, 9520, true, true},
		{"Ten percent lower bound", 500000, 10, 3.10, 13950, true, true},
		{"Just below ten percent", 500000, 9.99, 4.00, 500000 * 0.9001 * 0.04, true, true},
		{"Minimum down", 400000, 5, 4.00, 15200, true, true},
		{"Above price cap with low down", 1200000, 10, 0, 0, false, false},
		{"Above price cap with twenty percent", 1200000, 20, 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rules.CMHCInsurance(tt.price, tt.downPercent)
			if err != nil {
				t.Fatalf("CMHCInsurance() error = %v", err)
			}
			if result.PremiumRate != tt.expectedRate {
				t.Errorf("PremiumRate = %.2f, expected %.2f", result.PremiumRate, tt.expectedRate)
			}
			if math.Abs(result.Premium-tt.expectedPremium) > 0.01 {
				t.Errorf("Premium = %.2f, expected %.2f", result.Premium, tt.expectedPremium)
			}
			if result.InsuranceRequired != tt.insuranceRequired {
				t.Errorf("InsuranceRequired = %v, expected %v", result.InsuranceRequired, tt.insuranceRequired)
			}
			if result.Eligible != tt.eligible {
				t.Errorf("Eligible = %v, expected %v", result.Eligible, tt.eligible)
			}
			if math.Abs(result.TotalMortgage-(result.MortgageAmount+result.Premium)) > 1e-9 {
				t.Errorf("TotalMortgage %.2f != mortgage %.2f + premium %.2f",
					result.TotalMortgage, result.MortgageAmount, result.Premium)
			}
		})
	}
}

func TestCMHCIneligibleCarriesMessage(t *testing.T) {
	result, err := New(nil).CMHCInsurance(1500000, 10)
	if err != nil {
		t.Fatalf("ineligible purchase must not be an error, got %v", err)
	}
	if result.Message == "" || !strings.Contains(result.Message, "$1,000,000") {
		t.Errorf("expected explanatory message, got %q", result.Message)
	}
}

func TestCMHCRejectsLowDownPayment(t *testing.T) {
	rules := New(nil)
	for _, down := range []float64{0, 4.99, -5} {
		_, err := rules.CMHCInsurance(400000, down)
		if err == nil {
			t.Fatalf("expected error for %.2f%% down", down)
		}
		if !validation.IsInputError(err) {
			t.Errorf("expected InputError for %.2f%% down, got %T", down, err)
		}
	}
}

func TestCMHCPremiumRateMonotonic(t *testing.T) {
	rules := New(nil)
	previous := math.Inf(1)
	for down := 5.0; down <= 25; down += 0.5 {
		result, err := rules.CMHCInsurance(600000, down)
		if err != nil {
			t.Fatalf("CMHCInsurance(%.1f) error = %v", down, err)
		}
		if result.PremiumRate > previous {
			t.Errorf("premium rate increased from %.2f to %.2f at %.1f%% down", previous, result.PremiumRate, down)
		}
		if down >= 20 && result.Premium != 0 {
			t.Errorf("expected zero premium at %.1f%% down, got %.2f", down, result.Premium)
		}
		previous = result.PremiumRate
	}
}

func TestLandTransferTax(t *testing.T) {
	rules := New(rates.Default())

	tests := []struct {
		name           string
		price          float64
		province       rates.Province
		city           string
		firstTimeBuyer bool
		expectedTotal  float64
		expectedRebate float64
		expectedNet    float64
	}{
		{"Ontario outside Toronto", 299900, rates.Ontario, "Hamilton", false, 2973.50, 0, 2973.50},
		{"Toronto adds municipal tax", 500000, rates.Ontario, "Toronto", false, 12950, 0, 12950},
		{"Toronto first-time buyer", 500000, rates.Ontario, "toronto", true, 12950, 8475, 4475},
		{"Rebate capped by tax", 200000, rates.Ontario, "Ottawa", true, 1725, 1725, 0},
		{"British Columbia first-time buyer", 600000, rates.BritishColumbia, "Vancouver", true, 10000, 8000, 2000},
		{"Alberta has no transfer tax", 450000, rates.Alberta, "Calgary", true, 0, 0, 0},
		{"Nova Scotia flat rate", 300000, rates.NovaScotia, "Halifax", false, 4500, 0, 4500},
		{"Quebec welcome tax", 300000, rates.Quebec, "Montreal", false, 2843, 0, 2843},
		{"Toronto name outside Ontario ignored", 300000, rates.Quebec, "Toronto", false, 2843, 0, 2843},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rules.LandTransferTax(tt.price, tt.province, tt.city, tt.firstTimeBuyer)
			if err != nil {
				t.Fatalf("LandTransferTax() error = %v", err)
			}
			if math.Abs(result.TotalTax-tt.expectedTotal) > 0.001 {
				t.Errorf("TotalTax = %.2f, expected %.2f", result.TotalTax, tt.expectedTotal)
			}
			if math.Abs(result.Rebate-tt.expectedRebate) > 0.001 {
				t.Errorf("Rebate = %.2f, expected %.2f", result.Rebate, tt.expectedRebate)
			}
			if math.Abs(result.NetTax-tt.expectedNet) > 0.001 {
				t.Errorf("NetTax = %.2f, expected %.2f", result.NetTax, tt.expectedNet)
			}
			if len(result.Breakdown) == 0 {
				t.Error("expected an itemized breakdown")
			}
			if last := result.Breakdown[len(result.Breakdown)-1]; last.Amount != result.NetTax {
				t.Errorf("breakdown should end with the net tax, got %+v", last)
			}
		})
	}
}

func TestLandTransferTaxBreakdownText(t *testing.T) {
	result, err := New(nil).LandTransferTax(500000, rates.Ontario, "Toronto", true)
	if err != nil {
		t.Fatalf("LandTransferTax() error = %v", err)
	}
	text := result.BreakdownText()
	for _, want := range []string{"Ontario land transfer tax", "Toronto municipal", "first-time buyer rebate", "-$4,475.00", "Net land transfer tax: $4,475.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("breakdown missing %q:\n%s", want, text)
		}
	}
}

func TestLandTransferTaxNeverNegative(t *testing.T) {
	rules := New(nil)
	cities := []string{"", "Toronto", "Vancouver"}
	for _, province := range rates.Provinces {
		for _, city := range cities {
			for price := 50000.0; price <= 3500000; price += 150000 {
				for _, ftb := range []bool{false, true} {
					result, err := rules.LandTransferTax(price, province, city, ftb)
					if err != nil {
						t.Fatalf("LandTransferTax(%.0f, %s, %q, %v) error = %v", price, province, city, ftb, err)
					}
					if result.NetTax < 0 {
						t.Errorf("negative net tax %.2f for %.0f %s %q %v", result.NetTax, price, province, city, ftb)
					}
				}
			}
		}
	}
}

func TestLandTransferTaxErrors(t *testing.T) {
	rules := New(nil)
	if _, err := rules.LandTransferTax(500000, rates.Province("MB"), "", false); !validation.IsInputError(err) {
		t.Errorf("expected InputError for unsupported province, got %v", err)
	}
	if _, err := rules.LandTransferTax(0, rates.Ontario, "", false); !validation.IsInputError(err) {
		t.Errorf("expected InputError for zero price, got %v", err)
	}
}

func TestStressTest(t *testing.T) {
	rules := New(nil)

	tests := []struct {
		name               string
		contractRate       float64
		expectedQualifying float64
	}{
		{"Buffer applies", 5.5, 7.5},
		{"Floor applies", 2.5, 5.25},
		{"Boundary", 3.25, 5.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := rules.StressTest(400000, tt.contractRate, 25)
			if result.QualifyingRate != tt.expectedQualifying {
				t.Errorf("QualifyingRate = %.2f, expected %.2f", result.QualifyingRate, tt.expectedQualifying)
			}
			expectedContract := amortization.MonthlyPayment(400000, tt.contractRate, 25)
			if result.ContractPayment != expectedContract {
				t.Errorf("ContractPayment = %.2f, expected %.2f", result.ContractPayment, expectedContract)
			}
			if result.QualifyingPayment <= result.ContractPayment {
				t.Errorf("qualifying payment %.2f should exceed contract payment %.2f",
					result.QualifyingPayment, result.ContractPayment)
			}
		})
	}
}

func TestStressTestZeroRate(t *testing.T) {
	result := New(nil).StressTest(120000, 0, 10)
	if result.ContractPayment != 1000 {
		t.Errorf("zero-rate payment = %.2f, expected 1000", result.ContractPayment)
	}
}

func TestMortgageBalance(t *testing.T) {
	rules := New(nil)
	if got := rules.MortgageBalance(239920, 5.5, 25, 0); got != 239920 {
		t.Errorf("balance at 0 years = %.2f", got)
	}
	if got := rules.MortgageBalance(239920, 5.5, 25, 25); math.Abs(got) > 0.01 {
		t.Errorf("balance at maturity = %.4f", got)
	}
	oneYear := rules.MortgageBalance(239920, 5.5, 25, 1)
	if oneYear >= 239920 || oneYear < 230000 {
		t.Errorf("balance after one year = %.2f, expected a modest reduction", oneYear)
	}
}
