// Package constants provides shared constants for the deal-analyzer application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Analysis defaults
const (
	// DefaultTaxYear is the tax year of the built-in rate tables
	DefaultTaxYear = 2024

	// BRRRRRefinanceLTV is the loan-to-value used when refinancing a BRRRR deal
	BRRRRRefinanceLTV = 75.0

	// BRRRRSeasoningYears is the elapsed time before the BRRRR refinance
	BRRRRSeasoningYears = 1.0

	// MaxAmortizationYears is the longest amortization accepted on input
	MaxAmortizationYears = 40

	// MaxInterestRate is the highest contract rate accepted on input (percent)
	MaxInterestRate = 25.0
)

// Advisory thresholds used when deriving warnings
const (
	// LowDSCRThreshold flags debt coverage below this ratio
	LowDSCRThreshold = 1.2

	// HighLTVThreshold flags loan-to-value above this percent
	HighLTVThreshold = 80.0

	// HighExpenseRatioThreshold flags operating expense ratios above this percent
	HighExpenseRatioThreshold = 50.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON emits the full report records as JSON
	OutputFormatJSON = "json"

	// OutputFormatMarkdown renders the report as markdown in the terminal
	OutputFormatMarkdown = "markdown"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
