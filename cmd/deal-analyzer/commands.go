package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/subcommands"
	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/report"
	"github.com/iwvelando/deal-analyzer/internal/server"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// commands lists the subcommands, writing their results to out.
func commands(out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&analyzeCmd{out: out},
		&serveCmd{},
		&ratesCmd{out: out},
	}
}

type analyzeCmd struct {
	out            io.Writer
	configLocation string
	outputFormat   string
	logLevel       string
	rateTables     string
}

func (*analyzeCmd) Name() string { return "analyze" }
func (*analyzeCmd) Synopsis() string {
	return "analyze every active property in a configuration file"
}
func (*analyzeCmd) Usage() string {
	return `deal-analyzer analyze [-config <file>] [-output-format <format>] [-log-level <level>] [-rate-tables <file>]

  Runs the deal analysis, projections, risk, break-even and optional income
  tax and optimizer sections for each active property and prints the report.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	f.StringVar(&c.outputFormat, "output-format", "", "type of output override: pretty, csv, json, markdown")
	f.StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	f.StringVar(&c.rateTables, "rate-tables", "", "rate table file override")
}

func (c *analyzeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	conf, err := config.LoadConfiguration(c.configLocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main.analyze\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", c.configLocation, err)
		return subcommands.ExitFailure
	}

	logger, err := conf.Logging.NewLogger(c.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main.analyze\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if c.outputFormat != "" {
		outputFormat = c.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Error(err.Error(), zap.String("op", "main.analyze"))
		return subcommands.ExitUsageError
	}

	if c.rateTables != "" {
		conf.RateTablesFile = c.rateTables
	}
	tables, err := conf.LoadRateTables()
	if err != nil {
		logger.Error("failed to load rate tables",
			zap.String("op", "main.analyze"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}

	result, err := report.NewGenerator(logger, tables).Generate(ctx, conf)
	if err != nil {
		logger.Error("failed to analyze properties",
			zap.String("op", "main.analyze"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}
	for _, warning := range result.Warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.analyze"),
		)
	}

	if err := output.Write(c.out, outputFormat, result); err != nil {
		logger.Error("failed to write report",
			zap.String("op", "main.analyze"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type serveCmd struct {
	serverConfig string
	address      string
	logLevel     string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the analysis API over HTTP" }
func (*serveCmd) Usage() string {
	return `deal-analyzer serve [-server-config <file>] [-address <host:port>] [-log-level <level>]

  Starts the HTTP API. A missing server configuration file uses the defaults.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.serverConfig, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	f.StringVar(&c.address, "address", "", "listen address override")
	f.StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := server.LoadConfig(c.serverConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main.serve\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", c.serverConfig, err)
		return subcommands.ExitFailure
	}
	if c.address != "" {
		cfg.Address = c.address
	}

	logger, err := cfg.Logging.NewLogger(c.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main.serve\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, logger, cfg, version); err != nil {
		logger.Error("server stopped",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type ratesCmd struct {
	out        io.Writer
	province   string
	format     string
	rateTables string
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "print the rate tables in effect" }
func (*ratesCmd) Usage() string {
	return `deal-analyzer rates [-province <code>] [-format yaml|json] [-rate-tables <file>]

  Prints the built-in rate tables, or those loaded from -rate-tables. The
  output can be edited and passed back with rateTablesFile.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.province, "province", "", "limit output to one province (ON, BC, AB, NS, QC)")
	f.StringVar(&c.format, "format", "yaml", "output format: yaml or json")
	f.StringVar(&c.rateTables, "rate-tables", "", "rate table file to print instead of the built-in tables")
}

// provinceTables is the per-province slice of the rate tables.
type provinceTables struct {
	Province     rates.Province  `yaml:"province" json:"province"`
	Name         string          `yaml:"name" json:"name"`
	TaxYear      int             `yaml:"taxYear" json:"taxYear"`
	LandTransfer *rates.LTTTable `yaml:"landTransfer,omitempty" json:"landTransfer,omitempty"`
	IncomeTax    *rates.Schedule `yaml:"incomeTax,omitempty" json:"incomeTax,omitempty"`
}

func (c *ratesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tables, err := rates.Resolve(c.rateTables)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var payload interface{} = tables
	if strings.TrimSpace(c.province) != "" {
		province, ok := rates.ParseProvince(c.province)
		if !ok {
			fmt.Fprintf(os.Stderr, "unsupported province %q, expected one of %v\n", c.province, rates.Provinces)
			return subcommands.ExitUsageError
		}
		pt := provinceTables{Province: province, Name: province.Name(), TaxYear: tables.TaxYear}
		if ltt, ok := tables.LandTransfer[province]; ok {
			pt.LandTransfer = &ltt
		}
		if schedule, ok := tables.ProvincialTax(province); ok {
			pt.IncomeTax = &schedule
		}
		payload = pt
	}

	switch c.format {
	case "yaml":
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if err := enc.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	default:
		fmt.Fprintf(os.Stderr, "unsupported format %q, expected yaml or json\n", c.format)
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}
