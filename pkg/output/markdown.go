package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/iwvelando/deal-analyzer/internal/report"
	"github.com/iwvelando/deal-analyzer/pkg/format"
)

// MarkdownWordWrap is the terminal width the markdown renderer wraps at.
const MarkdownWordWrap = 100

// MarkdownDocument builds the markdown source for r.
func MarkdownDocument(r *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Deal analysis (%d rate tables)\n\n", r.TaxYear)

	for _, pr := range r.Properties {
		a := pr.Analysis
		fmt.Fprintf(&b, "## %s\n\n", pr.Name)
		fmt.Fprintf(&b, "%s, %s. Score **%d/100 (%s)**, risk **%s**.\n\n",
			a.Inputs.City, a.Inputs.Province.Name(), a.Scoring.Score, a.Scoring.Grade, pr.Risk.Level)

		b.WriteString("| Metric | Value |\n|---|---|\n")
		row := func(label, value string) {
			fmt.Fprintf(&b, "| %s | %s |\n", label, value)
		}
		row("Purchase price", format.Currency(a.Acquisition.PurchasePrice))
		row("Down payment", format.Currency(a.Acquisition.DownPayment))
		row("Land transfer tax", format.Currency(a.Acquisition.LandTransferTax.NetTax))
		row("Total mortgage", format.Currency(a.Financing.TotalMortgage))
		row("Monthly payment", format.Currency(a.Financing.MonthlyPayment))
		row("Monthly cash flow", format.Currency(a.CashFlow.MonthlyNet))
		row("Cap rate", format.Percent(a.Metrics.CapRate))
		row("Cash on cash", format.Percent(a.Metrics.CashOnCashReturn))
		row("DSCR", format.Ratio(a.Metrics.DSCR))
		row("IRR", format.Percent(pr.Advanced.IRR))
		row("NPV", format.Currency(pr.Advanced.NPV))
		row("Break-even rent", format.Currency(pr.BreakEven.RequiredRent))
		b.WriteString("\n")

		if len(a.Scoring.Reasons) > 0 {
			b.WriteString("### Scoring\n\n")
			for _, reason := range a.Scoring.Reasons {
				fmt.Fprintf(&b, "- %s\n", reason)
			}
			b.WriteString("\n")
		}
		if len(pr.Risk.Recommendations) > 0 {
			b.WriteString("### Recommendations\n\n")
			for _, rec := range pr.Risk.Recommendations {
				fmt.Fprintf(&b, "- %s\n", rec)
			}
			b.WriteString("\n")
		}
		if len(pr.Warnings) > 0 {
			b.WriteString("### Warnings\n\n")
			for _, warning := range pr.Warnings {
				fmt.Fprintf(&b, "- %s\n", warning)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Configuration warnings\n\n")
		for _, warning := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
	}
	return b.String()
}

// MarkdownFormat renders the markdown document for the terminal.
func MarkdownFormat(w io.Writer, r *report.Report) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(MarkdownWordWrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(MarkdownDocument(r))
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}
