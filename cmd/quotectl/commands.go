package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/resona/rental-api/internal/application/service"
	"github.com/resona/rental-api/internal/config"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/resona/rental-api/internal/infrastructure/export"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Price rental quotes offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBreakdownCmd(), newPDFCmd(), newXLSXCmd())
	return root
}

func newBreakdownCmd() *cobra.Command {
	var draftFile string
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Print the cost breakdown and advisories of a draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			calculator, draft, err := load(draftFile)
			if err != nil {
				return err
			}
			calc, err := calculator.Calculate(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return printCalculation(cmd.OutOrStdout(), calc)
		},
	}
	cmd.Flags().StringVarP(&draftFile, "file", "f", "", "draft JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPDFCmd() *cobra.Command {
	var draftFile, output string
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Render the customer document of a draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			calculator, draft, err := load(draftFile)
			if err != nil {
				return err
			}
			data, err := calculator.RenderDraftPDF(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return writeFile(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&draftFile, "file", "f", "", "draft JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "quote.pdf", "output file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newXLSXCmd() *cobra.Command {
	var draftFile, output string
	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Export the cost breakdown spreadsheet of a draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			calculator, draft, err := load(draftFile)
			if err != nil {
				return err
			}
			data, err := calculator.ExportBreakdownXLSX(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return writeFile(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&draftFile, "file", "f", "", "draft JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "breakdown.xlsx", "output file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// load reads the draft and builds a calculator from the server configuration.
// Drafts carry resolved line items, so no catalog is needed.
func load(draftFile string) (*service.QuoteCalculatorService, *service.QuoteDraft, error) {
	raw, err := os.ReadFile(draftFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read draft: %w", err)
	}
	var draft service.QuoteDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, nil, fmt.Errorf("parse draft: %w", err)
	}

	cfg := config.Load()
	calculator := service.NewQuoteCalculatorService(nil, pricing.NewEngine(cfg.Pricing), export.Company{
		Name:    cfg.Company.Name,
		TaxID:   cfg.Company.TaxID,
		Address: cfg.Company.Address,
		Phone:   cfg.Company.Phone,
		Email:   cfg.Company.Email,
		Website: cfg.Company.Website,
	})
	return calculator, &draft, nil
}

func writeFile(cmd *cobra.Command, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func printCalculation(out io.Writer, calc *service.QuoteCalculation) error {
	b := calc.Breakdown
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ITEM\tKIND\tQTY\tTOTAL\tCOST")
	for _, it := range b.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.Name, it.Kind, it.EffectiveQuantity.String(),
			export.FormatEUR(it.TotalPrice), export.FormatEUR(it.Cost))
	}
	fmt.Fprintln(w)

	rows := []struct {
		label string
		value string
	}{
		{"Subtotal", export.FormatEUR(b.Subtotal)},
		{"Calculated total", export.FormatEUR(b.CalculatedTotal)},
		{"Total cost", export.FormatEUR(b.TotalCost)},
		{"Sale price", export.FormatEUR(b.SalePrice)},
		{"Profit", export.FormatEUR(b.Profit)},
		{"Margin", b.MarginPercent.StringFixed(2) + " %"},
		{"Document total", export.FormatEUR(calc.Totals.Total)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r.label, r.value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, a := range b.Advisories {
		fmt.Fprintf(out, "[%s] %s\n", a.Level, a.Message)
	}
	return nil
}
