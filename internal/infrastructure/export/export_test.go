package export

import (
	"bytes"
	"testing"

	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestFormatEUR(t *testing.T) {
	tests := []struct {
		in, expect string
	}{
		{"0", "0,00 €"},
		{"181.5", "181,50 €"},
		{"1234.567", "1.234,57 €"},
		{"1000000", "1.000.000,00 €"},
		{"-45.1", "-45,10 €"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatEUR(decimal.RequireFromString(tt.in)); got != tt.expect {
				t.Errorf("FormatEUR(%s) = %q, want %q", tt.in, got, tt.expect)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(decimal.RequireFromString("0.21")); got != "21%" {
		t.Errorf("FormatPercent(0.21) = %q", got)
	}
	if got := FormatPercent(decimal.RequireFromString("0.105")); got != "10.5%" {
		t.Errorf("FormatPercent(0.105) = %q", got)
	}
}

func TestPaymentTerms(t *testing.T) {
	terms := PaymentTerms(pricing.DefaultConfig())
	want := []string{
		"25% on booking",
		"50% one month before the event",
		"25% on the day of the event",
	}
	if len(terms) != len(want) {
		t.Fatalf("PaymentTerms = %v", terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("PaymentTerms[%d] = %q, want %q", i, terms[i], want[i])
		}
	}
}

func sampleDocument() *QuoteDocument {
	engine := pricing.NewEngine(pricing.DefaultConfig())
	concepts := []pricing.PdfConcept{
		{Name: "Sound system", Price: decimal.NewFromInt(100)},
		{Name: "Lighting", Price: decimal.NewFromInt(50)},
	}
	return &QuoteDocument{
		Company:       Company{Name: "Resona Eventos", TaxID: "B12345678", Email: "hola@resona.test"},
		Title:         "Wedding quote",
		Reference:     "QR-000001",
		Date:          "18/10/2026",
		ClientName:    "Lucía Pérez",
		ClientEmail:   "lucia@example.com",
		EventType:     "Wedding",
		EventDate:     "12/06/2027",
		EventLocation: "Valencia",
		Attendees:     120,
		DurationLabel: "2 days",
		Concepts:      concepts,
		Totals:        engine.ComputePdfTotals(concepts),
		PaymentTerms:  PaymentTerms(pricing.DefaultConfig()),
		FooterMessage: "Thank you for trusting us",
	}
}

func TestGenerateQuotePDF(t *testing.T) {
	result, err := GenerateQuotePDF(sampleDocument())
	if err != nil {
		t.Fatalf("GenerateQuotePDF() error = %v", err)
	}
	if len(result) < 5 || string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header")
	}
}

func TestGenerateQuotePDF_Minimal(t *testing.T) {
	result, err := GenerateQuotePDF(&QuoteDocument{Reference: "QR-000002"})
	if err != nil {
		t.Fatalf("GenerateQuotePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateQuotePDF() returned empty bytes")
	}
}

func TestGenerateBreakdownExcel(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultConfig())
	items := []pricing.LineItem{
		{Name: "=cmd()", Kind: enum.ItemKindProduct, UnitSalePrice: decimal.NewFromInt(300), UnitPurchasePrice: decimal.NewFromInt(2000), Quantity: 1},
		{Name: "Waiters", Kind: enum.ItemKindPersonnel, UnitSalePrice: decimal.NewFromInt(25), UnitPurchasePrice: decimal.NewFromInt(15), PeopleCount: 2, HoursPerPerson: decimal.NewFromInt(4)},
	}
	b := engine.ComputeCostBreakdown(items, pricing.Overrides{CustomFinalPrice: func() *decimal.Decimal { d := decimal.NewFromInt(100); return &d }()})
	concepts := pricing.ConceptsFromItems(b)

	result, err := GenerateBreakdownExcel(&BreakdownWorkbook{
		Title:     "Wedding",
		Reference: "QR-000003",
		Date:      "18/10/2026",
		Breakdown: b,
		Concepts:  concepts,
		Totals:    engine.ComputePdfTotals(concepts),
	})
	if err != nil {
		t.Fatalf("GenerateBreakdownExcel() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != breakdownSheet || sheets[1] != documentSheet {
		t.Fatalf("sheets = %v", sheets)
	}

	name, _ := f.GetCellValue(breakdownSheet, "A6")
	if name != "'=cmd()" {
		t.Errorf("formula-like item name not sanitized: %q", name)
	}
	kind, _ := f.GetCellValue(breakdownSheet, "B7")
	if kind != enum.ItemKindPersonnel.String() {
		t.Errorf("B7 = %q", kind)
	}

	concept, _ := f.GetCellValue(documentSheet, "A3")
	if concept != "Waiters" {
		t.Errorf("document concept = %q", concept)
	}

	rows, err := f.GetRows(breakdownSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	var advisory bool
	for _, r := range rows {
		if len(r) > 0 && len(r[0]) > 7 && r[0][:7] == "[error]" {
			advisory = true
		}
	}
	if !advisory {
		t.Errorf("negative profit advisory missing from sheet")
	}
}
