package export

import (
	"bytes"
	"fmt"

	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	breakdownSheet = "Breakdown"
	documentSheet  = "Document"
)

// BreakdownWorkbook is the internal cost view of a quote plus the concepts
// the customer will see
type BreakdownWorkbook struct {
	Title     string
	Reference string
	Date      string
	Breakdown pricing.CostBreakdown
	Concepts  []pricing.PdfConcept
	Totals    pricing.PdfTotals
}

// GenerateBreakdownExcel writes the cost breakdown to an xlsx workbook with
// one sheet for the priced items and totals and one for the document concepts
func GenerateBreakdownExcel(data *BreakdownWorkbook) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), breakdownSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(documentSheet); err != nil {
		return nil, fmt.Errorf("create document sheet: %w", err)
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeBreakdownSheet(f, styles, data); err != nil {
		return nil, err
	}
	if err := writeDocumentSheet(f, styles, data); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetStyles struct {
	title, header, body, label, value, money int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	var s sheetStyles
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if s.body, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}); err != nil {
		return nil, fmt.Errorf("create body style: %w", err)
	}
	numFmt := "#,##0.00"
	if s.money, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &numFmt}); err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	if s.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return nil, fmt.Errorf("create label style: %w", err)
	}
	if s.value, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}, CustomNumFmt: &numFmt}); err != nil {
		return nil, fmt.Errorf("create value style: %w", err)
	}
	return &s, nil
}

func writeBreakdownSheet(f *excelize.File, s *sheetStyles, data *BreakdownWorkbook) error {
	sh := breakdownSheet
	widths := map[string]float64{"A": 36, "B": 12, "C": 10, "D": 14, "E": 14, "F": 14, "G": 14}
	for col, w := range widths {
		if err := f.SetColWidth(sh, col, col, w); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	f.SetCellValue(sh, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sh, "A1", "A1", s.title)
	f.SetCellValue(sh, "A2", "Ref: "+data.Reference)
	f.SetCellValue(sh, "A3", "Date: "+data.Date)

	headers := []string{"Item", "Kind", "Qty", "Unit price", "Total", "Cost", "Logistics"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		f.SetCellValue(sh, cell, h)
	}
	f.SetCellStyle(sh, "A5", "G5", s.header)

	r := 6
	for _, it := range data.Breakdown.Items {
		row := fmt.Sprint(r)
		f.SetCellValue(sh, "A"+row, sanitizeExcelCell(it.Name))
		f.SetCellValue(sh, "B"+row, it.Kind.String())
		f.SetCellValue(sh, "C"+row, it.EffectiveQuantity.InexactFloat64())
		f.SetCellValue(sh, "D"+row, money(it.UnitSalePrice))
		f.SetCellValue(sh, "E"+row, money(it.TotalPrice))
		f.SetCellValue(sh, "F"+row, money(it.Cost))
		f.SetCellValue(sh, "G"+row, money(it.Shipping.Add(it.Installation)))
		f.SetCellStyle(sh, "A"+row, "C"+row, s.body)
		f.SetCellStyle(sh, "D"+row, "G"+row, s.money)
		r++
	}

	b := data.Breakdown
	summary := []struct {
		label string
		value decimal.Decimal
	}{
		{"Items subtotal", b.Subtotal},
		{"Shipping", b.ShippingTotal},
		{"Installation", b.InstallationTotal},
		{"Transport", b.TransportCost},
		{"External rentals", b.ExternalRentalCost},
		{"Calculated total", b.CalculatedTotal},
		{"Sale price", b.SalePrice},
		{"Cost: material", b.CostMaterial},
		{"Cost: personnel", b.CostPersonnel},
		{"Cost: shipping and installation", b.CostShippingInstallation},
		{"Cost: depreciation", b.CostDepreciation},
		{"Total cost", b.TotalCost},
		{"Profit", b.Profit},
		{"Margin %", b.MarginPercent},
	}

	r++
	for _, line := range summary {
		row := fmt.Sprint(r)
		f.SetCellValue(sh, "D"+row, line.label)
		f.SetCellStyle(sh, "D"+row, "D"+row, s.label)
		f.SetCellValue(sh, "E"+row, money(line.value))
		f.SetCellStyle(sh, "E"+row, "E"+row, s.value)
		r++
	}

	if len(b.Advisories) > 0 {
		r++
		for _, a := range b.Advisories {
			row := fmt.Sprint(r)
			f.SetCellValue(sh, "A"+row, fmt.Sprintf("[%s] %s", a.Level, a.Message))
			r++
		}
	}
	return nil
}

func writeDocumentSheet(f *excelize.File, s *sheetStyles, data *BreakdownWorkbook) error {
	sh := documentSheet
	if err := f.SetColWidth(sh, "A", "A", 48); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}
	if err := f.SetColWidth(sh, "B", "B", 16); err != nil {
		return fmt.Errorf("set col width: %w", err)
	}

	f.SetCellValue(sh, "A1", "Concept")
	f.SetCellValue(sh, "B1", "Amount")
	f.SetCellStyle(sh, "A1", "B1", s.header)

	r := 2
	for _, c := range data.Concepts {
		row := fmt.Sprint(r)
		f.SetCellValue(sh, "A"+row, sanitizeExcelCell(c.Name))
		f.SetCellValue(sh, "B"+row, money(c.Price))
		f.SetCellStyle(sh, "A"+row, "A"+row, s.body)
		f.SetCellStyle(sh, "B"+row, "B"+row, s.money)
		r++
	}

	r++
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal", data.Totals.Subtotal},
		{"VAT " + FormatPercent(data.Totals.VATRate), data.Totals.Tax},
		{"Total", data.Totals.Total},
	}
	for _, t := range totals {
		row := fmt.Sprint(r)
		f.SetCellValue(sh, "A"+row, t.label)
		f.SetCellStyle(sh, "A"+row, "A"+row, s.label)
		f.SetCellValue(sh, "B"+row, money(t.value))
		f.SetCellStyle(sh, "B"+row, "B"+row, s.value)
		r++
	}
	return nil
}

// money converts to a float for the spreadsheet cell after rounding to cents
func money(d decimal.Decimal) float64 {
	return pricing.Round2(d).InexactFloat64()
}

// thinBorders returns thin borders on all four sides
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
