package export

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Company is the issuer identity printed in the document header
type Company struct {
	Name    string
	TaxID   string
	Address string
	Phone   string
	Email   string
	Website string
}

// QuoteDocument is everything the customer quote PDF shows
type QuoteDocument struct {
	Company   Company
	Title     string
	Reference string
	Date      string

	ClientName  string
	ClientEmail string
	ClientPhone string

	EventType     string
	EventDate     string
	EventLocation string
	Attendees     int
	DurationLabel string
	Concepts      []pricing.PdfConcept
	Totals        pricing.PdfTotals
	PaymentTerms  []string
	FooterMessage string
}

var (
	mutedColor  = &props.Color{Red: 100, Green: 100, Blue: 100}
	accentColor = &props.Color{Red: 33, Green: 37, Blue: 41}
	white       = &props.Color{Red: 255, Green: 255, Blue: 255}
	lightBg     = &props.Color{Red: 245, Green: 245, Blue: 245}
	altRowBg    = &props.Color{Red: 248, Green: 249, Blue: 250}
)

// GenerateQuotePDF renders the one-page customer quote and returns the raw
// PDF bytes
func GenerateQuotePDF(doc *QuoteDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		Build()

	m := maroto.New(cfg)

	addQuoteHeader(m, doc)
	addClientAndEvent(m, doc)
	addConceptTable(m, doc)
	addTaxBox(m, doc)
	addPaymentTerms(m, doc)
	addFooter(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quote PDF: %w", err)
	}
	return out.GetBytes(), nil
}

func addQuoteHeader(m core.Maroto, doc *QuoteDocument) {
	title := doc.Title
	if title == "" {
		title = "QUOTE"
	}

	m.AddRows(
		row.New(10).Add(
			col.New(7).Add(text.New(doc.Company.Name, props.Text{
				Size:  15,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
			col.New(5).Add(text.New(strings.ToUpper(title), props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Right,
				Color: accentColor,
			})),
		),
	)

	identity := joinNonEmpty([]string{doc.Company.TaxID, doc.Company.Address}, " | ")
	contact := joinNonEmpty([]string{doc.Company.Phone, doc.Company.Email, doc.Company.Website}, " | ")
	small := props.Text{Size: 8, Align: align.Left, Color: mutedColor}
	right := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	m.AddRows(
		row.New(6).Add(
			col.New(7).Add(text.New(identity, small)),
			col.New(5).Add(text.New("Ref: "+doc.Reference, right)),
		),
		row.New(6).Add(
			col.New(7).Add(text.New(contact, small)),
			col.New(5).Add(text.New("Date: "+doc.Date, props.Text{Size: 9, Align: align.Right})),
		),
		row.New(4),
	)
}

func addClientAndEvent(m core.Maroto, doc *QuoteDocument) {
	section := props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: mutedColor}
	value := props.Text{Size: 9, Align: align.Left}
	bold := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Left}
	headerCell := &props.Cell{BackgroundColor: lightBg}

	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New("CLIENT", section)).WithStyle(headerCell),
			col.New(6).Add(text.New("EVENT", section)).WithStyle(headerCell),
		),
		row.New(6).Add(
			col.New(6).Add(text.New(doc.ClientName, bold)),
			col.New(6).Add(text.New(doc.EventType, bold)),
		),
		row.New(6).Add(
			col.New(6).Add(text.New(doc.ClientEmail, value)),
			col.New(6).Add(text.New(joinNonEmpty([]string{doc.EventDate, doc.DurationLabel}, " · "), value)),
		),
	)

	attendees := ""
	if doc.Attendees > 0 {
		attendees = fmt.Sprintf("%d attendees", doc.Attendees)
	}
	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(text.New(doc.ClientPhone, value)),
			col.New(6).Add(text.New(joinNonEmpty([]string{doc.EventLocation, attendees}, " · "), value)),
		),
		row.New(4),
	)
}

func addConceptTable(m core.Maroto, doc *QuoteDocument) {
	headerText := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left, Color: white}
	headerRight := headerText
	headerRight.Align = align.Right
	headerCell := &props.Cell{BackgroundColor: accentColor}

	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(text.New("Concept", headerText)).WithStyle(headerCell),
			col.New(3).Add(text.New("Amount", headerRight)).WithStyle(headerCell),
		),
	)

	for i, c := range doc.Concepts {
		name := col.New(9).Add(text.New(c.Name, props.Text{Size: 9, Align: align.Left}))
		price := col.New(3).Add(text.New(FormatEUR(pricing.Round2(c.Price)), props.Text{Size: 9, Align: align.Right}))
		if i%2 == 1 {
			cell := &props.Cell{BackgroundColor: altRowBg}
			name = name.WithStyle(cell)
			price = price.WithStyle(cell)
		}
		m.AddRows(row.New(7).Add(name, price))
	}

	m.AddRows(row.New(3))
}

func addTaxBox(m core.Maroto, doc *QuoteDocument) {
	summaryCell := &props.Cell{BackgroundColor: lightBg}
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}
	grand := props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}

	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New("Subtotal", label)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatEUR(pricing.Round2(doc.Totals.Subtotal)), value)).WithStyle(summaryCell),
		),
		row.New(7).Add(
			col.New(9).Add(text.New("VAT "+FormatPercent(doc.Totals.VATRate), label)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatEUR(pricing.Round2(doc.Totals.Tax)), value)).WithStyle(summaryCell),
		),
		row.New(9).Add(
			col.New(9).Add(text.New("TOTAL", grand)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatEUR(pricing.Round2(doc.Totals.Total)), grand)).WithStyle(summaryCell),
		),
		row.New(5),
	)
}

func addPaymentTerms(m core.Maroto, doc *QuoteDocument) {
	if len(doc.PaymentTerms) == 0 {
		return
	}
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(text.New("PAYMENT TERMS", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left, Color: mutedColor})),
		),
	)
	for _, term := range doc.PaymentTerms {
		m.AddRows(row.New(5).Add(col.New(12).Add(text.New("• "+term, props.Text{Size: 8, Align: align.Left}))))
	}
	m.AddRows(row.New(4))
}

func addFooter(m core.Maroto, doc *QuoteDocument) {
	if strings.TrimSpace(doc.FooterMessage) == "" {
		return
	}
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(doc.FooterMessage, props.Text{
				Size:  8,
				Style: fontstyle.Italic,
				Align: align.Center,
				Color: mutedColor,
			})),
		),
	)
}

// PaymentTerms describes the booking, month-before and event-day payments of
// cfg as document lines
func PaymentTerms(cfg pricing.Config) []string {
	return []string{
		fmt.Sprintf("%s on booking", FormatPercent(decimal.NewFromFloat(cfg.BookingShare))),
		fmt.Sprintf("%s one month before the event", FormatPercent(decimal.NewFromFloat(cfg.MonthBeforeShare))),
		fmt.Sprintf("%s on the day of the event", FormatPercent(decimal.NewFromFloat(cfg.EventDayShare))),
	}
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
