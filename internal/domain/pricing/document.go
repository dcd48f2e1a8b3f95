package pricing

import "github.com/shopspring/decimal"

// PdfConcept is one free-text row of the customer quote document. Concepts are
// edited independently of the line items.
type PdfConcept struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// PdfTotals are the tax-inclusive totals shown to the customer.
type PdfTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	VATRate  decimal.Decimal `json:"vat_rate"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputePdfTotals sums the concept prices and applies VAT. The result does not
// depend on the line items or on the cost breakdown.
func (e *Engine) ComputePdfTotals(concepts []PdfConcept) PdfTotals {
	var subtotal decimal.Decimal
	for _, c := range concepts {
		subtotal = subtotal.Add(c.Price)
	}
	return PdfTotals{
		Subtotal: subtotal,
		VATRate:  e.vat,
		Tax:      subtotal.Mul(e.vat),
		Total:    subtotal.Mul(one.Add(e.vat)),
	}
}

// PaymentPlan is the customer payment schedule of a quote.
type PaymentPlan struct {
	Booking     decimal.Decimal `json:"booking"`
	MonthBefore decimal.Decimal `json:"month_before"`
	EventDay    decimal.Decimal `json:"event_day"`
}

// PaymentPlan splits total into the booking, one-month-before and event-day
// payments, each rounded to cents.
func (e *Engine) PaymentPlan(total decimal.Decimal) PaymentPlan {
	return PaymentPlan{
		Booking:     Round2(total.Mul(decimal.NewFromFloat(e.cfg.BookingShare))),
		MonthBefore: Round2(total.Mul(decimal.NewFromFloat(e.cfg.MonthBeforeShare))),
		EventDay:    Round2(total.Mul(decimal.NewFromFloat(e.cfg.EventDayShare))),
	}
}

// Deposit is the security deposit charged on an order of the given total.
func (e *Engine) Deposit(total decimal.Decimal) decimal.Decimal {
	return total.Mul(decimal.NewFromFloat(e.cfg.DepositRate))
}

// Tax is the VAT due on subtotal.
func (e *Engine) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(e.vat)
}

// ConceptsFromItems derives one document concept per priced item, used when
// a quote has no hand-edited concepts.
func ConceptsFromItems(b CostBreakdown) []PdfConcept {
	concepts := make([]PdfConcept, 0, len(b.Items)+1)
	for _, it := range b.Items {
		concepts = append(concepts, PdfConcept{Name: it.Name, Price: Round2(it.TotalPrice)})
	}
	logistics := b.ShippingTotal.Add(b.InstallationTotal)
	if logistics.IsPositive() {
		concepts = append(concepts, PdfConcept{Name: "Transport and installation", Price: Round2(logistics)})
	}
	return concepts
}

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
