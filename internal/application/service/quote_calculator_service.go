package service

import (
	"context"
	"fmt"
	"time"

	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/resona/rental-api/internal/infrastructure/export"
	"github.com/resona/rental-api/pkg/apperror"
)

// CustomerInfo identifies who a quote is for
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// EventInfo describes the event a quote is for
type EventInfo struct {
	Type         string            `json:"type"`
	Date         *time.Time        `json:"date,omitempty"`
	Location     string            `json:"location"`
	Attendees    int               `json:"attendees"`
	Duration     int               `json:"duration"`
	DurationType enum.DurationType `json:"duration_type"`
}

// QuoteDraft is a quote being built in the back-office. Selections are
// resolved against the catalog and added to LineItems.
type QuoteDraft struct {
	Selections  []ProductSelection   `json:"-"`
	LineItems   []pricing.LineItem   `json:"line_items"`
	Overrides   pricing.Overrides    `json:"overrides"`
	PdfConcepts []pricing.PdfConcept `json:"pdf_concepts"`
	PdfTitle    string               `json:"pdf_title"`
	PdfFooter   string               `json:"pdf_footer"`
	Customer    CustomerInfo         `json:"customer"`
	Event       EventInfo            `json:"event"`
	Notes       *string              `json:"notes,omitempty"`
}

// QuoteCalculation holds both views of a draft: the internal cost breakdown and
// the customer document totals
type QuoteCalculation struct {
	Items       []pricing.LineItem    `json:"items"`
	Breakdown   pricing.CostBreakdown `json:"breakdown"`
	Concepts    []pricing.PdfConcept  `json:"concepts"`
	Totals      pricing.PdfTotals     `json:"totals"`
	PaymentPlan pricing.PaymentPlan   `json:"payment_plan"`
}

// QuoteCalculatorService prices drafts without storing anything
type QuoteCalculatorService struct {
	catalog *CatalogService
	engine  *pricing.Engine
	company export.Company
	now     func() time.Time
}

// NewQuoteCalculatorService creates a new calculator. catalog may be nil when
// drafts only carry resolved line items.
func NewQuoteCalculatorService(catalog *CatalogService, engine *pricing.Engine, company export.Company) *QuoteCalculatorService {
	return &QuoteCalculatorService{
		catalog: catalog,
		engine:  engine,
		company: company,
		now:     time.Now,
	}
}

// Engine returns the pricing engine in use
func (s *QuoteCalculatorService) Engine() *pricing.Engine {
	return s.engine
}

// Calculate computes the breakdown, the document totals and the payment plan of
// a draft. Concepts default to one per priced item when the draft has none.
func (s *QuoteCalculatorService) Calculate(ctx context.Context, draft *QuoteDraft) (*QuoteCalculation, error) {
	if err := validateOverrides(draft.Overrides); err != nil {
		return nil, err
	}

	items, err := s.resolveItems(ctx, draft)
	if err != nil {
		return nil, err
	}

	breakdown := s.engine.ComputeCostBreakdown(items, draft.Overrides)

	concepts := draft.PdfConcepts
	if len(concepts) == 0 {
		concepts = pricing.ConceptsFromItems(breakdown)
	}
	totals := s.engine.ComputePdfTotals(concepts)

	return &QuoteCalculation{
		Items:       items,
		Breakdown:   breakdown,
		Concepts:    concepts,
		Totals:      totals,
		PaymentPlan: s.engine.PaymentPlan(totals.Total),
	}, nil
}

// ExportBreakdownXLSX renders the internal cost breakdown of a draft
func (s *QuoteCalculatorService) ExportBreakdownXLSX(ctx context.Context, draft *QuoteDraft) ([]byte, error) {
	calc, err := s.Calculate(ctx, draft)
	if err != nil {
		return nil, err
	}

	return export.GenerateBreakdownExcel(&export.BreakdownWorkbook{
		Title:     draft.PdfTitle,
		Reference: "DRAFT",
		Date:      s.now().Format(dateLayout),
		Breakdown: calc.Breakdown,
		Concepts:  calc.Concepts,
		Totals:    calc.Totals,
	})
}

// RenderDraftPDF renders the customer document of a draft that has not been
// saved yet
func (s *QuoteCalculatorService) RenderDraftPDF(ctx context.Context, draft *QuoteDraft) ([]byte, error) {
	calc, err := s.Calculate(ctx, draft)
	if err != nil {
		return nil, err
	}

	doc := s.document("DRAFT", s.now(), draft.Customer, draft.Event, calc.Concepts, calc.Totals)
	doc.Title = draft.PdfTitle
	doc.FooterMessage = draft.PdfFooter
	return export.GenerateQuotePDF(doc)
}

func (s *QuoteCalculatorService) resolveItems(ctx context.Context, draft *QuoteDraft) ([]pricing.LineItem, error) {
	items := make([]pricing.LineItem, 0, len(draft.Selections)+len(draft.LineItems))
	if len(draft.Selections) > 0 {
		if s.catalog == nil {
			return nil, apperror.NewBadRequestError("Catalog selections are not supported here")
		}
		resolved, err := s.catalog.BuildLineItems(ctx, draft.Selections)
		if err != nil {
			return nil, err
		}
		items = append(items, resolved...)
	}
	items = append(items, draft.LineItems...)

	for i, item := range items {
		if !item.Kind.Valid() {
			return nil, apperror.NewValidationError([]apperror.FieldError{{
				Field:   fmt.Sprintf("line_items[%d].kind", i),
				Message: "unknown item kind",
			}})
		}
	}
	return pricing.NormalizeItems(items), nil
}

func (s *QuoteCalculatorService) document(reference string, date time.Time, customer CustomerInfo, event EventInfo, concepts []pricing.PdfConcept, totals pricing.PdfTotals) *export.QuoteDocument {
	doc := &export.QuoteDocument{
		Company:       s.company,
		Reference:     reference,
		Date:          date.Format(dateLayout),
		ClientName:    customer.Name,
		ClientEmail:   customer.Email,
		ClientPhone:   customer.Phone,
		EventType:     event.Type,
		EventLocation: event.Location,
		Attendees:     event.Attendees,
		Concepts:      concepts,
		Totals:        totals,
		PaymentTerms:  export.PaymentTerms(s.engine.Config()),
	}
	if event.Date != nil {
		doc.EventDate = event.Date.Format(dateLayout)
	}
	if event.Duration > 0 {
		doc.DurationLabel = fmt.Sprintf("%d %s", event.Duration, event.DurationType)
	}
	return doc
}

const dateLayout = "02/01/2006"

func validateOverrides(o pricing.Overrides) error {
	var fieldErrors []apperror.FieldError
	if o.TransportCost.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "overrides.transport_cost", Message: "must not be negative"})
	}
	if o.ExternalRentalCost.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "overrides.external_rental_cost", Message: "must not be negative"})
	}
	if o.CustomFinalPrice != nil && o.CustomFinalPrice.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "overrides.custom_final_price", Message: "must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
