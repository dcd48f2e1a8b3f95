package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// SubmitQuoteRequest is the public quote form. Required fields are checked by
// the service so that every rejection carries field errors.
type SubmitQuoteRequest struct {
	CustomerName   string            `json:"customer_name"`
	CustomerEmail  string            `json:"customer_email"`
	CustomerPhone  string            `json:"customer_phone"`
	EventType      string            `json:"event_type"`
	Attendees      int               `json:"attendees"`
	Duration       int               `json:"duration"`
	DurationType   enum.DurationType `json:"duration_type"`
	EventDate      *string           `json:"event_date"`
	EventLocation  string            `json:"event_location"`
	SelectedPack   *uuid.UUID        `json:"selected_pack"`
	SelectedExtras map[string]int    `json:"selected_extras"`
	EstimatedTotal *decimal.Decimal  `json:"estimated_total"`
	Notes          *string           `json:"notes"`
}

// UpdateQuoteRequestRequest changes the status or the admin notes
type UpdateQuoteRequestRequest struct {
	Status     *enum.QuoteRequestStatus `json:"status"`
	AdminNotes *string                  `json:"admin_notes"`
}

// QuoteRequestFilterRequest represents quote request filter parameters
type QuoteRequestFilterRequest struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

// OrderFilterRequest represents order filter parameters
type OrderFilterRequest struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

// QuoteItemRequest picks a catalog product for a back-office quote
type QuoteItemRequest struct {
	ProductID      uuid.UUID        `json:"product_id" binding:"required"`
	Quantity       int              `json:"quantity"`
	PeopleCount    int              `json:"people_count"`
	HoursPerPerson decimal.Decimal  `json:"hours_per_person"`
	UnitSalePrice  *decimal.Decimal `json:"unit_sale_price"`
}

// CustomerRequest identifies the customer of a back-office quote
type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// EventRequest describes the event of a back-office quote
type EventRequest struct {
	Type         string            `json:"type"`
	Date         *string           `json:"date"`
	Location     string            `json:"location"`
	Attendees    int               `json:"attendees"`
	Duration     int               `json:"duration"`
	DurationType enum.DurationType `json:"duration_type"`
}

// QuoteDraftRequest is a quote being built in the back-office. Items are
// catalog selections; LineItems are already priced rows.
type QuoteDraftRequest struct {
	Items       []QuoteItemRequest   `json:"items" binding:"dive"`
	LineItems   []pricing.LineItem   `json:"line_items"`
	Overrides   pricing.Overrides    `json:"overrides"`
	PdfConcepts []pricing.PdfConcept `json:"pdf_concepts"`
	PdfTitle    string               `json:"pdf_title"`
	PdfFooter   string               `json:"pdf_footer"`
	Customer    CustomerRequest      `json:"customer"`
	Event       EventRequest         `json:"event"`
	Notes       *string              `json:"notes"`
}

var eventDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseEventDate accepts an RFC 3339 timestamp or a plain date. Nil and blank
// values yield nil.
func ParseEventDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*value)); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid event date %q", *value)
}
