package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuoteDetails is stored verbatim with a quote request. Public requests only
// carry Extras; quotes built in the back-office carry both the line items and
// the document concepts so either view can be rebuilt later.
type QuoteDetails struct {
	Extras      map[string]int       `json:"extras,omitempty"` // product id -> quantity
	LineItems   []pricing.LineItem   `json:"line_items,omitempty"`
	Overrides   *pricing.Overrides   `json:"overrides,omitempty"`
	PdfConcepts []pricing.PdfConcept `json:"pdf_concepts,omitempty"`
	PdfTitle    string               `json:"pdf_title,omitempty"`
	PdfFooter   string               `json:"pdf_footer,omitempty"`
}

// QuoteRequest represents a customer's request for a quote, from first contact
// until it is converted into an order
type QuoteRequest struct {
	ID             uuid.UUID                        `gorm:"type:uuid;primary_key" json:"id"`
	Reference      string                           `gorm:"size:50;unique;not null" json:"reference"`
	CustomerName   string                           `gorm:"size:255" json:"customer_name"`
	CustomerEmail  string                           `gorm:"size:255;index" json:"customer_email"`
	CustomerPhone  string                           `gorm:"size:50" json:"customer_phone"`
	EventType      string                           `gorm:"size:100;not null" json:"event_type"`
	Attendees      int                              `gorm:"not null" json:"attendees"`
	Duration       int                              `gorm:"not null" json:"duration"`
	DurationType   enum.DurationType                `gorm:"default:0" json:"duration_type"`
	EventDate      *time.Time                       `json:"event_date,omitempty"`
	EventLocation  string                           `gorm:"size:255" json:"event_location"`
	SelectedPack   *uuid.UUID                       `gorm:"type:uuid" json:"selected_pack,omitempty"`
	SelectedExtras datatypes.JSONType[QuoteDetails] `json:"selected_extras"`
	EstimatedTotal decimal.Decimal                  `gorm:"type:decimal(12,2);default:0" json:"estimated_total"`
	Status         enum.QuoteRequestStatus          `gorm:"default:0;index" json:"status"`
	Notes          *string                          `gorm:"type:text" json:"notes,omitempty"`
	AdminNotes     *string                          `gorm:"type:text" json:"admin_notes,omitempty"`
	PaymentToken   *string                          `gorm:"size:100;unique" json:"payment_token,omitempty"`
	FirstPayment   decimal.NullDecimal              `gorm:"type:decimal(12,2)" json:"first_payment"`
	SecondPayment  decimal.NullDecimal              `gorm:"type:decimal(12,2)" json:"second_payment"`
	ThirdPayment   decimal.NullDecimal              `gorm:"type:decimal(12,2)" json:"third_payment"`
	OrderID        *uuid.UUID                       `gorm:"type:uuid" json:"order_id,omitempty"`
	CreatedByID    *uuid.UUID                       `gorm:"type:uuid" json:"created_by_id,omitempty"`
	CreatedAt      time.Time                        `json:"created_at"`
	UpdatedAt      time.Time                        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt                   `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new quote request
func (q *QuoteRequest) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the QuoteRequest model
func (QuoteRequest) TableName() string {
	return "quote_requests"
}

// Details returns the stored quote details
func (q *QuoteRequest) Details() QuoteDetails {
	return q.SelectedExtras.Data()
}

// AppendAdminNote adds a line to the admin notes
func (q *QuoteRequest) AppendAdminNote(note string) {
	if q.AdminNotes == nil || *q.AdminNotes == "" {
		q.AdminNotes = &note
		return
	}
	joined := *q.AdminNotes + "\n" + note
	q.AdminNotes = &joined
}
