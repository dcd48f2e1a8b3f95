package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order represents a confirmed rental
type Order struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	OrderNumber    string             `gorm:"size:50;unique;not null" json:"order_number"`
	UserID         *uuid.UUID         `gorm:"type:uuid;index" json:"user_id,omitempty"`
	QuoteRequestID *uuid.UUID         `gorm:"type:uuid;index" json:"quote_request_id,omitempty"`
	StartDate      time.Time          `gorm:"not null" json:"start_date"`
	EndDate        time.Time          `gorm:"not null" json:"end_date"`
	DeliveryDate   time.Time          `gorm:"not null" json:"delivery_date"`
	PickupDate     time.Time          `gorm:"not null" json:"pickup_date"`
	EventType      string             `gorm:"size:100" json:"event_type"`
	EventLocation  string             `gorm:"size:255" json:"event_location"`
	Attendees      int                `gorm:"default:0" json:"attendees"`
	ContactPerson  string             `gorm:"size:255" json:"contact_person"`
	ContactPhone   string             `gorm:"size:50" json:"contact_phone"`
	Notes          *string            `gorm:"type:text" json:"notes,omitempty"`
	Subtotal       decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"tax_amount"`
	Total          decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"total"`
	DepositAmount  decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"deposit_amount"`
	DepositStatus  enum.PaymentStatus `gorm:"default:0" json:"deposit_status"`
	Status         enum.OrderStatus   `gorm:"default:0;index" json:"status"`
	PaymentStatus  enum.PaymentStatus `gorm:"default:0" json:"payment_status"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	DeletedAt      gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relationships
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem represents a rented product in an order
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"size:255" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	PricePerDay decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_day"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new order item
func (oi *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
