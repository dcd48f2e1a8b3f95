package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/infrastructure/export"
	"github.com/resona/rental-api/internal/infrastructure/storage"
	"github.com/resona/rental-api/pkg/apperror"
	"github.com/resona/rental-api/pkg/email"
	"github.com/resona/rental-api/pkg/pagination"
	"github.com/resona/rental-api/pkg/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// QuoteRequestService handles the quote request lifecycle
type QuoteRequestService struct {
	quoteRepo   repository.QuoteRequestRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	calculator  *QuoteCalculatorService
	store       storage.DocumentStore
	notifier    OrderNotifier
	now         func() time.Time
}

// OrderNotifier tells customers about confirmed orders
type OrderNotifier interface {
	SendOrderConfirmation(msg email.OrderConfirmation) error
}

// NewQuoteRequestService creates a new quote request service
func NewQuoteRequestService(
	quoteRepo repository.QuoteRequestRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	calculator *QuoteCalculatorService,
	store storage.DocumentStore,
	notifier OrderNotifier,
) *QuoteRequestService {
	if store == nil {
		store = storage.NullStore{}
	}
	return &QuoteRequestService{
		quoteRepo:   quoteRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		calculator:  calculator,
		store:       store,
		notifier:    notifier,
		now:         time.Now,
	}
}

// SubmitQuoteRequestInput is what the public quote form sends
type SubmitQuoteRequestInput struct {
	Customer       CustomerInfo
	Event          EventInfo
	SelectedPack   *uuid.UUID
	Extras         map[string]int
	EstimatedTotal *decimal.Decimal
	Notes          *string
}

// Submit stores a public quote request as PENDING
func (s *QuoteRequestService) Submit(ctx context.Context, input *SubmitQuoteRequestInput) (*entity.QuoteRequest, error) {
	fieldErrors := validateContact(input.Customer)
	fieldErrors = append(fieldErrors, validateEvent(input.Event)...)
	if input.EstimatedTotal != nil && input.EstimatedTotal.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "estimated_total", Message: "must not be negative"})
	}
	for productID, qty := range input.Extras {
		if qty < 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "selected_extras." + productID, Message: "quantity must not be negative"})
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	quote := newQuoteRequest(input.Customer, input.Event)
	quote.SelectedPack = input.SelectedPack
	quote.SelectedExtras = datatypes.NewJSONType(entity.QuoteDetails{Extras: input.Extras})
	quote.Status = enum.QuoteRequestStatusPending
	quote.Notes = input.Notes
	if input.EstimatedTotal != nil {
		quote.EstimatedTotal = pricing.Round2(*input.EstimatedTotal)
	}

	if err := s.create(ctx, quote); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"quote_request_id": quote.ID,
		"reference":        quote.Reference,
		"customer_email":   quote.CustomerEmail,
	}).Info("quote request received")
	return quote, nil
}

// CreateFromDraft prices a back-office draft and stores it as QUOTED. Line
// items, overrides and document concepts are kept verbatim so both views can
// be rebuilt; the estimated total is the document total.
func (s *QuoteRequestService) CreateFromDraft(ctx context.Context, createdBy *uuid.UUID, draft *QuoteDraft) (*entity.QuoteRequest, *QuoteCalculation, error) {
	fieldErrors := validateContact(draft.Customer)
	fieldErrors = append(fieldErrors, validateEvent(draft.Event)...)
	if len(fieldErrors) > 0 {
		return nil, nil, apperror.NewValidationError(fieldErrors)
	}

	calc, err := s.calculator.Calculate(ctx, draft)
	if err != nil {
		return nil, nil, err
	}
	if len(calc.Items) == 0 {
		return nil, nil, apperror.NewReasonError(apperror.ReasonNoItems, "A quote needs at least one item")
	}

	overrides := draft.Overrides
	quote := newQuoteRequest(draft.Customer, draft.Event)
	quote.SelectedExtras = datatypes.NewJSONType(entity.QuoteDetails{
		LineItems:   calc.Items,
		Overrides:   &overrides,
		PdfConcepts: calc.Concepts,
		PdfTitle:    draft.PdfTitle,
		PdfFooter:   draft.PdfFooter,
	})
	quote.EstimatedTotal = pricing.Round2(calc.Totals.Total)
	quote.Status = enum.QuoteRequestStatusQuoted
	quote.Notes = draft.Notes
	quote.CreatedByID = createdBy

	if err := s.create(ctx, quote); err != nil {
		return nil, nil, err
	}

	entry := log.WithFields(log.Fields{
		"quote_request_id": quote.ID,
		"reference":        quote.Reference,
		"estimated_total":  quote.EstimatedTotal.StringFixed(2),
		"margin_percent":   calc.Breakdown.MarginPercent.StringFixed(2),
	})
	if calc.Breakdown.HasAdvisory(pricing.AdvisoryNegativeProfit) {
		entry.Warn("quote created below cost")
	} else {
		entry.Info("quote created")
	}
	return quote, calc, nil
}

func newQuoteRequest(customer CustomerInfo, event EventInfo) *entity.QuoteRequest {
	return &entity.QuoteRequest{
		CustomerName:  strings.TrimSpace(customer.Name),
		CustomerEmail: strings.ToLower(strings.TrimSpace(customer.Email)),
		CustomerPhone: strings.TrimSpace(customer.Phone),
		EventType:     strings.TrimSpace(event.Type),
		Attendees:     event.Attendees,
		Duration:      event.Duration,
		DurationType:  event.DurationType,
		EventDate:     event.Date,
		EventLocation: strings.TrimSpace(event.Location),
	}
}

func (s *QuoteRequestService) create(ctx context.Context, quote *entity.QuoteRequest) error {
	nextNum, err := s.quoteRepo.GetNextReferenceNumber(ctx)
	if err != nil {
		return err
	}
	quote.Reference = utils.GenerateQuoteReference(nextNum)
	return s.quoteRepo.Create(ctx, quote)
}

func validateContact(c CustomerInfo) []apperror.FieldError {
	var fieldErrors []apperror.FieldError
	email := strings.TrimSpace(c.Email)
	if email == "" && strings.TrimSpace(c.Phone) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "customer_email", Message: "email or phone is required"})
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "customer_email", Message: "invalid email address"})
		}
	}
	return fieldErrors
}

func validateEvent(e EventInfo) []apperror.FieldError {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(e.Type) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "event_type", Message: "event type is required"})
	}
	if e.Attendees <= 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "attendees", Message: "attendees must be greater than 0"})
	}
	if e.Duration <= 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "duration", Message: "duration must be greater than 0"})
	}
	return fieldErrors
}

// GetQuoteRequest retrieves a quote request by ID
func (s *QuoteRequestService) GetQuoteRequest(ctx context.Context, id uuid.UUID) (*entity.QuoteRequest, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, apperror.NewNotFoundError("Quote request")
	}
	return quote, nil
}

// ListQuoteRequests lists quote requests, newest first by default
func (s *QuoteRequestService) ListQuoteRequests(ctx context.Context, params *repository.QuoteRequestFilterParams) (*pagination.PaginatedResult[entity.QuoteRequest], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	quotes, total, err := s.quoteRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(quotes, pag), nil
}

// DeleteQuoteRequest soft-deletes a quote request
func (s *QuoteRequestService) DeleteQuoteRequest(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetQuoteRequest(ctx, id); err != nil {
		return err
	}
	if err := s.quoteRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.WithField("quote_request_id", id).Info("quote request deleted")
	return nil
}

// UpdateQuoteRequestInput represents the status/notes update. Nil fields are
// left unchanged.
type UpdateQuoteRequestInput struct {
	Status     *enum.QuoteRequestStatus
	AdminNotes *string
}

// UpdateQuoteRequest changes the status or admin notes. A request explicitly set
// to CONVERTED gets a payment token and its payment plan, once.
func (s *QuoteRequestService) UpdateQuoteRequest(ctx context.Context, id uuid.UUID, input *UpdateQuoteRequestInput) (*entity.QuoteRequest, error) {
	quote, err := s.GetQuoteRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "status", Message: "unknown status"}})
		}
		quote.Status = *input.Status
	}
	if input.AdminNotes != nil {
		quote.AdminNotes = input.AdminNotes
	}

	if input.Status != nil && *input.Status == enum.QuoteRequestStatusConverted && quote.PaymentToken == nil {
		token := utils.GeneratePaymentToken(s.now())
		plan := s.calculator.Engine().PaymentPlan(quote.EstimatedTotal)
		quote.PaymentToken = &token
		quote.FirstPayment = decimal.NewNullDecimal(plan.Booking)
		quote.SecondPayment = decimal.NewNullDecimal(plan.MonthBefore)
		quote.ThirdPayment = decimal.NewNullDecimal(plan.EventDay)

		log.WithFields(log.Fields{
			"quote_request_id": quote.ID,
			"payment_token":    token,
			"total":            quote.EstimatedTotal.StringFixed(2),
		}).Info("payment link generated")
	}

	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// QuoteRequestStats summarises the pipeline
type QuoteRequestStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	ConversionRate float64          `json:"conversion_rate"`
}

// Stats counts requests per status. The conversion rate is the share of
// CONVERTED requests in percent, 0 when there are none.
func (s *QuoteRequestService) Stats(ctx context.Context) (*QuoteRequestStats, error) {
	counts, err := s.quoteRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &QuoteRequestStats{ByStatus: make(map[string]int64)}
	for _, status := range enum.QuoteRequestStatuses() {
		n := counts[status]
		stats.ByStatus[strings.ToLower(status.String())] = n
		stats.Total += n
	}
	if stats.Total > 0 {
		rate := float64(counts[enum.QuoteRequestStatusConverted]) / float64(stats.Total) * 100
		stats.ConversionRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

// ConvertToOrder turns a quote request into a confirmed order and marks the
// request CONVERTED, atomically
func (s *QuoteRequestService) ConvertToOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	logger := log.WithField("quote_request_id", id)

	quote, err := s.GetQuoteRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status == enum.QuoteRequestStatusConverted || quote.OrderID != nil {
		return nil, apperror.NewReasonError(apperror.ReasonAlreadyConverted, "Quote request already converted to an order")
	}

	now := s.now()
	days := quote.DurationType.RentalDays(quote.Duration)

	deliveryDate := now.AddDate(0, 0, 7)
	if quote.EventDate != nil {
		deliveryDate = quote.EventDate.AddDate(0, 0, -1)
	}
	pickupDate := deliveryDate.AddDate(0, 0, days+2)

	itemDate := deliveryDate
	if quote.EventDate != nil {
		itemDate = *quote.EventDate
	}

	items, err := s.orderItems(ctx, quote, days, itemDate)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		logger.Warn("no valid products found for conversion")
		return nil, apperror.NewReasonError(apperror.ReasonNoItems, "No valid products found to create the order")
	}

	orderNumber, err := s.nextOrderNumber(ctx, now.Year())
	if err != nil {
		return nil, err
	}

	engine := s.calculator.Engine()
	subtotal := quote.EstimatedTotal
	tax := pricing.Round2(engine.Tax(subtotal))
	total := subtotal.Add(tax)

	startBase := deliveryDate
	if quote.EventDate != nil {
		startBase = *quote.EventDate
	}
	startDate := time.Date(startBase.Year(), startBase.Month(), startBase.Day(), 10, 0, 0, 0, startBase.Location())
	endDate := startDate.Add(time.Duration(quote.DurationType.Hours(quote.Duration)) * time.Hour)

	contactPerson := quote.CustomerName
	if contactPerson == "" {
		contactPerson = "Customer"
	}
	notes := "Created from quote request " + quote.Reference
	if quote.Notes != nil && *quote.Notes != "" {
		notes += ". " + *quote.Notes
	}

	order := &entity.Order{
		ID:             uuid.New(),
		OrderNumber:    orderNumber,
		QuoteRequestID: &quote.ID,
		StartDate:      startDate,
		EndDate:        endDate,
		DeliveryDate:   deliveryDate,
		PickupDate:     pickupDate,
		EventType:      quote.EventType,
		EventLocation:  quote.EventLocation,
		Attendees:      quote.Attendees,
		ContactPerson:  contactPerson,
		ContactPhone:   quote.CustomerPhone,
		Notes:          &notes,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		Total:          total,
		DepositAmount:  pricing.Round2(engine.Deposit(total)),
		DepositStatus:  enum.PaymentStatusPending,
		Status:         enum.OrderStatusConfirmed,
		PaymentStatus:  enum.PaymentStatusPending,
		Items:          items,
	}

	if quote.CustomerEmail != "" {
		user, err := s.userRepo.GetByEmail(ctx, quote.CustomerEmail)
		if err != nil {
			logger.WithError(err).Warn("customer lookup failed, creating order without user")
		} else if user != nil {
			order.UserID = &user.ID
		}
	}

	quote.Status = enum.QuoteRequestStatusConverted
	quote.OrderID = &order.ID
	quote.AppendAdminNote(fmt.Sprintf("Converted to order %s on %s", orderNumber, now.Format(dateLayout)))

	if err := s.orderRepo.CreateForQuote(ctx, order, quote); err != nil {
		if errors.Is(err, repository.ErrQuoteAlreadyConverted) {
			logger.Warn("quote request converted concurrently")
			return nil, apperror.NewReasonError(apperror.ReasonAlreadyConverted, "Quote request already converted to an order")
		}
		return nil, fmt.Errorf("failed to convert quote request: %w", err)
	}

	logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
		"total":        order.Total.StringFixed(2),
	}).Info("quote request converted to order")

	if s.notifier != nil && quote.CustomerEmail != "" {
		if err := s.notifier.SendOrderConfirmation(orderConfirmation(quote.CustomerEmail, order)); err != nil {
			logger.WithError(err).Warn("failed to send order confirmation")
		}
	}
	return order, nil
}

func orderConfirmation(to string, order *entity.Order) email.OrderConfirmation {
	items := make([]email.OrderConfirmationItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, email.OrderConfirmationItem{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Subtotal: export.FormatEUR(it.Subtotal),
		})
	}
	return email.OrderConfirmation{
		To:           to,
		CustomerName: order.ContactPerson,
		OrderNumber:  order.OrderNumber,
		EventType:    order.EventType,
		DeliveryDate: order.DeliveryDate.Format(dateLayout),
		PickupDate:   order.PickupDate.Format(dateLayout),
		Items:        items,
		Subtotal:     export.FormatEUR(order.Subtotal),
		Tax:          export.FormatEUR(order.TaxAmount),
		Total:        export.FormatEUR(order.Total),
		Deposit:      export.FormatEUR(order.DepositAmount),
	}
}

func (s *QuoteRequestService) nextOrderNumber(ctx context.Context, year int) (string, error) {
	last, err := s.orderRepo.GetLastOrderNumber(ctx, utils.OrderNumberPrefix(year))
	if err != nil {
		return "", err
	}
	return utils.NextOrderNumber(year, last), nil
}

// orderItems builds the order lines. Back-office quotes use their stored line
// items; public requests use the pack and the extras, priced per rental day.
// Products that no longer exist are skipped.
func (s *QuoteRequestService) orderItems(ctx context.Context, quote *entity.QuoteRequest, days int, date time.Time) ([]entity.OrderItem, error) {
	details := quote.Details()
	if len(details.LineItems) > 0 {
		return s.orderItemsFromLineItems(ctx, details.LineItems, date)
	}

	logger := log.WithField("quote_request_id", quote.ID)
	wanted := make([]uuid.UUID, 0, len(details.Extras)+1)
	if quote.SelectedPack != nil {
		wanted = append(wanted, *quote.SelectedPack)
	}
	extras := make(map[uuid.UUID]int, len(details.Extras))
	for rawID, qty := range details.Extras {
		id, err := uuid.Parse(rawID)
		if err != nil {
			logger.WithField("product_id", rawID).Warn("skipping extra with invalid product id")
			continue
		}
		if qty <= 0 {
			continue
		}
		extras[id] = qty
		wanted = append(wanted, id)
	}

	products, err := s.productsByID(ctx, wanted)
	if err != nil {
		return nil, err
	}

	daysDec := decimal.NewFromInt(int64(days))
	var items []entity.OrderItem
	if quote.SelectedPack != nil {
		if pack, ok := products[*quote.SelectedPack]; ok {
			items = append(items, entity.OrderItem{
				ProductID:   pack.ID,
				ProductName: pack.Name,
				Quantity:    1,
				PricePerDay: pack.PricePerDay,
				Subtotal:    pack.PricePerDay.Mul(daysDec),
				StartDate:   date,
				EndDate:     date,
			})
		} else {
			logger.WithField("product_id", *quote.SelectedPack).Warn("selected pack not found")
		}
	}

	for _, id := range wanted {
		qty, ok := extras[id]
		if !ok {
			continue
		}
		product, found := products[id]
		if !found {
			logger.WithField("product_id", id).Warn("extra product not found")
			continue
		}
		items = append(items, entity.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    qty,
			PricePerDay: product.PricePerDay,
			Subtotal:    product.PricePerDay.Mul(daysDec).Mul(decimal.NewFromInt(int64(qty))),
			StartDate:   date,
			EndDate:     date,
		})
	}
	return items, nil
}

func (s *QuoteRequestService) orderItemsFromLineItems(ctx context.Context, lineItems []pricing.LineItem, date time.Time) ([]entity.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(lineItems))
	for _, item := range lineItems {
		if id, err := uuid.Parse(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	products, err := s.productsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	var items []entity.OrderItem
	for _, item := range pricing.NormalizeItems(lineItems) {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			log.WithField("product_id", item.ProductID).Warn("skipping line item without a catalog product")
			continue
		}
		if _, ok := products[id]; !ok {
			log.WithField("product_id", id).Warn("line item product not found")
			continue
		}
		qty := pricing.EffectiveQuantity(item).Ceil().IntPart()
		if qty < 1 {
			qty = 1
		}
		items = append(items, entity.OrderItem{
			ProductID:   id,
			ProductName: item.Name,
			Quantity:    int(qty),
			PricePerDay: item.UnitSalePrice,
			Subtotal:    pricing.Round2(pricing.PriceItem(item)),
			StartDate:   date,
			EndDate:     date,
		})
	}
	return items, nil
}

func (s *QuoteRequestService) productsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error) {
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

// RenderPDF rebuilds the customer document of a stored quote and archives it
// under quotes/<reference>.pdf
func (s *QuoteRequestService) RenderPDF(ctx context.Context, id uuid.UUID) ([]byte, *entity.QuoteRequest, error) {
	quote, err := s.GetQuoteRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	details := quote.Details()
	concepts := details.PdfConcepts
	if len(concepts) == 0 && len(details.LineItems) > 0 {
		overrides := pricing.Overrides{}
		if details.Overrides != nil {
			overrides = *details.Overrides
		}
		breakdown := s.calculator.Engine().ComputeCostBreakdown(details.LineItems, overrides)
		concepts = pricing.ConceptsFromItems(breakdown)
	}
	if len(concepts) == 0 {
		return nil, nil, apperror.NewReasonError(apperror.ReasonNoItems, "Quote request has nothing to print")
	}

	customer := CustomerInfo{Name: quote.CustomerName, Email: quote.CustomerEmail, Phone: quote.CustomerPhone}
	event := EventInfo{
		Type:         quote.EventType,
		Date:         quote.EventDate,
		Location:     quote.EventLocation,
		Attendees:    quote.Attendees,
		Duration:     quote.Duration,
		DurationType: quote.DurationType,
	}
	doc := s.calculator.document(quote.Reference, quote.CreatedAt, customer, event, concepts, s.calculator.Engine().ComputePdfTotals(concepts))
	doc.Title = details.PdfTitle
	doc.FooterMessage = details.PdfFooter

	pdf, err := export.GenerateQuotePDF(doc)
	if err != nil {
		return nil, nil, err
	}

	key := "quotes/" + quote.Reference + ".pdf"
	if err := s.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to archive quote PDF")
	} else {
		log.WithFields(log.Fields{"quote_request_id": quote.ID, "key": key}).Info("quote PDF stored")
	}
	return pdf, quote, nil
}
