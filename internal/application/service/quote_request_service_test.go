package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/pricing"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/pkg/apperror"
	"github.com/resona/rental-api/pkg/utils"
)

func validSubmission() *SubmitQuoteRequestInput {
	return &SubmitQuoteRequestInput{
		Customer: CustomerInfo{Name: "Ana Torres", Email: "Ana@Example.com"},
		Event:    EventInfo{Type: "Wedding", Attendees: 120, Duration: 2, DurationType: enum.DurationTypeDays},
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		modify func(in *SubmitQuoteRequestInput)
		field  string
	}{
		{"no contact", func(in *SubmitQuoteRequestInput) { in.Customer.Email = "" }, "customer_email"},
		{"bad email", func(in *SubmitQuoteRequestInput) { in.Customer.Email = "not-an-email" }, "customer_email"},
		{"no event type", func(in *SubmitQuoteRequestInput) { in.Event.Type = " " }, "event_type"},
		{"no attendees", func(in *SubmitQuoteRequestInput) { in.Event.Attendees = 0 }, "attendees"},
		{"no duration", func(in *SubmitQuoteRequestInput) { in.Event.Duration = 0 }, "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSubmission()
			tt.modify(in)
			_, err := env.quotes.Submit(context.Background(), in)
			if !apperror.HasReason(err, apperror.ReasonValidation) {
				t.Fatalf("error = %v, want validation error", err)
			}
			found := false
			for _, fe := range apperror.GetAppError(err).Errors {
				found = found || fe.Field == tt.field
			}
			if !found {
				t.Errorf("field errors %+v do not mention %s", apperror.GetAppError(err).Errors, tt.field)
			}
		})
	}
}

func TestSubmitAssignsSequentialReferences(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	phoneOnly := validSubmission()
	phoneOnly.Customer = CustomerInfo{Phone: "+34 600 000 000"}

	first, err := env.quotes.Submit(ctx, validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	second, err := env.quotes.Submit(ctx, phoneOnly)
	if err != nil {
		t.Fatalf("Submit phone only: %v", err)
	}

	if first.Reference != "QR-000001" || second.Reference != "QR-000002" {
		t.Errorf("references = %s, %s", first.Reference, second.Reference)
	}
	if first.Status != enum.QuoteRequestStatusPending {
		t.Errorf("status = %v", first.Status)
	}
	if first.CustomerEmail != "ana@example.com" {
		t.Errorf("email not normalised: %q", first.CustomerEmail)
	}

	if err := env.quotes.DeleteQuoteRequest(ctx, second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	third, err := env.quotes.Submit(ctx, validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if third.Reference != "QR-000003" {
		t.Errorf("reference after delete = %s, want QR-000003", third.Reference)
	}
}

func TestCreateFromDraftKeepsBothTotals(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	staff := env.createCategory(t, "personal")
	waiter := env.createProduct(t, &ProductInput{CategoryID: &staff.ID, Name: strPtr("Waiter"), PricePerDay: decPtr("25"), PurchasePrice: decPtr("15")})
	speaker := env.createProduct(t, &ProductInput{Name: strPtr("Speaker"), PricePerDay: decPtr("40"), PurchasePrice: decPtr("400")})

	draft := &QuoteDraft{
		Selections: []ProductSelection{
			{ProductID: waiter.ID, PeopleCount: 2, HoursPerPerson: dec("5")},
			{ProductID: speaker.ID, Quantity: 2},
		},
		PdfConcepts: []pricing.PdfConcept{{Name: "Sound and service", Price: dec("300")}},
		PdfTitle:    "Wedding quote",
		Customer:    CustomerInfo{Name: "Ana", Email: "ana@example.com"},
		Event:       EventInfo{Type: "Wedding", Attendees: 80, Duration: 5, DurationType: enum.DurationTypeHours},
	}

	creator := uuid.New()
	quote, calc, err := env.quotes.CreateFromDraft(ctx, &creator, draft)
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}

	// line items: 2 x 5h x 25 + 2 x 40
	assertDecimal(t, "subtotal", calc.Breakdown.Subtotal, "330")
	// the document is priced from its own concepts
	assertDecimal(t, "pdf total", calc.Totals.Total, "363")
	assertDecimal(t, "estimated total", quote.EstimatedTotal, "363")
	if quote.Status != enum.QuoteRequestStatusQuoted {
		t.Errorf("status = %v", quote.Status)
	}

	stored, err := env.quotes.GetQuoteRequest(ctx, quote.ID)
	if err != nil {
		t.Fatalf("GetQuoteRequest: %v", err)
	}
	details := stored.Details()
	if len(details.LineItems) != 2 || len(details.PdfConcepts) != 1 || details.PdfTitle != "Wedding quote" {
		t.Errorf("stored details = %+v", details)
	}
	if details.LineItems[0].Kind != enum.ItemKindPersonnel {
		t.Errorf("stored kind = %v", details.LineItems[0].Kind)
	}
	if stored.CreatedByID == nil || *stored.CreatedByID != creator {
		t.Errorf("created_by = %v", stored.CreatedByID)
	}

	_, _, err = env.quotes.CreateFromDraft(ctx, nil, &QuoteDraft{
		Customer: draft.Customer,
		Event:    draft.Event,
		LineItems: []pricing.LineItem{
			{Name: "Removed", Kind: enum.ItemKindProduct, UnitSalePrice: dec("10"), Quantity: 0},
		},
	})
	if !apperror.HasReason(err, apperror.ReasonNoItems) {
		t.Errorf("empty draft error = %v", err)
	}
}

func TestUpdateToConvertedGeneratesPaymentPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	in := validSubmission()
	in.EstimatedTotal = decPtr("1000")
	quote, err := env.quotes.Submit(ctx, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	contacted := enum.QuoteRequestStatusContacted
	updated, err := env.quotes.UpdateQuoteRequest(ctx, quote.ID, &UpdateQuoteRequestInput{Status: &contacted, AdminNotes: strPtr("called")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.PaymentToken != nil {
		t.Fatal("payment token generated before conversion")
	}

	converted := enum.QuoteRequestStatusConverted
	updated, err = env.quotes.UpdateQuoteRequest(ctx, quote.ID, &UpdateQuoteRequestInput{Status: &converted})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.PaymentToken == nil || !strings.HasPrefix(*updated.PaymentToken, "PAY-") {
		t.Fatalf("payment token = %v", updated.PaymentToken)
	}
	assertDecimal(t, "first payment", updated.FirstPayment.Decimal, "250")
	assertDecimal(t, "second payment", updated.SecondPayment.Decimal, "500")
	assertDecimal(t, "third payment", updated.ThirdPayment.Decimal, "250")
	if *updated.AdminNotes != "called" {
		t.Errorf("admin notes = %q", *updated.AdminNotes)
	}

	token := *updated.PaymentToken
	again, err := env.quotes.UpdateQuoteRequest(ctx, quote.ID, &UpdateQuoteRequestInput{Status: &converted})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *again.PaymentToken != token {
		t.Error("payment token regenerated")
	}

	bogus := enum.QuoteRequestStatus(42)
	_, err = env.quotes.UpdateQuoteRequest(ctx, quote.ID, &UpdateQuoteRequestInput{Status: &bogus})
	if !apperror.HasReason(err, apperror.ReasonValidation) {
		t.Errorf("unknown status error = %v", err)
	}
}

func TestConvertToOrderFromPackAndExtras(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	pack := env.createProduct(t, &ProductInput{Name: strPtr("Wedding Pack"), PricePerDay: decPtr("500"), IsPack: boolPtr(true)})
	speaker := env.createProduct(t, &ProductInput{Name: strPtr("Speaker"), PricePerDay: decPtr("40")})

	customer := &entity.User{FirstName: "Ana", Email: "ana@example.com", Active: true}
	if err := env.db.Create(customer).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	eventDate := time.Date(2026, time.June, 20, 18, 0, 0, 0, time.UTC)
	in := validSubmission()
	in.Event = EventInfo{Type: "Wedding", Attendees: 150, Duration: 10, DurationType: enum.DurationTypeHours, Date: &eventDate, Location: "Finca El Olivar"}
	in.SelectedPack = &pack.ID
	in.Extras = map[string]int{speaker.ID.String(): 3, uuid.New().String(): 1}
	in.EstimatedTotal = decPtr("1240")
	quote, err := env.quotes.Submit(ctx, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	order, err := env.quotes.ConvertToOrder(ctx, quote.ID)
	if err != nil {
		t.Fatalf("ConvertToOrder: %v", err)
	}

	if order.OrderNumber != "ORD-2026-0001" {
		t.Errorf("order number = %s", order.OrderNumber)
	}
	if order.UserID == nil || *order.UserID != customer.ID {
		t.Errorf("order not linked to customer: %v", order.UserID)
	}
	if order.Status != enum.OrderStatusConfirmed || order.PaymentStatus != enum.PaymentStatusPending {
		t.Errorf("status = %v / %v", order.Status, order.PaymentStatus)
	}

	stored, err := env.orders.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	assertDecimal(t, "subtotal", stored.Subtotal, "1240")
	assertDecimal(t, "tax", stored.TaxAmount, "260.4")
	assertDecimal(t, "total", stored.Total, "1500.4")
	assertDecimal(t, "deposit", stored.DepositAmount, "300.08")

	if len(stored.Items) != 2 {
		t.Fatalf("items = %d, want 2 (unknown extra skipped)", len(stored.Items))
	}
	subtotals := map[uuid.UUID]string{pack.ID: "1000", speaker.ID: "240"}
	for _, item := range stored.Items {
		assertDecimal(t, item.ProductName+" subtotal", item.Subtotal, subtotals[item.ProductID])
	}

	wantStart := time.Date(2026, time.June, 20, 10, 0, 0, 0, time.UTC)
	if !stored.StartDate.Equal(wantStart) || !stored.EndDate.Equal(wantStart.Add(10*time.Hour)) {
		t.Errorf("start/end = %v / %v", stored.StartDate, stored.EndDate)
	}
	if !stored.DeliveryDate.Equal(eventDate.AddDate(0, 0, -1)) {
		t.Errorf("delivery = %v", stored.DeliveryDate)
	}
	if !stored.PickupDate.Equal(eventDate.AddDate(0, 0, 3)) {
		t.Errorf("pickup = %v", stored.PickupDate)
	}

	converted, err := env.quotes.GetQuoteRequest(ctx, quote.ID)
	if err != nil {
		t.Fatalf("GetQuoteRequest: %v", err)
	}
	if converted.Status != enum.QuoteRequestStatusConverted || converted.OrderID == nil || *converted.OrderID != order.ID {
		t.Errorf("quote after conversion = %v / %v", converted.Status, converted.OrderID)
	}
	if converted.AdminNotes == nil || !strings.Contains(*converted.AdminNotes, "ORD-2026-0001") {
		t.Errorf("admin notes = %v", converted.AdminNotes)
	}

	if len(env.mail.sent) != 1 {
		t.Fatalf("confirmations sent = %d, want 1", len(env.mail.sent))
	}
	if msg := env.mail.sent[0]; msg.To != "ana@example.com" || msg.OrderNumber != "ORD-2026-0001" || msg.Total != "1.500,40 €" {
		t.Errorf("confirmation = %+v", msg)
	}

	noted, err := env.quotes.UpdateQuoteRequest(ctx, quote.ID, &UpdateQuoteRequestInput{AdminNotes: strPtr("deposit received")})
	if err != nil {
		t.Fatalf("UpdateQuoteRequest: %v", err)
	}
	if noted.PaymentToken != nil || noted.FirstPayment.Valid {
		t.Errorf("notes-only update generated a payment plan: token %v", noted.PaymentToken)
	}

	_, err = env.quotes.ConvertToOrder(ctx, quote.ID)
	if !apperror.HasReason(err, apperror.ReasonAlreadyConverted) {
		t.Errorf("second conversion error = %v", err)
	}

	second, err := env.quotes.Submit(ctx, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	next, err := env.quotes.ConvertToOrder(ctx, second.ID)
	if err != nil {
		t.Fatalf("ConvertToOrder: %v", err)
	}
	if next.OrderNumber != "ORD-2026-0002" {
		t.Errorf("next order number = %s", next.OrderNumber)
	}
}

func TestConvertToOrderFromLineItems(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	staff := env.createCategory(t, "personal")
	waiter := env.createProduct(t, &ProductInput{CategoryID: &staff.ID, Name: strPtr("Waiter"), PricePerDay: decPtr("25")})
	speaker := env.createProduct(t, &ProductInput{Name: strPtr("Speaker"), PricePerDay: decPtr("40")})

	quote, _, err := env.quotes.CreateFromDraft(ctx, nil, &QuoteDraft{
		Selections: []ProductSelection{
			{ProductID: waiter.ID, PeopleCount: 2, HoursPerPerson: dec("4.6")},
			{ProductID: speaker.ID, Quantity: 2},
		},
		LineItems: []pricing.LineItem{
			{Name: "Custom lighting", Kind: enum.ItemKindProduct, UnitSalePrice: dec("70"), Quantity: 1},
		},
		PdfConcepts: []pricing.PdfConcept{{Name: "Full service", Price: dec("300")}},
		Customer:    CustomerInfo{Phone: "600000000"},
		Event:       EventInfo{Type: "Gala", Attendees: 60, Duration: 1},
	})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}

	order, err := env.quotes.ConvertToOrder(ctx, quote.ID)
	if err != nil {
		t.Fatalf("ConvertToOrder: %v", err)
	}
	if order.UserID != nil {
		t.Error("order linked to a user without customer email")
	}
	assertDecimal(t, "subtotal", order.Subtotal, "363")
	assertDecimal(t, "tax", order.TaxAmount, "76.23")

	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2 (free-form item skipped)", len(order.Items))
	}
	// 2 people x 4.5h
	if order.Items[0].Quantity != 9 {
		t.Errorf("waiter quantity = %d", order.Items[0].Quantity)
	}
	assertDecimal(t, "waiter subtotal", order.Items[0].Subtotal, "225")
	assertDecimal(t, "speaker subtotal", order.Items[1].Subtotal, "80")

	wantStart := time.Date(fixedNow.Year(), fixedNow.Month(), fixedNow.Day()+7, 10, 0, 0, 0, time.UTC)
	if !order.StartDate.Equal(wantStart) {
		t.Errorf("start without event date = %v, want %v", order.StartDate, wantStart)
	}
}

func TestConvertToOrderErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.quotes.ConvertToOrder(ctx, uuid.New()); !apperror.HasReason(err, apperror.ReasonNotFound) {
		t.Errorf("missing quote error = %v", err)
	}

	in := validSubmission()
	in.Extras = map[string]int{uuid.New().String(): 2}
	quote, err := env.quotes.Submit(ctx, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.quotes.ConvertToOrder(ctx, quote.ID); !apperror.HasReason(err, apperror.ReasonNoItems) {
		t.Errorf("no items error = %v", err)
	}

	stored, _ := env.quotes.GetQuoteRequest(ctx, quote.ID)
	if stored.Status != enum.QuoteRequestStatusPending {
		t.Errorf("failed conversion changed status to %v", stored.Status)
	}
}

// rivalOrderRepo commits a competing conversion of the same quote right before
// the service's own write, like a second request racing the first.
type rivalOrderRepo struct {
	repository.OrderRepository
	raced bool
}

func (r *rivalOrderRepo) CreateForQuote(ctx context.Context, order *entity.Order, quote *entity.QuoteRequest) error {
	if !r.raced {
		r.raced = true
		rival := *quote
		rivalOrder := &entity.Order{ID: uuid.New(), OrderNumber: order.OrderNumber, QuoteRequestID: &quote.ID, Status: enum.OrderStatusConfirmed}
		if err := r.OrderRepository.CreateForQuote(ctx, rivalOrder, &rival); err != nil {
			return err
		}
	}
	return r.OrderRepository.CreateForQuote(ctx, order, quote)
}

func TestConvertToOrderLosesRace(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.quotes.orderRepo = &rivalOrderRepo{OrderRepository: env.quotes.orderRepo}

	speaker := env.createProduct(t, &ProductInput{Name: strPtr("Speaker"), PricePerDay: decPtr("40")})
	in := validSubmission()
	in.Extras = map[string]int{speaker.ID.String(): 1}
	quote, err := env.quotes.Submit(ctx, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := env.quotes.ConvertToOrder(ctx, quote.ID); !apperror.HasReason(err, apperror.ReasonAlreadyConverted) {
		t.Fatalf("racing conversion error = %v, want already converted", err)
	}

	var orders int64
	if err := env.db.Model(&entity.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 1 {
		t.Errorf("orders = %d, want only the winning conversion", orders)
	}
	if len(env.mail.sent) != 0 {
		t.Errorf("confirmations sent = %d by the losing conversion", len(env.mail.sent))
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	empty, err := env.quotes.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if empty.Total != 0 || empty.ConversionRate != 0 {
		t.Errorf("empty stats = %+v", empty)
	}

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		q, err := env.quotes.Submit(ctx, validSubmission())
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, q.ID)
	}
	converted := enum.QuoteRequestStatusConverted
	if _, err := env.quotes.UpdateQuoteRequest(ctx, ids[0], &UpdateQuoteRequestInput{Status: &converted}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats, err := env.quotes.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.ByStatus["pending"] != 2 || stats.ByStatus["converted"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ConversionRate != 33.33 {
		t.Errorf("conversion rate = %v, want 33.33", stats.ConversionRate)
	}

	pending := enum.QuoteRequestStatusPending
	list, err := env.quotes.ListQuoteRequests(ctx, &repository.QuoteRequestFilterParams{Status: &pending})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Pagination.Total != 2 {
		t.Errorf("pending list total = %d", list.Pagination.Total)
	}
}

func TestRenderPDFArchivesDocument(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	quote, _, err := env.quotes.CreateFromDraft(ctx, nil, &QuoteDraft{
		LineItems: []pricing.LineItem{
			{Name: "Stage 6x4", Kind: enum.ItemKindProduct, UnitSalePrice: dec("450"), Quantity: 1, ShippingUnitCost: dec("80")},
		},
		Overrides: pricing.Overrides{IncludeShipping: true},
		Customer:  CustomerInfo{Name: "Luis", Email: "luis@example.com"},
		Event:     EventInfo{Type: "Concert", Attendees: 500, Duration: 1},
	})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	// concepts derived from the items: 450 + 80 x 0.5
	assertDecimal(t, "estimated total", quote.EstimatedTotal, "592.9")

	pdf, _, err := env.quotes.RenderPDF(ctx, quote.ID)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", pdf[:8])
	}

	archived, err := env.store.Get(ctx, "quotes/"+quote.Reference+".pdf")
	if err != nil {
		t.Fatalf("archived PDF: %v", err)
	}
	if !bytes.Equal(archived, pdf) {
		t.Error("archived PDF differs from the returned one")
	}

	bare, err := env.quotes.Submit(ctx, validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, _, err := env.quotes.RenderPDF(ctx, bare.ID); !apperror.HasReason(err, apperror.ReasonNoItems) {
		t.Errorf("empty quote PDF error = %v", err)
	}
}

func TestGeneratedPaymentTokenFormat(t *testing.T) {
	token := utils.GeneratePaymentToken(fixedNow)
	if !strings.HasPrefix(token, "PAY-") {
		t.Errorf("token = %s", token)
	}
}
