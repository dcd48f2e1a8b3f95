package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/resona/rental-api/internal/application/service"
	"github.com/resona/rental-api/internal/presentation/http/dto/request"
	"github.com/resona/rental-api/internal/presentation/http/dto/response"
	"github.com/resona/rental-api/pkg/apperror"
)

// QuoteHandler handles back-office quote building
type QuoteHandler struct {
	calculator   *service.QuoteCalculatorService
	quoteService *service.QuoteRequestService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(calculator *service.QuoteCalculatorService, quoteService *service.QuoteRequestService) *QuoteHandler {
	return &QuoteHandler{calculator: calculator, quoteService: quoteService}
}

// Calculate prices a draft without storing it
// @Summary Calculate quote
// @Description Line items, cost breakdown, PDF totals and payment plan of a draft
// @Tags quotes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.QuoteDraftRequest true "Draft"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /admin/quotes/calculate [post]
func (h *QuoteHandler) Calculate(c *gin.Context) {
	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	calc, err := h.calculator.Calculate(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quote calculated successfully", calc)
}

// ExportBreakdown downloads the cost breakdown spreadsheet of a draft
// @Summary Export breakdown
// @Tags quotes
// @Security BearerAuth
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body request.QuoteDraftRequest true "Draft"
// @Success 200 {file} file
// @Router /admin/quotes/calculate/export [post]
func (h *QuoteHandler) ExportBreakdown(c *gin.Context) {
	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	data, err := h.calculator.ExportBreakdownXLSX(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, "quote-breakdown.xlsx", response.ContentTypeXLSX, data)
}

// DraftPDF renders the customer document of a draft
// @Summary Draft PDF
// @Tags quotes
// @Security BearerAuth
// @Accept json
// @Produce application/pdf
// @Param request body request.QuoteDraftRequest true "Draft"
// @Success 200 {file} file
// @Router /admin/quotes/pdf [post]
func (h *QuoteHandler) DraftPDF(c *gin.Context) {
	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	data, err := h.calculator.RenderDraftPDF(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, "quote-draft.pdf", response.ContentTypePDF, data)
}

// Create stores a draft as a QUOTED quote request
// @Summary Create quote
// @Tags quotes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body request.QuoteDraftRequest true "Draft"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /admin/quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	quote, calc, err := h.quoteService.CreateFromDraft(c.Request.Context(), GetUserID(c), draft)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quote created successfully", gin.H{
		"quote_request": quote,
		"calculation":   calc,
	})
}

func bindDraft(c *gin.Context) (*service.QuoteDraft, bool) {
	var req request.QuoteDraftRequest
	if !bindJSON(c, &req) {
		return nil, false
	}

	eventDate, err := request.ParseEventDate(req.Event.Date)
	if err != nil {
		response.Error(c, apperror.NewValidationError([]apperror.FieldError{{Field: "event.date", Message: err.Error()}}))
		return nil, false
	}

	selections := make([]service.ProductSelection, 0, len(req.Items))
	for _, item := range req.Items {
		selections = append(selections, service.ProductSelection{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			PeopleCount:    item.PeopleCount,
			HoursPerPerson: item.HoursPerPerson,
			UnitSalePrice:  item.UnitSalePrice,
		})
	}

	return &service.QuoteDraft{
		Selections:  selections,
		LineItems:   req.LineItems,
		Overrides:   req.Overrides,
		PdfConcepts: req.PdfConcepts,
		PdfTitle:    req.PdfTitle,
		PdfFooter:   req.PdfFooter,
		Customer: service.CustomerInfo{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Event: service.EventInfo{
			Type:         req.Event.Type,
			Date:         eventDate,
			Location:     req.Event.Location,
			Attendees:    req.Event.Attendees,
			Duration:     req.Event.Duration,
			DurationType: req.Event.DurationType,
		},
		Notes: req.Notes,
	}, true
}
