package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resona/rental-api/internal/application/service"
	"github.com/resona/rental-api/internal/domain/enum"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/presentation/http/dto/request"
	"github.com/resona/rental-api/internal/presentation/http/dto/response"
	"github.com/resona/rental-api/pkg/apperror"
)

// QuoteRequestHandler handles quote request HTTP requests
type QuoteRequestHandler struct {
	quoteService *service.QuoteRequestService
}

// NewQuoteRequestHandler creates a new quote request handler
func NewQuoteRequestHandler(quoteService *service.QuoteRequestService) *QuoteRequestHandler {
	return &QuoteRequestHandler{quoteService: quoteService}
}

// Submit handles the public quote form
// @Summary Submit quote request
// @Tags quote-requests
// @Accept json
// @Produce json
// @Param request body request.SubmitQuoteRequest true "Quote request"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 429 {object} response.APIResponse
// @Router /quote-requests [post]
func (h *QuoteRequestHandler) Submit(c *gin.Context) {
	var req request.SubmitQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	eventDate, err := request.ParseEventDate(req.EventDate)
	if err != nil {
		response.Error(c, apperror.NewValidationError([]apperror.FieldError{{Field: "event_date", Message: err.Error()}}))
		return
	}

	quote, err := h.quoteService.Submit(c.Request.Context(), &service.SubmitQuoteRequestInput{
		Customer: service.CustomerInfo{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		Event: service.EventInfo{
			Type:         req.EventType,
			Date:         eventDate,
			Location:     req.EventLocation,
			Attendees:    req.Attendees,
			Duration:     req.Duration,
			DurationType: req.DurationType,
		},
		SelectedPack:   req.SelectedPack,
		Extras:         req.SelectedExtras,
		EstimatedTotal: req.EstimatedTotal,
		Notes:          req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quote request submitted successfully", gin.H{
		"id":        quote.ID,
		"reference": quote.Reference,
		"status":    quote.Status,
	})
}

// List handles listing quote requests
// @Summary List quote requests
// @Tags quote-requests
// @Security BearerAuth
// @Produce json
// @Param status query string false "Status"
// @Param search query string false "Reference, name or email"
// @Success 200 {object} response.APIResponse
// @Router /admin/quote-requests [get]
func (h *QuoteRequestHandler) List(c *gin.Context) {
	var filter request.QuoteRequestFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.QuoteRequestFilterParams{
		Pagination: pageParams(filter.Page, filter.PerPage),
		Search:     filter.Search,
		SortBy:     filter.SortBy,
		SortOrder:  filter.SortOrder,
	}
	if filter.Status != "" {
		status, err := enum.ParseQuoteRequestStatus(filter.Status)
		if err != nil {
			response.BadRequest(c, "Invalid status")
			return
		}
		params.Status = &status
	}

	result, err := h.quoteService.ListQuoteRequests(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Quote requests retrieved successfully", result)
}

// Stats handles the quote request counters
// @Summary Quote request stats
// @Tags quote-requests
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /admin/quote-requests/stats [get]
func (h *QuoteRequestHandler) Stats(c *gin.Context) {
	stats, err := h.quoteService.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quote request stats retrieved successfully", stats)
}

// Get handles fetching a quote request
// @Summary Get quote request
// @Tags quote-requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Quote request ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /admin/quote-requests/{id} [get]
func (h *QuoteRequestHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "quote request")
	if !ok {
		return
	}

	quote, err := h.quoteService.GetQuoteRequest(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quote request retrieved successfully", quote)
}

// Update handles status and admin notes changes
// @Summary Update quote request
// @Tags quote-requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Quote request ID"
// @Param request body request.UpdateQuoteRequestRequest true "Changes"
// @Success 200 {object} response.APIResponse
// @Router /admin/quote-requests/{id} [put]
func (h *QuoteRequestHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "quote request")
	if !ok {
		return
	}

	var req request.UpdateQuoteRequestRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.UpdateQuoteRequest(c.Request.Context(), id, &service.UpdateQuoteRequestInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quote request updated successfully", quote)
}

// Delete handles deleting a quote request
// @Summary Delete quote request
// @Tags quote-requests
// @Security BearerAuth
// @Param id path string true "Quote request ID"
// @Success 200 {object} response.APIResponse
// @Router /admin/quote-requests/{id} [delete]
func (h *QuoteRequestHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "quote request")
	if !ok {
		return
	}

	if err := h.quoteService.DeleteQuoteRequest(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Quote request deleted successfully", nil)
}

// Convert turns a quote request into a confirmed order
// @Summary Convert to order
// @Tags quote-requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Quote request ID"
// @Param Idempotency-Key header string true "Idempotency key"
// @Success 201 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /admin/quote-requests/{id}/convert [post]
func (h *QuoteRequestHandler) Convert(c *gin.Context) {
	id, ok := paramID(c, "quote request")
	if !ok {
		return
	}

	order, err := h.quoteService.ConvertToOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Quote request converted successfully", order)
}

// PDF renders and archives the customer document of a stored quote
// @Summary Quote request PDF
// @Tags quote-requests
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "Quote request ID"
// @Success 200 {file} file
// @Router /admin/quote-requests/{id}/pdf [get]
func (h *QuoteRequestHandler) PDF(c *gin.Context) {
	id, ok := paramID(c, "quote request")
	if !ok {
		return
	}

	data, quote, err := h.quoteService.RenderPDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, quote.Reference+".pdf", response.ContentTypePDF, data)
}
