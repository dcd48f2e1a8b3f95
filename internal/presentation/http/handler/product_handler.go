package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/application/service"
	"github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/presentation/http/dto/request"
	"github.com/resona/rental-api/internal/presentation/http/dto/response"
	"github.com/resona/rental-api/pkg/apperror"
)

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	catalogService *service.CatalogService
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// List handles listing active products
// @Summary List products
// @Tags products
// @Produce json
// @Param search query string false "Name search"
// @Param category_id query string false "Category ID"
// @Param packs_only query bool false "Only packs"
// @Success 200 {object} response.APIResponse
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter request.ProductFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.ProductFilterParams{
		Pagination: pageParams(filter.Page, filter.PerPage),
		Search:     filter.Search,
		PacksOnly:  filter.PacksOnly,
		ActiveOnly: true,
		SortBy:     filter.SortBy,
		SortOrder:  filter.SortOrder,
	}
	if filter.CategoryID != "" {
		catID, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			response.BadRequest(c, "Invalid category ID")
			return
		}
		params.CategoryID = &catID
	}

	result, err := h.catalogService.ListProducts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Products retrieved successfully", result)
}

// Get handles fetching an active product
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "product")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !product.Active {
		response.Error(c, apperror.NewNotFoundError("Product"))
		return
	}

	response.OK(c, "Product retrieved successfully", product)
}

// Create handles creating a product
// @Summary Create product
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.ProductRequest true "Product"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /admin/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req request.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), productInput(&req))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Product created successfully", product)
}

// Update handles updating a product
// @Summary Update product
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body request.ProductRequest true "Changed fields"
// @Success 200 {object} response.APIResponse
// @Router /admin/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "product")
	if !ok {
		return
	}

	var req request.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, productInput(&req))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product updated successfully", product)
}

// Delete handles deleting a product
// @Summary Delete product
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response.APIResponse
// @Router /admin/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "product")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Product deleted successfully", nil)
}

// ListCategories handles listing categories
// @Summary List categories
// @Tags products
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /categories [get]
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Categories retrieved successfully", categories)
}

// CreateCategory handles creating a category
// @Summary Create category
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.CreateCategoryRequest true "Category"
// @Success 201 {object} response.APIResponse
// @Router /admin/categories [post]
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req request.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Category created successfully", category)
}

func productInput(req *request.ProductRequest) *service.ProductInput {
	return &service.ProductInput{
		CategoryID:       req.CategoryID,
		Name:             req.Name,
		Description:      req.Description,
		PricePerDay:      req.PricePerDay,
		PricePerUnit:     req.PricePerUnit,
		PurchasePrice:    req.PurchasePrice,
		ShippingCost:     req.ShippingCost,
		InstallationCost: req.InstallationCost,
		IsConsumable:     req.IsConsumable,
		IsPack:           req.IsPack,
		Stock:            req.Stock,
		Active:           req.Active,
	}
}
