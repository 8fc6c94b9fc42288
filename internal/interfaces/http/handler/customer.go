package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appcustomer "github.com/custdash/backend/internal/application/customer"
	"github.com/custdash/backend/internal/interfaces/http/dto"
	"github.com/custdash/backend/internal/interfaces/http/middleware"
)

// CustomerHandler exposes customer CRUD over HTTP. Every endpoint
// resolves the caller's visibility mode first; the application layer
// decides what that mode is allowed to see and write.
type CustomerHandler struct {
	BaseHandler
	service *appcustomer.Service
}

// NewCustomerHandler creates a customer handler
func NewCustomerHandler(service *appcustomer.Service) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// RegisterRoutes wires the customer endpoints onto the API group.
// The bulk route is registered before the parameterized routes so gin
// never treats "bulk" as a customer id.
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.List)
		customers.DELETE("/bulk", h.BulkDelete)
		customers.GET("/:id", h.Get)
		customers.PUT("/:id", h.Update)
		customers.DELETE("/:id", h.Delete)
	}
}

// Create handles POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req appcustomer.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	view, err := h.service.Create(c.Request.Context(), req, middleware.GetVisibility(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, view)
}

// List handles GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	var query appcustomer.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), query, middleware.GetVisibility(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, dto.Meta{
		Page:       result.Meta.Page,
		PageSize:   result.Meta.PageSize,
		Total:      result.Meta.Total,
		TotalPages: result.Meta.TotalPages,
	})
}

// Get handles GET /customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), id, middleware.GetVisibility(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// Update handles PUT /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req appcustomer.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	view, err := h.service.Update(c.Request.Context(), id, req, middleware.GetVisibility(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// Delete handles DELETE /customers/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// BulkDelete handles DELETE /customers/bulk
func (h *CustomerHandler) BulkDelete(c *gin.Context) {
	var req appcustomer.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// bindID parses the :id path parameter, responding 400 on failure.
func (h *CustomerHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return uuid.Nil, false
	}
	return id, true
}
