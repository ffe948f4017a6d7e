package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	quotationapp "github.com/lab404/backend/internal/application/quotation"
	"github.com/lab404/backend/internal/domain/quotation"
	"github.com/lab404/backend/internal/domain/shared/valueobject"
)

// QuotationHandler handles quotation lifecycle API endpoints
type QuotationHandler struct {
	BaseHandler
	service      *quotationapp.Service
	statsService *quotationapp.StatisticsService
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(service *quotationapp.Service, statsService *quotationapp.StatisticsService) *QuotationHandler {
	return &QuotationHandler{
		service:      service,
		statsService: statsService,
	}
}

// CustomerRequest is the customer contact block in requests
type CustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Company string `json:"company" binding:"omitempty,max=200"`
}

// CreateQuotationItemRequest is an item in the create request
type CreateQuotationItemRequest struct {
	ProductName string `json:"product_name" binding:"required,min=1,max=200"`
	ProductSKU  string `json:"product_sku" binding:"required,min=1,max=50"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

// CreateQuotationRequest represents a request to create a new quotation
type CreateQuotationRequest struct {
	Customer   CustomerRequest              `json:"customer" binding:"required"`
	Currency   string                       `json:"currency" binding:"omitempty,currency"`
	ValidUntil time.Time                    `json:"valid_until" binding:"required"`
	Items      []CreateQuotationItemRequest `json:"items"`
	Notes      string                       `json:"notes" binding:"omitempty,max=2000"`
}

// UpdateQuotationRequest represents a request to update a draft quotation
type UpdateQuotationRequest struct {
	Customer *CustomerRequest `json:"customer"`
	Notes    *string          `json:"notes"`
}

// AddItemRequest represents a request to add an item to a draft quotation
type AddItemRequest struct {
	ProductName string `json:"product_name" binding:"required,min=1,max=200"`
	ProductSKU  string `json:"product_sku" binding:"required,min=1,max=50"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
	UnitPrice   string `json:"unit_price" binding:"required"`
}

// UpdateItemRequest represents a request to update an item on a draft quotation
type UpdateItemRequest struct {
	Quantity  *int64  `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice *string `json:"unit_price"`
}

// SendQuotationRequest represents a request to send a quotation
type SendQuotationRequest struct {
	Notify bool `json:"notify"`
}

// ApproveQuotationRequest represents a request to approve a quotation
type ApproveQuotationRequest struct {
	Note   string `json:"note" binding:"omitempty,max=2000"`
	Notify bool   `json:"notify"`
}

// RejectQuotationRequest represents a request to reject a quotation
type RejectQuotationRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=2000"`
	Notify bool   `json:"notify"`
}

// ConvertQuotationRequest represents a request to convert a quotation to an order
type ConvertQuotationRequest struct {
	SelectedItemIDs []string `json:"selected_item_ids" binding:"required,min=1,dive,uuid"`
	Notes           string   `json:"notes" binding:"omitempty,max=2000"`
	Notify          bool     `json:"notify"`
}

// PreviewConversionRequest represents a request to preview a conversion
type PreviewConversionRequest struct {
	SelectedItemIDs []string `json:"selected_item_ids" binding:"required,min=1,dive,uuid"`
}

// ListQuotationsRequest represents list/filter query parameters
type ListQuotationsRequest struct {
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search       string `form:"search"`
	Status       string `form:"status"`
	CustomerName string `form:"customer_name"`
}

// RegisterRoutes registers all quotation routes
func (h *QuotationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotations := rg.Group("/quotations")
	{
		quotations.POST("", h.Create)
		quotations.GET("", h.List)
		quotations.GET("/stats", h.Stats)
		quotations.GET("/number/:number", h.GetByNumber)
		quotations.GET("/:id", h.Get)
		quotations.PUT("/:id", h.Update)
		quotations.DELETE("/:id", h.Delete)

		quotations.POST("/:id/items", h.AddItem)
		quotations.PUT("/:id/items/:item_id", h.UpdateItem)
		quotations.DELETE("/:id/items/:item_id", h.RemoveItem)

		quotations.POST("/:id/send", h.Send)
		quotations.POST("/:id/approve", h.Approve)
		quotations.POST("/:id/reject", h.Reject)
		quotations.POST("/:id/convert", h.Convert)
		quotations.POST("/:id/convert/preview", h.PreviewConversion)

		quotations.GET("/:id/orders", h.ListOrders)
	}

	orders := rg.Group("/orders")
	{
		orders.GET("/:id", h.GetOrder)
	}
}

// Create creates a new draft quotation
func (h *QuotationHandler) Create(c *gin.Context) {
	var req CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(req.Currency)
	}

	appReq := quotationapp.CreateQuotationRequest{
		Customer: quotationapp.CustomerInput{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Company: req.Customer.Company,
		},
		Currency:   currency,
		ValidUntil: req.ValidUntil,
		Notes:      req.Notes,
		CreatedBy:  getActorID(c),
	}

	for _, item := range req.Items {
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			h.BadRequest(c, "Invalid unit price format")
			return
		}
		appReq.Items = append(appReq.Items, quotationapp.CreateQuotationItemInput{
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
		})
	}

	result, err := h.service.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List lists quotations with filtering and pagination
func (h *QuotationHandler) List(c *gin.Context) {
	var req ListQuotationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	filter := quotationapp.ListFilter{
		Page:         req.Page,
		PageSize:     req.PageSize,
		OrderBy:      req.OrderBy,
		OrderDir:     req.OrderDir,
		Search:       req.Search,
		CustomerName: req.CustomerName,
	}
	if req.Status != "" {
		status := quotation.Status(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid status filter")
			return
		}
		filter.Status = &status
	}

	results, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, results, total, req.Page, req.PageSize)
}

// Stats returns the quotation pipeline statistics
func (h *QuotationHandler) Stats(c *gin.Context) {
	stats, err := h.statsService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Get retrieves a quotation by ID
func (h *QuotationHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByNumber retrieves a quotation by quotation number
func (h *QuotationHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Quotation number is required")
		return
	}

	result, err := h.service.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Update updates a draft quotation's editable fields
func (h *QuotationHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq := quotationapp.UpdateQuotationRequest{Notes: req.Notes}
	if req.Customer != nil {
		appReq.Customer = &quotationapp.CustomerInput{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Company: req.Customer.Company,
		}
	}

	result, err := h.service.Update(c.Request.Context(), id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete deletes a draft quotation
func (h *QuotationHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddItem adds an item to a draft quotation
func (h *QuotationHandler) AddItem(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		h.BadRequest(c, "Invalid unit price format")
		return
	}

	result, err := h.service.AddItem(c.Request.Context(), id, quotationapp.AddItemRequest{
		ProductName: req.ProductName,
		ProductSKU:  req.ProductSKU,
		Quantity:    req.Quantity,
		UnitPrice:   unitPrice,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UpdateItem updates an item on a draft quotation
func (h *QuotationHandler) UpdateItem(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseID(c, "item_id")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq := quotationapp.UpdateItemRequest{Quantity: req.Quantity}
	if req.UnitPrice != nil {
		unitPrice, err := decimal.NewFromString(*req.UnitPrice)
		if err != nil {
			h.BadRequest(c, "Invalid unit price format")
			return
		}
		appReq.UnitPrice = &unitPrice
	}

	result, err := h.service.UpdateItem(c.Request.Context(), id, itemID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RemoveItem removes an item from a draft quotation
func (h *QuotationHandler) RemoveItem(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseID(c, "item_id")
	if !ok {
		return
	}

	result, err := h.service.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Send marks a quotation as sent to the customer
func (h *QuotationHandler) Send(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req SendQuotationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}

	result, err := h.service.Send(c.Request.Context(), id, quotationapp.SendRequest{
		ActorID: getActorID(c),
		Notify:  req.Notify,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Approve approves a sent quotation
func (h *QuotationHandler) Approve(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req ApproveQuotationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}

	result, err := h.service.Approve(c.Request.Context(), id, quotationapp.ApproveRequest{
		Note:    req.Note,
		ActorID: getActorID(c),
		Notify:  req.Notify,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reject rejects a quotation with a mandatory reason
func (h *QuotationHandler) Reject(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req RejectQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.service.Reject(c.Request.Context(), id, quotationapp.RejectRequest{
		Reason:  req.Reason,
		ActorID: getActorID(c),
		Notify:  req.Notify,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Convert converts the selected items of an approved quotation into an order
func (h *QuotationHandler) Convert(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req ConvertQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	selectedIDs, err := parseUUIDs(req.SelectedItemIDs)
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	result, err := h.service.ConvertToOrder(c.Request.Context(), id, quotationapp.ConvertRequest{
		SelectedItemIDs: selectedIDs,
		Notes:           req.Notes,
		ActorID:         getActorID(c),
		Notify:          req.Notify,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// PreviewConversion returns what a conversion would produce without applying it
func (h *QuotationHandler) PreviewConversion(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req PreviewConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	selectedIDs, err := parseUUIDs(req.SelectedItemIDs)
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	result, err := h.service.PreviewConversion(c.Request.Context(), id, selectedIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListOrders lists the orders produced from a quotation
func (h *QuotationHandler) ListOrders(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	results, err := h.service.ListOrdersByQuotation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// GetOrder retrieves an order by ID
func (h *QuotationHandler) GetOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// parseID parses a UUID path parameter, replying 400 on failure
func (h *QuotationHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
