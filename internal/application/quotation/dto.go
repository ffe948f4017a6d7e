package quotation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lab404/backend/internal/domain/order"
	"github.com/lab404/backend/internal/domain/quotation"
	"github.com/lab404/backend/internal/domain/shared/valueobject"
)

// CustomerInput is the customer contact snapshot supplied at creation
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// CreateQuotationItemInput is an item in the create request
type CreateQuotationItemInput struct {
	ProductName string
	ProductSKU  string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// CreateQuotationRequest is the application-level create request
type CreateQuotationRequest struct {
	Customer   CustomerInput
	Currency   valueobject.Currency
	ValidUntil time.Time
	Items      []CreateQuotationItemInput
	Notes      string
	CreatedBy  uuid.UUID
}

// UpdateQuotationRequest updates draft-only fields
type UpdateQuotationRequest struct {
	Customer *CustomerInput
	Notes    *string
}

// AddItemRequest adds an item to a draft quotation
type AddItemRequest struct {
	ProductName string
	ProductSKU  string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// UpdateItemRequest updates an item on a draft quotation
type UpdateItemRequest struct {
	Quantity  *int64
	UnitPrice *decimal.Decimal
}

// SendRequest sends a quotation to the customer
type SendRequest struct {
	ActorID uuid.UUID
	Notify  bool
}

// ApproveRequest approves a sent quotation; the note is optional
type ApproveRequest struct {
	Note    string
	ActorID uuid.UUID
	Notify  bool
}

// RejectRequest rejects a quotation; the reason is mandatory
type RejectRequest struct {
	Reason  string
	ActorID uuid.UUID
	Notify  bool
}

// ConvertRequest converts selected items of an approved quotation
type ConvertRequest struct {
	SelectedItemIDs []uuid.UUID
	Notes           string
	ActorID         uuid.UUID
	Notify          bool
}

// ListFilter filters quotation lists
type ListFilter struct {
	Page         int
	PageSize     int
	OrderBy      string
	OrderDir     string
	Search       string
	Status       *quotation.Status
	CustomerName string
	StartDate    *time.Time
	EndDate      *time.Time
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
}

// QuotationItemResponse represents a quotation item in responses
type QuotationItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Consumed    bool            `json:"consumed"`
	ConsumedAt  *time.Time      `json:"consumed_at,omitempty"`
}

// QuotationResponse represents a quotation in responses
type QuotationResponse struct {
	ID              uuid.UUID               `json:"id"`
	QuotationNumber string                  `json:"quotation_number"`
	CustomerName    string                  `json:"customer_name"`
	CustomerEmail   string                  `json:"customer_email"`
	CustomerPhone   string                  `json:"customer_phone"`
	CustomerCompany string                  `json:"customer_company"`
	Currency        valueobject.Currency    `json:"currency"`
	ValidUntil      time.Time               `json:"valid_until"`
	Expired         bool                    `json:"expired"`
	Items           []QuotationItemResponse `json:"items"`
	TotalAmount     decimal.Decimal         `json:"total_amount"`
	Status          quotation.Status        `json:"status"`
	Notes           string                  `json:"notes,omitempty"`
	SentAt          *time.Time              `json:"sent_at,omitempty"`
	ApprovedAt      *time.Time              `json:"approved_at,omitempty"`
	ApprovalNote    string                  `json:"approval_note,omitempty"`
	RejectedAt      *time.Time              `json:"rejected_at,omitempty"`
	RejectReason    string                  `json:"reject_reason,omitempty"`
	ConvertedAt     *time.Time              `json:"converted_at,omitempty"`
	CreatedBy       *uuid.UUID              `json:"created_by,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	Version         int                     `json:"version"`
}

// OrderItemResponse represents an order line in responses
type OrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	QuotationItemID uuid.UUID       `json:"quotation_item_id"`
	ProductName     string          `json:"product_name"`
	ProductSKU      string          `json:"product_sku"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// OrderResponse represents a created order in responses
type OrderResponse struct {
	ID              uuid.UUID            `json:"id"`
	OrderNumber     string               `json:"order_number"`
	QuotationID     uuid.UUID            `json:"quotation_id"`
	QuotationNumber string               `json:"quotation_number"`
	CustomerName    string               `json:"customer_name"`
	Currency        valueobject.Currency `json:"currency"`
	Items           []OrderItemResponse  `json:"items"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Status          order.Status         `json:"status"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ConvertToOrderResponse is the structured result of a conversion
type ConvertToOrderResponse struct {
	Quotation        QuotationResponse `json:"quotation"`
	Order            OrderResponse     `json:"order"`
	IsPartial        bool              `json:"is_partial"`
	ConvertedItemIDs []uuid.UUID       `json:"converted_item_ids"`
	RemainingItemIDs []uuid.UUID       `json:"remaining_item_ids"`
}

// ConversionPreviewResponse is the non-mutating preview of a conversion
type ConversionPreviewResponse struct {
	IsPartial        bool            `json:"is_partial"`
	SelectedItemIDs  []uuid.UUID     `json:"selected_item_ids"`
	RemainingItemIDs []uuid.UUID     `json:"remaining_item_ids"`
	SelectedTotal    decimal.Decimal `json:"selected_total"`
	RemainingTotal   decimal.Decimal `json:"remaining_total"`
}

// QuotationStats is the read-only rollup produced by the aggregator
type QuotationStats struct {
	TotalCount     int64            `json:"total_count"`
	CountByStatus  map[string]int64 `json:"count_by_status"`
	TotalValue     decimal.Decimal  `json:"total_value"`
	AverageValue   decimal.Decimal  `json:"average_value"`
	ConversionRate decimal.Decimal  `json:"conversion_rate"`
}

// ToQuotationResponse maps a quotation aggregate to its response DTO
func ToQuotationResponse(q *quotation.Quotation, now time.Time) QuotationResponse {
	items := make([]QuotationItemResponse, len(q.Items))
	for i, item := range q.Items {
		items[i] = QuotationItemResponse{
			ID:          item.ID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Consumed:    item.Consumed,
			ConsumedAt:  item.ConsumedAt,
		}
	}

	return QuotationResponse{
		ID:              q.ID,
		QuotationNumber: q.QuotationNumber,
		CustomerName:    q.Customer.Name,
		CustomerEmail:   q.Customer.Email,
		CustomerPhone:   q.Customer.Phone,
		CustomerCompany: q.Customer.Company,
		Currency:        q.Currency,
		ValidUntil:      q.ValidUntil,
		Expired:         q.IsExpired(now),
		Items:           items,
		TotalAmount:     q.TotalAmount,
		Status:          q.Status,
		Notes:           q.Notes,
		SentAt:          q.SentAt,
		ApprovedAt:      q.ApprovedAt,
		ApprovalNote:    q.ApprovalNote,
		RejectedAt:      q.RejectedAt,
		RejectReason:    q.RejectReason,
		ConvertedAt:     q.ConvertedAt,
		CreatedBy:       q.CreatedBy,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
		Version:         q.Version,
	}
}

// ToOrderResponse maps an order aggregate to its response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:              item.ID,
			QuotationItemID: item.QuotationItemID,
			ProductName:     item.ProductName,
			ProductSKU:      item.ProductSKU,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			LineTotal:       item.LineTotal,
		}
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		QuotationID:     o.QuotationID,
		QuotationNumber: o.QuotationNumber,
		CustomerName:    o.Customer.Name,
		Currency:        o.Currency,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
	}
}
