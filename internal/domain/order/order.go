package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lab404/backend/internal/domain/shared"
	"github.com/lab404/backend/internal/domain/shared/valueobject"
)

// Status represents the status of an order
// The full order lifecycle (fulfilment, payment) is owned by a downstream
// system; orders produced here always start as NEW.
type Status string

const (
	StatusNew Status = "NEW"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CustomerInfo is the customer contact snapshot carried over from the
// quotation at conversion time. It is a copy, not a live reference.
type CustomerInfo struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// OrderItem represents a line item in an order
// QuotationItemID records which quotation item produced this line; a
// quotation item appears in at most one order.
type OrderItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID `gorm:"type:uuid;index"`
	QuotationItemID uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	ProductName     string
	ProductSKU      string
	Quantity        int64
	UnitPrice       decimal.Decimal `gorm:"type:numeric(18,4)"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(18,4)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Order represents an order produced by converting a quotation.
// QuotationID is a non-owning back-reference for traceability: deleting the
// order never cascades to the quotation, and vice versa.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string    `gorm:"uniqueIndex;size:50"`
	QuotationID     uuid.UUID `gorm:"type:uuid;index"`
	QuotationNumber string    `gorm:"size:50"`
	Customer        CustomerInfo `gorm:"embedded;embeddedPrefix:customer_"`
	Currency        valueobject.Currency
	Items           []OrderItem     `gorm:"foreignKey:OrderID"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(18,4)"`
	Status          Status
	Notes           string
}

// NewOrder creates a new order shell linked back to its source quotation.
// Lines are added via AddLine by the conversion.
func NewOrder(orderNumber string, quotationID uuid.UUID, quotationNumber string, customer CustomerInfo, currency valueobject.Currency) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if quotationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTATION_REF", "Source quotation ID cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency code")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		QuotationID:       quotationID,
		QuotationNumber:   quotationNumber,
		Customer:          customer,
		Currency:          currency,
		Items:             make([]OrderItem, 0),
		TotalAmount:       decimal.Zero,
		Status:            StatusNew,
	}, nil
}

// AddLine appends a line copied verbatim from a quotation item.
// Quantity and unit price are preserved as-is; no re-pricing happens here.
func (o *Order) AddLine(quotationItemID uuid.UUID, productName, productSKU string, quantity int64, unitPrice decimal.Decimal) error {
	if quotationItemID == uuid.Nil {
		return shared.NewDomainError("INVALID_ITEM_REF", "Quotation item ID cannot be empty")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	lineTotal := unitPrice.Mul(decimal.NewFromInt(quantity))
	o.Items = append(o.Items, OrderItem{
		ID:              uuid.New(),
		OrderID:         o.ID,
		QuotationItemID: quotationItemID,
		ProductName:     productName,
		ProductSKU:      productSKU,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		LineTotal:       lineTotal,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	o.TotalAmount = o.TotalAmount.Add(lineTotal)
	o.UpdatedAt = now

	return nil
}

// ItemCount returns the number of lines in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// GetTotalMoney returns the order total as a Money value object
func (o *Order) GetTotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalAmount, o.Currency)
	return m
}
