package quotation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lab404/backend/internal/domain/shared"
	"github.com/lab404/backend/internal/domain/shared/valueobject"
)

// Status represents the stored status of a quotation.
// EXPIRED is deliberately not part of this enum: expiration is a derived
// condition (ValidUntil in the past) and is never written to storage.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusConverted Status = "CONVERTED"
)

// IsValid checks if the status is a valid stored Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusConverted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses from which no transition is permitted
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusConverted
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent
	case StatusSent:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		// A partial conversion leaves the quotation APPROVED, so
		// APPROVED -> APPROVED is a legal (re-enterable) transition.
		return target == StatusConverted || target == StatusRejected || target == StatusApproved
	case StatusRejected, StatusConverted:
		return false
	}
	return false
}

// CustomerSnapshot is the customer contact info copied onto the quotation at
// creation time. It is a snapshot, not a live reference to a customer record.
type CustomerSnapshot struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// QuotationItem represents a line item in a quotation
type QuotationItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuotationID uuid.UUID `gorm:"type:uuid;index"`
	ProductName string
	ProductSKU  string
	Quantity    int64
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4)"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(18,4)"`
	Consumed    bool            `gorm:"not null;default:false"`
	ConsumedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewQuotationItem creates a new quotation item
func NewQuotationItem(quotationID uuid.UUID, productName, productSKU string, quantity int64, unitPrice valueobject.Money) (*QuotationItem, error) {
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &QuotationItem{
		ID:          uuid.New(),
		QuotationID: quotationID,
		ProductName: productName,
		ProductSKU:  productSKU,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		LineTotal:   unitPrice.Amount().Mul(decimal.NewFromInt(quantity)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateQuantity updates the item quantity and recalculates the line total
func (i *QuotationItem) UpdateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}

	i.Quantity = quantity
	i.LineTotal = i.UnitPrice.Mul(decimal.NewFromInt(quantity))
	i.UpdatedAt = time.Now()

	return nil
}

// UpdateUnitPrice updates the unit price and recalculates the line total
func (i *QuotationItem) UpdateUnitPrice(unitPrice valueobject.Money) error {
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	i.UnitPrice = unitPrice.Amount()
	i.LineTotal = i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
	i.UpdatedAt = time.Now()

	return nil
}

// markConsumed flags the item as converted; a consumed item is excluded from
// every future conversion of this quotation.
func (i *QuotationItem) markConsumed(now time.Time) {
	i.Consumed = true
	i.ConsumedAt = &now
	i.UpdatedAt = now
}

// Quotation represents a priced, time-limited offer to a customer.
// It is the aggregate root of the quotation lifecycle: all status changes go
// through the transition decision in transition.go.
type Quotation struct {
	shared.BaseAggregateRoot
	QuotationNumber string               `gorm:"uniqueIndex;size:50"`
	Customer        CustomerSnapshot     `gorm:"embedded;embeddedPrefix:customer_"`
	Currency        valueobject.Currency `gorm:"size:3"`
	ValidUntil      time.Time
	Items           []QuotationItem `gorm:"foreignKey:QuotationID"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(18,4)"`
	Status          Status          `gorm:"size:20;index"`
	Notes           string
	SentAt          *time.Time
	ApprovedAt      *time.Time
	ApprovalNote    string
	RejectedAt      *time.Time
	RejectReason    string
	ConvertedAt     *time.Time
}

// NewQuotation creates a new draft quotation
func NewQuotation(number string, customer CustomerSnapshot, currency valueobject.Currency, validUntil time.Time, createdBy uuid.UUID) (*Quotation, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_QUOTATION_NUMBER", "Quotation number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_QUOTATION_NUMBER", "Quotation number cannot exceed 50 characters")
	}
	if customer.Name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency code")
	}
	if validUntil.IsZero() {
		return nil, shared.NewDomainError("INVALID_VALID_UNTIL", "Expiration timestamp is required")
	}

	q := &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRootWithCreator(createdBy),
		QuotationNumber:   number,
		Customer:          customer,
		Currency:          currency,
		ValidUntil:        validUntil,
		Items:             make([]QuotationItem, 0),
		TotalAmount:       decimal.Zero,
		Status:            StatusDraft,
	}

	q.AddDomainEvent(NewQuotationCreatedEvent(q))

	return q, nil
}

// IsExpired reports whether the quotation is past its ValidUntil at the given
// time. Terminal statuses are never reported as expired: REJECTED and
// CONVERTED stay terminal regardless of the clock.
func (q *Quotation) IsExpired(now time.Time) bool {
	if q.Status.IsTerminal() {
		return false
	}
	return now.After(q.ValidUntil)
}

// AddItem adds a new item to the quotation
// Only allowed in DRAFT status; the unit price currency must match the quotation
func (q *Quotation) AddItem(productName, productSKU string, quantity int64, unitPrice valueobject.Money) (*QuotationItem, error) {
	if q.Status != StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft quotation")
	}
	if unitPrice.Currency() != q.Currency {
		return nil, shared.NewDomainError("CURRENCY_MISMATCH",
			fmt.Sprintf("Unit price currency %s does not match quotation currency %s", unitPrice.Currency(), q.Currency))
	}

	item, err := NewQuotationItem(q.ID, productName, productSKU, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	q.Items = append(q.Items, *item)
	q.recalculateTotal()
	q.UpdatedAt = time.Now()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing item
// Only allowed in DRAFT status
func (q *Quotation) UpdateItemQuantity(itemID uuid.UUID, quantity int64) error {
	if q.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items on a non-draft quotation")
	}

	for idx := range q.Items {
		if q.Items[idx].ID == itemID {
			if err := q.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			q.recalculateTotal()
			q.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Quotation item not found")
}

// UpdateItemPrice updates the unit price of an existing item
// Only allowed in DRAFT status
func (q *Quotation) UpdateItemPrice(itemID uuid.UUID, unitPrice valueobject.Money) error {
	if q.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items on a non-draft quotation")
	}
	if unitPrice.Currency() != q.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH",
			fmt.Sprintf("Unit price currency %s does not match quotation currency %s", unitPrice.Currency(), q.Currency))
	}

	for idx := range q.Items {
		if q.Items[idx].ID == itemID {
			if err := q.Items[idx].UpdateUnitPrice(unitPrice); err != nil {
				return err
			}
			q.recalculateTotal()
			q.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Quotation item not found")
}

// RemoveItem removes an item from the quotation
// Only allowed in DRAFT status
func (q *Quotation) RemoveItem(itemID uuid.UUID) error {
	if q.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-draft quotation")
	}

	for idx, item := range q.Items {
		if item.ID == itemID {
			q.Items = append(q.Items[:idx], q.Items[idx+1:]...)
			q.recalculateTotal()
			q.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Quotation item not found")
}

// SetNotes sets the quotation notes
func (q *Quotation) SetNotes(notes string) {
	q.Notes = notes
	q.UpdatedAt = time.Now()
}

// Send transitions the quotation from DRAFT to SENT
func (q *Quotation) Send(now time.Time, actorID uuid.UUID) error {
	if d := q.Decide(ActionSend, TransitionContext{Now: now}); !d.Allowed {
		return shared.NewDomainError(d.Code, d.Reason)
	}
	if len(q.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot send a quotation without items")
	}

	before := q.Status
	q.Status = StatusSent
	q.SentAt = &now
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationSentEvent(q, before, actorID))

	return nil
}

// Approve transitions the quotation from SENT to APPROVED.
// The note is optional; expiration is checked before the stored status.
func (q *Quotation) Approve(now time.Time, note string, actorID uuid.UUID) error {
	if d := q.Decide(ActionApprove, TransitionContext{Now: now}); !d.Allowed {
		return shared.NewDomainError(d.Code, d.Reason)
	}

	before := q.Status
	q.Status = StatusApproved
	q.ApprovedAt = &now
	q.ApprovalNote = note
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationApprovedEvent(q, before, actorID))

	return nil
}

// Reject transitions the quotation to REJECTED (terminal).
// Allowed from SENT and from APPROVED; a non-empty reason is mandatory.
func (q *Quotation) Reject(now time.Time, reason string, actorID uuid.UUID) error {
	if d := q.Decide(ActionReject, TransitionContext{Now: now, Reason: reason}); !d.Allowed {
		return shared.NewDomainError(d.Code, d.Reason)
	}

	before := q.Status
	q.Status = StatusRejected
	q.RejectedAt = &now
	q.RejectReason = reason
	q.UpdatedAt = now

	q.AddDomainEvent(NewQuotationRejectedEvent(q, before, reason, actorID))

	return nil
}

// recalculateTotal recomputes the cached total from the current item set.
// Called whenever items change; consumed items keep contributing because the
// total reflects the quotation as offered, not the residual.
func (q *Quotation) recalculateTotal() {
	total := decimal.Zero
	for _, item := range q.Items {
		total = total.Add(item.LineTotal)
	}
	q.TotalAmount = total
}

// GetItem returns an item by its ID
func (q *Quotation) GetItem(itemID uuid.UUID) *QuotationItem {
	for idx := range q.Items {
		if q.Items[idx].ID == itemID {
			return &q.Items[idx]
		}
	}
	return nil
}

// OpenItems returns the items not yet consumed by a conversion
func (q *Quotation) OpenItems() []QuotationItem {
	open := make([]QuotationItem, 0, len(q.Items))
	for _, item := range q.Items {
		if !item.Consumed {
			open = append(open, item)
		}
	}
	return open
}

// ItemCount returns the number of items in the quotation
func (q *Quotation) ItemCount() int {
	return len(q.Items)
}

// GetTotalMoney returns the total as a Money value object
func (q *Quotation) GetTotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(q.TotalAmount, q.Currency)
	return m
}

// IsDraft returns true if the quotation is in draft status
func (q *Quotation) IsDraft() bool {
	return q.Status == StatusDraft
}

// IsTerminal returns true if the quotation is rejected or converted
func (q *Quotation) IsTerminal() bool {
	return q.Status.IsTerminal()
}

// CanModify returns true if the quotation contents can still be edited
func (q *Quotation) CanModify() bool {
	return q.IsDraft()
}
