package quotation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lab404/backend/internal/domain/order"
	"github.com/lab404/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeQuotation = "Quotation"

// Event type constants
const (
	EventTypeQuotationCreated   = "QuotationCreated"
	EventTypeQuotationSent      = "QuotationSent"
	EventTypeQuotationApproved  = "QuotationApproved"
	EventTypeQuotationRejected  = "QuotationRejected"
	EventTypeQuotationConverted = "QuotationConverted"
)

// QuotationCreatedEvent is raised when a new quotation is created
type QuotationCreatedEvent struct {
	shared.BaseDomainEvent
	QuotationID     uuid.UUID `json:"quotation_id"`
	QuotationNumber string    `json:"quotation_number"`
	CustomerName    string    `json:"customer_name"`
}

// NewQuotationCreatedEvent creates a new QuotationCreatedEvent
func NewQuotationCreatedEvent(q *Quotation) *QuotationCreatedEvent {
	return &QuotationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationCreated, AggregateTypeQuotation, q.ID),
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		CustomerName:    q.Customer.Name,
	}
}

// EventType returns the event type name
func (e *QuotationCreatedEvent) EventType() string {
	return EventTypeQuotationCreated
}

// QuotationSentEvent is raised when a quotation is sent to the customer
type QuotationSentEvent struct {
	shared.BaseDomainEvent
	QuotationID     uuid.UUID       `json:"quotation_id"`
	QuotationNumber string          `json:"quotation_number"`
	BeforeStatus    Status          `json:"before_status"`
	AfterStatus     Status          `json:"after_status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ActorID         uuid.UUID       `json:"actor_id"`
}

// NewQuotationSentEvent creates a new QuotationSentEvent
func NewQuotationSentEvent(q *Quotation, before Status, actorID uuid.UUID) *QuotationSentEvent {
	return &QuotationSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationSent, AggregateTypeQuotation, q.ID),
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		BeforeStatus:    before,
		AfterStatus:     q.Status,
		TotalAmount:     q.TotalAmount,
		ActorID:         actorID,
	}
}

// EventType returns the event type name
func (e *QuotationSentEvent) EventType() string {
	return EventTypeQuotationSent
}

// QuotationApprovedEvent is raised when a quotation is approved
type QuotationApprovedEvent struct {
	shared.BaseDomainEvent
	QuotationID     uuid.UUID `json:"quotation_id"`
	QuotationNumber string    `json:"quotation_number"`
	BeforeStatus    Status    `json:"before_status"`
	AfterStatus     Status    `json:"after_status"`
	ApprovalNote    string    `json:"approval_note,omitempty"`
	ActorID         uuid.UUID `json:"actor_id"`
}

// NewQuotationApprovedEvent creates a new QuotationApprovedEvent
func NewQuotationApprovedEvent(q *Quotation, before Status, actorID uuid.UUID) *QuotationApprovedEvent {
	return &QuotationApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationApproved, AggregateTypeQuotation, q.ID),
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		BeforeStatus:    before,
		AfterStatus:     q.Status,
		ApprovalNote:    q.ApprovalNote,
		ActorID:         actorID,
	}
}

// EventType returns the event type name
func (e *QuotationApprovedEvent) EventType() string {
	return EventTypeQuotationApproved
}

// QuotationRejectedEvent is raised when a quotation is rejected
type QuotationRejectedEvent struct {
	shared.BaseDomainEvent
	QuotationID     uuid.UUID `json:"quotation_id"`
	QuotationNumber string    `json:"quotation_number"`
	BeforeStatus    Status    `json:"before_status"`
	AfterStatus     Status    `json:"after_status"`
	Reason          string    `json:"reason"`
	ActorID         uuid.UUID `json:"actor_id"`
}

// NewQuotationRejectedEvent creates a new QuotationRejectedEvent
func NewQuotationRejectedEvent(q *Quotation, before Status, reason string, actorID uuid.UUID) *QuotationRejectedEvent {
	return &QuotationRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationRejected, AggregateTypeQuotation, q.ID),
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		BeforeStatus:    before,
		AfterStatus:     q.Status,
		Reason:          reason,
		ActorID:         actorID,
	}
}

// EventType returns the event type name
func (e *QuotationRejectedEvent) EventType() string {
	return EventTypeQuotationRejected
}

// QuotationConvertedEvent is raised on every conversion, full or partial
type QuotationConvertedEvent struct {
	shared.BaseDomainEvent
	QuotationID      uuid.UUID       `json:"quotation_id"`
	QuotationNumber  string          `json:"quotation_number"`
	BeforeStatus     Status          `json:"before_status"`
	AfterStatus      Status          `json:"after_status"`
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	OrderTotal       decimal.Decimal `json:"order_total"`
	IsPartial        bool            `json:"is_partial"`
	ConvertedItemIDs []uuid.UUID     `json:"converted_item_ids"`
	RemainingItemIDs []uuid.UUID     `json:"remaining_item_ids"`
	ActorID          uuid.UUID       `json:"actor_id"`
}

// NewQuotationConvertedEvent creates a new QuotationConvertedEvent
func NewQuotationConvertedEvent(q *Quotation, before Status, o *order.Order, converted, remaining []uuid.UUID, isPartial bool, actorID uuid.UUID) *QuotationConvertedEvent {
	return &QuotationConvertedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeQuotationConverted, AggregateTypeQuotation, q.ID),
		QuotationID:      q.ID,
		QuotationNumber:  q.QuotationNumber,
		BeforeStatus:     before,
		AfterStatus:      q.Status,
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		OrderTotal:       o.TotalAmount,
		IsPartial:        isPartial,
		ConvertedItemIDs: converted,
		RemainingItemIDs: remaining,
		ActorID:          actorID,
	}
}

// EventType returns the event type name
func (e *QuotationConvertedEvent) EventType() string {
	return EventTypeQuotationConverted
}
