package quotation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lab404/backend/internal/domain/quotation"
)

// LifecycleEvent is the before/after snapshot handed to the best-effort
// collaborators after a transition has been durably committed.
type LifecycleEvent struct {
	Type            string            `json:"type"`
	QuotationID     uuid.UUID         `json:"quotation_id"`
	QuotationNumber string            `json:"quotation_number"`
	ActorID         uuid.UUID         `json:"actor_id"`
	Before          quotation.Status  `json:"before"`
	After           quotation.Status  `json:"after"`
	Reason          string            `json:"reason,omitempty"`
	OrderID         *uuid.UUID        `json:"order_id,omitempty"`
	OrderNumber     string            `json:"order_number,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// NotificationDispatcher delivers lifecycle notifications (email, WhatsApp,
// websocket fan-out - transport is out of scope here). Best-effort: a failed
// dispatch is logged by the caller and never rolls back the transition.
type NotificationDispatcher interface {
	Notify(ctx context.Context, event LifecycleEvent) error
}

// AuditRecorder records lifecycle transitions for the audit trail.
// Best-effort, same policy as NotificationDispatcher.
type AuditRecorder interface {
	Record(ctx context.Context, event LifecycleEvent) error
}
