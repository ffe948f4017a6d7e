package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	appquotation "github.com/lab404/backend/internal/application/quotation"
)

// LogEntry is the persisted audit trail row for a lifecycle transition
type LogEntry struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventType       string     `gorm:"not null;index"`
	QuotationID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	QuotationNumber string     `gorm:"not null"`
	ActorID         uuid.UUID  `gorm:"type:uuid"`
	BeforeStatus    string     `gorm:"not null"`
	AfterStatus     string     `gorm:"not null"`
	Reason          string     `gorm:"type:text"`
	OrderID         *uuid.UUID `gorm:"type:uuid"`
	OrderNumber     string
	OccurredAt      time.Time `gorm:"not null;index"`
	CreatedAt       time.Time
}

// TableName returns the audit trail table name
func (LogEntry) TableName() string {
	return "audit_log"
}

// GormRecorder writes lifecycle transitions to the audit_log table
type GormRecorder struct {
	db *gorm.DB
}

// NewGormRecorder creates a new GormRecorder
func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

// Record inserts one audit row per lifecycle event
func (r *GormRecorder) Record(ctx context.Context, event appquotation.LifecycleEvent) error {
	entry := LogEntry{
		ID:              uuid.New(),
		EventType:       event.Type,
		QuotationID:     event.QuotationID,
		QuotationNumber: event.QuotationNumber,
		ActorID:         event.ActorID,
		BeforeStatus:    event.Before.String(),
		AfterStatus:     event.After.String(),
		Reason:          event.Reason,
		OrderID:         event.OrderID,
		OrderNumber:     event.OrderNumber,
		OccurredAt:      event.OccurredAt,
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// Ensure GormRecorder implements the recorder interface
var _ appquotation.AuditRecorder = (*GormRecorder)(nil)
