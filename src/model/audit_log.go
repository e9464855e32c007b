package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit event vocabulary. Every state transition appends exactly one of
// these; rows are write-once.
const (
	EventPaymentFailed  = "payment_failed"
	EventClassified     = "classified"
	EventRetryScheduled = "retry_scheduled"
	EventRetryExecuted  = "retry_executed"
	EventRetrySuccess   = "retry_success"
	EventRetryFailed    = "retry_failed"
	EventExhausted      = "exhausted"
)

// RetryAuditLog is the append-only compliance record of the retry engine.
// Ordering is by created_at; queries per payment return chronological order.
type RetryAuditLog struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	EventType string `gorm:"size:50;index;not null" json:"event_type"`

	PaymentID  *string `gorm:"type:uuid;index" json:"payment_id,omitempty"`
	MerchantID *string `gorm:"type:uuid;index" json:"merchant_id,omitempty"`

	AttemptNumber *int         `json:"attempt_number,omitempty"`
	FailureType   *FailureType `gorm:"size:30" json:"failure_type,omitempty"`
	Result        string       `gorm:"size:20" json:"result,omitempty"`

	// Non-sensitive payment snapshot
	CardLast4   string `gorm:"size:4" json:"card_last4,omitempty"`
	AmountCents *int64 `json:"amount_cents,omitempty"`
	Currency    string `gorm:"size:3" json:"currency,omitempty"`

	Metadata map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (RetryAuditLog) TableName() string {
	return "retry_audit_logs"
}

func (l *RetryAuditLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
