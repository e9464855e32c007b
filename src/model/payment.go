package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment lifecycle statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRetrying  = "retrying"
	PaymentStatusRecovered = "recovered"
	PaymentStatusExhausted = "exhausted"
)

// FailureType is the categorical reason a payment attempt did not succeed.
type FailureType string

const (
	FailureInsufficientFunds FailureType = "insufficient_funds"
	FailureCardDeclined      FailureType = "card_declined"
	FailureNetworkTimeout    FailureType = "network_timeout"
	FailureProcessorDowntime FailureType = "processor_downtime"
	FailureFraud             FailureType = "fraud"
	FailureExpired           FailureType = "expired"
	FailureUnknown           FailureType = "unknown"
)

// Payment represents a single payment transaction. Payments are financial
// records: they are created once and then mutated only through the retry
// lifecycle, never deleted.
type Payment struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID string `gorm:"type:uuid;index;not null" json:"merchant_id"`

	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Currency    string `gorm:"size:3;not null;default:USD" json:"currency"`
	Description string `gorm:"size:500" json:"description,omitempty"`

	// Card info (tokenized, never full card data)
	CardLast4       string `gorm:"size:4" json:"card_last4,omitempty"`
	CardBrand       string `gorm:"size:20" json:"card_brand,omitempty"`
	CardFingerprint string `gorm:"size:100" json:"card_fingerprint,omitempty"`

	Processor          string `gorm:"size:50;not null;default:stripe" json:"processor"`
	ProcessorPaymentID string `gorm:"size:255" json:"processor_payment_id,omitempty"`

	Status         string       `gorm:"size:20;not null;default:pending;index" json:"status"`
	FailureType    *FailureType `gorm:"size:30" json:"failure_type,omitempty"`
	FailureCode    string       `gorm:"size:100" json:"failure_code,omitempty"`
	FailureMessage string       `json:"failure_message,omitempty"`

	// Retry tracking
	RetryCount        int        `gorm:"not null;default:0" json:"retry_count"`
	LastRetryAt       *time.Time `json:"last_retry_at,omitempty"`
	RecoveredViaRetry bool       `gorm:"not null;default:false" json:"recovered_via_retry"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the payment reached a final retry-flow state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusRecovered || p.Status == PaymentStatusExhausted || p.Status == PaymentStatusSucceeded
}
