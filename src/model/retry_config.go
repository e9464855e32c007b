package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MerchantRetryConfig holds the per-merchant retry policy. Exactly one row
// exists per merchant.
type MerchantRetryConfig struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID string `gorm:"type:uuid;uniqueIndex;not null" json:"merchant_id"`

	// Global settings
	RetryEnabled bool `gorm:"not null;default:true" json:"retry_enabled"`
	MaxAttempts  int  `gorm:"not null;default:3" json:"max_attempts"` // bounded 1..5

	// Per failure type settings, delays in minutes
	InsufficientFundsEnabled bool `gorm:"not null;default:true" json:"insufficient_funds_enabled"`
	InsufficientFundsDelay   int  `gorm:"not null;default:1440" json:"insufficient_funds_delay"`

	CardDeclinedEnabled bool `gorm:"not null;default:true" json:"card_declined_enabled"`
	CardDeclinedDelay   int  `gorm:"not null;default:60" json:"card_declined_delay"`

	NetworkTimeoutEnabled bool `gorm:"not null;default:true" json:"network_timeout_enabled"`
	NetworkTimeoutDelay   int  `gorm:"not null;default:0" json:"network_timeout_delay"`

	ProcessorDowntimeEnabled bool `gorm:"not null;default:true" json:"processor_downtime_enabled"`
	ProcessorDowntimeDelay   int  `gorm:"not null;default:30" json:"processor_downtime_delay"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MerchantRetryConfig) TableName() string {
	return "merchant_retry_configs"
}

func (c *MerchantRetryConfig) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// TypeRule is the resolved policy for a single failure type.
type TypeRule struct {
	Enabled      bool
	DelayMinutes int
}

// Rule maps a failure type to its configured {enabled, delay} pair. The
// second return is false for failure types that carry no per-type settings
// (fraud, expired, unknown).
func (c *MerchantRetryConfig) Rule(ft FailureType) (TypeRule, bool) {
	switch ft {
	case FailureInsufficientFunds:
		return TypeRule{Enabled: c.InsufficientFundsEnabled, DelayMinutes: c.InsufficientFundsDelay}, true
	case FailureCardDeclined:
		return TypeRule{Enabled: c.CardDeclinedEnabled, DelayMinutes: c.CardDeclinedDelay}, true
	case FailureNetworkTimeout:
		return TypeRule{Enabled: c.NetworkTimeoutEnabled, DelayMinutes: c.NetworkTimeoutDelay}, true
	case FailureProcessorDowntime:
		return TypeRule{Enabled: c.ProcessorDowntimeEnabled, DelayMinutes: c.ProcessorDowntimeDelay}, true
	default:
		return TypeRule{}, false
	}
}

// RetryConfigUpdate is a sparse update: nil fields leave the stored value
// unchanged.
type RetryConfigUpdate struct {
	RetryEnabled *bool `json:"retry_enabled,omitempty"`
	MaxAttempts  *int  `json:"max_attempts,omitempty"`

	InsufficientFundsEnabled *bool `json:"insufficient_funds_enabled,omitempty"`
	InsufficientFundsDelay   *int  `json:"insufficient_funds_delay,omitempty"`

	CardDeclinedEnabled *bool `json:"card_declined_enabled,omitempty"`
	CardDeclinedDelay   *int  `json:"card_declined_delay,omitempty"`

	NetworkTimeoutEnabled *bool `json:"network_timeout_enabled,omitempty"`
	NetworkTimeoutDelay   *int  `json:"network_timeout_delay,omitempty"`

	ProcessorDowntimeEnabled *bool `json:"processor_downtime_enabled,omitempty"`
	ProcessorDowntimeDelay   *int  `json:"processor_downtime_delay,omitempty"`
}

// Apply copies the non-nil fields onto the config.
func (u RetryConfigUpdate) Apply(c *MerchantRetryConfig) {
	if u.RetryEnabled != nil {
		c.RetryEnabled = *u.RetryEnabled
	}
	if u.MaxAttempts != nil {
		c.MaxAttempts = *u.MaxAttempts
	}
	if u.InsufficientFundsEnabled != nil {
		c.InsufficientFundsEnabled = *u.InsufficientFundsEnabled
	}
	if u.InsufficientFundsDelay != nil {
		c.InsufficientFundsDelay = *u.InsufficientFundsDelay
	}
	if u.CardDeclinedEnabled != nil {
		c.CardDeclinedEnabled = *u.CardDeclinedEnabled
	}
	if u.CardDeclinedDelay != nil {
		c.CardDeclinedDelay = *u.CardDeclinedDelay
	}
	if u.NetworkTimeoutEnabled != nil {
		c.NetworkTimeoutEnabled = *u.NetworkTimeoutEnabled
	}
	if u.NetworkTimeoutDelay != nil {
		c.NetworkTimeoutDelay = *u.NetworkTimeoutDelay
	}
	if u.ProcessorDowntimeEnabled != nil {
		c.ProcessorDowntimeEnabled = *u.ProcessorDowntimeEnabled
	}
	if u.ProcessorDowntimeDelay != nil {
		c.ProcessorDowntimeDelay = *u.ProcessorDowntimeDelay
	}
}

// Validate enforces the configured bounds: max_attempts 1..5, delays >= 0.
func (u RetryConfigUpdate) Validate() error {
	if u.MaxAttempts != nil && (*u.MaxAttempts < 1 || *u.MaxAttempts > 5) {
		return ErrMaxAttemptsOutOfRange
	}
	for _, d := range []*int{
		u.InsufficientFundsDelay,
		u.CardDeclinedDelay,
		u.NetworkTimeoutDelay,
		u.ProcessorDowntimeDelay,
	} {
		if d != nil && *d < 0 {
			return ErrNegativeDelay
		}
	}
	return nil
}
