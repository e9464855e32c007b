package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Retry job statuses.
const (
	RetryJobStatusPending    = "pending"
	RetryJobStatusProcessing = "processing"
	RetryJobStatusCompleted  = "completed"
	RetryJobStatusFailed     = "failed"
	RetryJobStatusCancelled  = "cancelled"
)

// RetryJob is one scheduled or executed retry attempt for a payment.
// Attempt numbers are 1-based and strictly increasing per payment; once a job
// reaches a terminal status it is never mutated again.
type RetryJob struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID  string `gorm:"type:uuid;index;not null" json:"payment_id"`
	MerchantID string `gorm:"type:uuid;index;not null" json:"merchant_id"`

	AttemptNumber int         `gorm:"not null" json:"attempt_number"`
	FailureType   FailureType `gorm:"size:30;not null" json:"failure_type"`

	ScheduledAt time.Time  `gorm:"not null" json:"scheduled_at"`
	ExecutedAt  *time.Time `json:"executed_at,omitempty"`

	Status        string `gorm:"size:20;not null;default:pending" json:"status"`
	ResultCode    string `gorm:"size:100" json:"result_code,omitempty"`
	ResultMessage string `json:"result_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RetryJob) TableName() string {
	return "retry_jobs"
}

func (j *RetryJob) BeforeCreate(_ *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the job already received its execution result.
func (j *RetryJob) IsTerminal() bool {
	switch j.Status {
	case RetryJobStatusCompleted, RetryJobStatusFailed, RetryJobStatusCancelled:
		return true
	}
	return false
}
