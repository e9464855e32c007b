package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"retryengine/src/database"
	"retryengine/src/model"
	"retryengine/src/retry"
)

// ErrPaymentNotFound is returned by lifecycle operations targeting a payment
// id that does not exist.
var ErrPaymentNotFound = errors.New("payment not found")

// LifecycleRepository owns every payment-state mutation. Each operation runs
// as a single gorm transaction combining the state change with its audit
// record, so a crash or duplicate call can never leave one without the other.
type LifecycleRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLifecycleRepository creates a new repository instance using the main
// read/write database.
func NewLifecycleRepository() *LifecycleRepository {
	return &LifecycleRepository{db: database.MainDB, now: time.Now}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *LifecycleRepository) WithDB(db *gorm.DB) *LifecycleRepository {
	return &LifecycleRepository{db: db, now: r.nowFunc()}
}

// WithClock overrides the clock. Tests use this to pin scheduled_at.
func (r *LifecycleRepository) WithClock(now func() time.Time) *LifecycleRepository {
	return &LifecycleRepository{db: r.db, now: now}
}

func (r *LifecycleRepository) nowFunc() func() time.Time {
	if r.now == nil {
		return time.Now
	}
	return r.now
}

// RecordFailure persists a freshly failed payment and, when the
// classification allows it, schedules the first retry attempt. The payment
// row, the payment_failed event, the retry job, the retry_scheduled event and
// the failed->retrying status change are one atomic unit.
//
// Returns the created job, or nil when no retry was scheduled.
func (r *LifecycleRepository) RecordFailure(ctx context.Context, payment *model.Payment, c retry.Classification) (*model.RetryJob, error) {
	now := r.nowFunc()()

	var job *model.RetryJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment.Status = model.PaymentStatusFailed
		if c.RetryEnabled {
			payment.Status = model.PaymentStatusRetrying
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		failedEvent := model.RetryAuditLog{
			EventType:   model.EventPaymentFailed,
			PaymentID:   &payment.ID,
			MerchantID:  &payment.MerchantID,
			FailureType: payment.FailureType,
			CardLast4:   payment.CardLast4,
			AmountCents: &payment.AmountCents,
			Currency:    payment.Currency,
		}
		if err := tx.Create(&failedEvent).Error; err != nil {
			return err
		}

		if !c.RetryEnabled {
			return nil
		}

		scheduledAt := now.Add(time.Duration(c.DelayMinutes) * time.Minute)
		attempt := 1
		job = &model.RetryJob{
			PaymentID:     payment.ID,
			MerchantID:    payment.MerchantID,
			AttemptNumber: attempt,
			FailureType:   c.FailureType,
			ScheduledAt:   scheduledAt,
			Status:        model.RetryJobStatusPending,
		}
		if err := tx.Create(job).Error; err != nil {
			return err
		}

		scheduleEvent := model.RetryAuditLog{
			EventType:     model.EventRetryScheduled,
			PaymentID:     &payment.ID,
			MerchantID:    &payment.MerchantID,
			AttemptNumber: &attempt,
			FailureType:   payment.FailureType,
			Metadata: map[string]any{
				"scheduled_at":  scheduledAt.Format(time.RFC3339),
				"delay_minutes": c.DelayMinutes,
			},
		}
		return tx.Create(&scheduleEvent).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "LifecycleRepository",
			"op":          "RecordFailure",
			"merchant_id": payment.MerchantID,
		}).WithError(err).Error("Failed to record payment failure")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":            "LifecycleRepository",
		"op":              "RecordFailure",
		"payment_id":      payment.ID,
		"retry_scheduled": job != nil,
	}).Info("Payment failure recorded")

	return job, nil
}

// ApplyResultParams describes one execution result to fold into the state
// machine.
type ApplyResultParams struct {
	PaymentID     string
	AttemptNumber int
	Success       bool
	ResultCode    string
	ResultMessage string

	// FinalizeJob also moves the matching RetryJob to a terminal status
	// (webhook callback path).
	FinalizeJob bool
}

// AttemptResult reports what the transition did.
type AttemptResult struct {
	Payment   *model.Payment
	EventType string
}

// ApplyAttemptResult applies one execution result to the payment state
// machine. The attempt ceiling is read from the merchant's configuration
// inside the transaction, so a config change between scheduling and
// execution takes effect immediately. Payment update, optional job
// finalization and the audit event commit or roll back together.
//
// Illegal or replayed transitions return retry.ErrInvalidTransition with no
// state change.
func (r *LifecycleRepository) ApplyAttemptResult(ctx context.Context, params ApplyResultParams) (*AttemptResult, error) {
	now := r.nowFunc()()

	var result AttemptResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock so concurrent results for the same attempt serialize:
		// the second transaction re-reads the committed retry_count and is
		// rejected by the replay check instead of double-applying.
		var payment model.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", params.PaymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		maxAttempts := 3
		var config model.MerchantRetryConfig
		err := tx.First(&config, "merchant_id = ?", payment.MerchantID).Error
		switch {
		case err == nil:
			maxAttempts = config.MaxAttempts
		case errors.Is(err, gorm.ErrRecordNotFound):
			// keep the fallback ceiling
		default:
			return err
		}

		transition, err := retry.Transition(&payment, params.AttemptNumber, params.Success, maxAttempts)
		if err != nil {
			return err
		}

		payment.Status = transition.NewStatus
		payment.RetryCount = transition.RetryCount
		if transition.Recovered {
			payment.RecoveredViaRetry = true
		} else {
			payment.LastRetryAt = &now
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		if params.FinalizeJob {
			if err := r.finalizeJob(tx, &payment, params, now); err != nil {
				return err
			}
		}

		event := model.RetryAuditLog{
			EventType:     transition.EventType,
			PaymentID:     &payment.ID,
			MerchantID:    &payment.MerchantID,
			AttemptNumber: &params.AttemptNumber,
			FailureType:   payment.FailureType,
			Result:        resultLabel(params.Success),
			CardLast4:     payment.CardLast4,
			AmountCents:   &payment.AmountCents,
			Currency:      payment.Currency,
			Metadata: map[string]any{
				"result_code":    params.ResultCode,
				"result_message": params.ResultMessage,
			},
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		result = AttemptResult{Payment: &payment, EventType: transition.EventType}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrPaymentNotFound) && !errors.Is(err, retry.ErrInvalidTransition) {
			logger.WithFields(map[string]interface{}{
				"repo":       "LifecycleRepository",
				"op":         "ApplyAttemptResult",
				"payment_id": params.PaymentID,
				"attempt":    params.AttemptNumber,
			}).WithError(err).Error("Failed to apply attempt result")
		}
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "LifecycleRepository",
		"op":         "ApplyAttemptResult",
		"payment_id": params.PaymentID,
		"attempt":    params.AttemptNumber,
		"new_status": result.Payment.Status,
		"event":      result.EventType,
	}).Info("Attempt result applied")

	return &result, nil
}

func (r *LifecycleRepository) finalizeJob(tx *gorm.DB, payment *model.Payment, params ApplyResultParams, now time.Time) error {
	var job model.RetryJob
	err := tx.First(&job, "payment_id = ? AND attempt_number = ?", payment.ID, params.AttemptNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The orchestrator may call back for attempts it executed
			// without a locally scheduled job; the payment transition still
			// stands.
			return nil
		}
		return err
	}
	if job.IsTerminal() {
		return nil
	}

	job.Status = model.RetryJobStatusFailed
	if params.Success {
		job.Status = model.RetryJobStatusCompleted
	}
	job.ExecutedAt = &now
	job.ResultCode = params.ResultCode
	job.ResultMessage = params.ResultMessage

	return tx.Save(&job).Error
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
