package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"retryengine/src/database"
	"retryengine/src/model"
)

// RetryJobRepository handles read operations for retry jobs. Job creation
// and finalization happen inside LifecycleRepository transactions.
type RetryJobRepository struct {
	db *gorm.DB
}

// NewRetryJobRepository creates a new repository instance using the main
// read/write database.
func NewRetryJobRepository() *RetryJobRepository {
	return &RetryJobRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *RetryJobRepository) WithDB(db *gorm.DB) *RetryJobRepository {
	return &RetryJobRepository{db: db}
}

// FindByPaymentID returns all jobs for a payment ordered by attempt number.
func (r *RetryJobRepository) FindByPaymentID(ctx context.Context, paymentID string) ([]model.RetryJob, error) {
	var jobs []model.RetryJob

	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("attempt_number").
		Find(&jobs).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "RetryJobRepository",
			"op":         "FindByPaymentID",
			"payment_id": paymentID,
		}).WithError(err).Error("Failed to fetch retry jobs")
		return nil, err
	}

	return jobs, nil
}

// FindByPaymentAndAttempt fetches a single job.
// Returns (nil, nil) when no job exists for the pair.
func (r *RetryJobRepository) FindByPaymentAndAttempt(ctx context.Context, paymentID string, attemptNumber int) (*model.RetryJob, error) {
	var job model.RetryJob

	err := r.db.WithContext(ctx).
		Where("payment_id = ? AND attempt_number = ?", paymentID, attemptNumber).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "RetryJobRepository",
			"op":         "FindByPaymentAndAttempt",
			"payment_id": paymentID,
			"attempt":    attemptNumber,
		}).WithError(err).Error("Failed to fetch retry job")
		return nil, err
	}

	return &job, nil
}
