package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"retryengine/src/database"
	"retryengine/src/model"
)

// PaymentRepository handles read operations for payments. Lifecycle
// mutations go through LifecycleRepository so that every status change rides
// the same transaction as its audit record.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new repository instance using the main
// read/write database.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *PaymentRepository) WithDB(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByID fetches a single payment by its primary ID.
// Returns (nil, nil) if the payment is not found.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	var payment model.Payment

	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "PaymentRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch payment")
		return nil, err
	}

	return &payment, nil
}

// PaymentSearchOptions filters the payment listing.
type PaymentSearchOptions struct {
	MerchantID string
	Status     string
	Limit      int
}

// Search lists payments from newest to oldest with optional filters.
func (r *PaymentRepository) Search(ctx context.Context, options PaymentSearchOptions) ([]model.Payment, error) {
	if options.Limit <= 0 || options.Limit > 100 {
		options.Limit = 50
	}

	query := r.db.WithContext(ctx).Model(&model.Payment{})
	if options.MerchantID != "" {
		query = query.Where("merchant_id = ?", options.MerchantID)
	}
	if options.Status != "" {
		query = query.Where("status = ?", options.Status)
	}

	var payments []model.Payment
	err := query.Order("created_at DESC").Limit(options.Limit).Find(&payments).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PaymentRepository",
			"op":   "Search",
		}).WithError(err).Error("Failed to search payments")
		return nil, err
	}

	return payments, nil
}

// StatusCount is one row of the per-status breakdown.
type StatusCount struct {
	Status string
	Count  int64
}

// CountByStatus groups a merchant's payments by lifecycle status.
func (r *PaymentRepository) CountByStatus(ctx context.Context, merchantID string) ([]StatusCount, error) {
	var counts []StatusCount

	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Select("status, count(id) as count").
		Where("merchant_id = ?", merchantID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "PaymentRepository",
			"op":          "CountByStatus",
			"merchant_id": merchantID,
		}).WithError(err).Error("Failed to count payments by status")
		return nil, err
	}

	return counts, nil
}

// SumAmountByStatus totals amount_cents over a merchant's payments in any of
// the given statuses.
func (r *PaymentRepository) SumAmountByStatus(ctx context.Context, merchantID string, statuses []string) (int64, error) {
	var total int64

	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Select("coalesce(sum(amount_cents), 0)").
		Where("merchant_id = ?", merchantID).
		Where("status IN ?", statuses).
		Scan(&total).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "PaymentRepository",
			"op":          "SumAmountByStatus",
			"merchant_id": merchantID,
		}).WithError(err).Error("Failed to sum payment amounts")
		return 0, err
	}

	return total, nil
}
