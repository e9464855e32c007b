package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"retryengine/src/database"
	"retryengine/src/model"
)

// RetryConfigRepository handles the per-merchant retry policy rows.
type RetryConfigRepository struct {
	db *gorm.DB
}

// NewRetryConfigRepository creates a new repository instance using the main
// read/write database.
func NewRetryConfigRepository() *RetryConfigRepository {
	return &RetryConfigRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *RetryConfigRepository) WithDB(db *gorm.DB) *RetryConfigRepository {
	return &RetryConfigRepository{db: db}
}

// FindByMerchantID fetches the retry configuration for a merchant.
// Returns (nil, nil) if the merchant has no configuration.
func (r *RetryConfigRepository) FindByMerchantID(ctx context.Context, merchantID string) (*model.MerchantRetryConfig, error) {
	var config model.MerchantRetryConfig

	err := r.db.WithContext(ctx).First(&config, "merchant_id = ?", merchantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":        "RetryConfigRepository",
			"op":          "FindByMerchantID",
			"merchant_id": merchantID,
		}).WithError(err).Error("Failed to fetch retry config")
		return nil, err
	}

	return &config, nil
}

// Update applies a sparse update to a merchant's configuration: fields left
// nil in the update keep their stored value. Returns (nil, nil) when no
// config row exists for the merchant.
func (r *RetryConfigRepository) Update(ctx context.Context, merchantID string, update model.RetryConfigUpdate) (*model.MerchantRetryConfig, error) {
	var config model.MerchantRetryConfig

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&config, "merchant_id = ?", merchantID).Error; err != nil {
			return err
		}
		update.Apply(&config)
		return tx.Save(&config).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo":        "RetryConfigRepository",
			"op":          "Update",
			"merchant_id": merchantID,
		}).WithError(err).Error("Failed to update retry config")
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "RetryConfigRepository",
		"op":          "Update",
		"merchant_id": merchantID,
	}).Info("Retry config updated")

	return &config, nil
}
