package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"retryengine/src/database"
	"retryengine/src/model"
)

// MerchantRepository handles read/write operations for merchants.
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new repository instance using the main
// read/write database.
func NewMerchantRepository() *MerchantRepository {
	return &MerchantRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *MerchantRepository) WithDB(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// Create inserts a new merchant together with its default retry
// configuration. Every merchant carries exactly one config, so both rows are
// written in the same transaction.
func (r *MerchantRepository) Create(ctx context.Context, merchant *model.Merchant) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(merchant).Error; err != nil {
			return err
		}
		config := model.MerchantRetryConfig{
			MerchantID:               merchant.ID,
			RetryEnabled:             true,
			MaxAttempts:              3,
			InsufficientFundsEnabled: true,
			InsufficientFundsDelay:   1440,
			CardDeclinedEnabled:      true,
			CardDeclinedDelay:        60,
			NetworkTimeoutEnabled:    true,
			NetworkTimeoutDelay:      0,
			ProcessorDowntimeEnabled: true,
			ProcessorDowntimeDelay:   30,
		}
		return tx.Create(&config).Error
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "MerchantRepository",
			"op":    "Create",
			"email": merchant.Email,
		}).WithError(err).Error("Failed to create merchant")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "MerchantRepository",
		"op":          "Create",
		"merchant_id": merchant.ID,
	}).Info("Merchant created with default retry config")

	return nil
}

// FindByID fetches a single merchant by its primary ID.
// Returns (nil, nil) if the merchant is not found.
func (r *MerchantRepository) FindByID(ctx context.Context, id string) (*model.Merchant, error) {
	var merchant model.Merchant

	err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.WithFields(map[string]interface{}{
			"repo": "MerchantRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch merchant")
		return nil, err
	}

	return &merchant, nil
}

// FindAll lists all merchants ordered by creation time.
func (r *MerchantRepository) FindAll(ctx context.Context) ([]model.Merchant, error) {
	var merchants []model.Merchant

	err := r.db.WithContext(ctx).Order("created_at").Find(&merchants).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "MerchantRepository",
			"op":   "FindAll",
		}).WithError(err).Error("Failed to list merchants")
		return nil, err
	}

	return merchants, nil
}
