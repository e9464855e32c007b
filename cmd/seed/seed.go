package seed

import (
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"retryengine/src/model"
)

// DemoMerchantID is stable across environments so dashboards and workflow
// definitions can reference it.
const DemoMerchantID = "466fd34b-96a1-4635-9b2c-dedd2645291f"

func samplePayments() []model.Payment {
	insufficientFunds := model.FailureInsufficientFunds
	cardDeclined := model.FailureCardDeclined
	networkTimeout := model.FailureNetworkTimeout

	return []model.Payment{
		{
			MerchantID:     DemoMerchantID,
			AmountCents:    15000,
			Currency:       "USD",
			CardLast4:      "4242",
			CardBrand:      "visa",
			Status:         model.PaymentStatusFailed,
			FailureType:    &insufficientFunds,
			FailureCode:    "insufficient_funds",
			FailureMessage: "Your card has insufficient funds.",
			Processor:      "stripe",
		},
		{
			MerchantID:     DemoMerchantID,
			AmountCents:    25000,
			Currency:       "USD",
			CardLast4:      "5555",
			CardBrand:      "mastercard",
			Status:         model.PaymentStatusFailed,
			FailureType:    &cardDeclined,
			FailureCode:    "card_declined",
			FailureMessage: "Your card was declined.",
			Processor:      "stripe",
		},
		{
			MerchantID:     DemoMerchantID,
			AmountCents:    8000,
			Currency:       "USD",
			CardLast4:      "3782",
			CardBrand:      "amex",
			Status:         model.PaymentStatusFailed,
			FailureType:    &networkTimeout,
			FailureCode:    "processing_error",
			FailureMessage: "Network timeout during processing.",
			Processor:      "stripe",
		},
	}
}

// Run creates the demo merchant, its retry configuration and (outside
// production) a handful of sample failed payments. Re-running is a no-op
// once the demo merchant exists.
func Run(db *gorm.DB) error {
	config := GetConfig()

	var existing model.Merchant
	err := db.First(&existing, "id = ?", DemoMerchantID).Error
	if err == nil {
		logger.Info("[seed] Seeds already applied (demo merchant exists)")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for demo merchant: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		merchant := model.Merchant{
			ID:    DemoMerchantID,
			Name:  "Demo Merchant",
			Email: "demo@example.com",
		}
		if config.Environment == "production" {
			merchant.Name = "DRUO Production"
			merchant.Email = "payments@druo.com"
		}
		if err := tx.Create(&merchant).Error; err != nil {
			return fmt.Errorf("failed to create demo merchant: %w", err)
		}

		retryConfig := model.MerchantRetryConfig{
			MerchantID:               DemoMerchantID,
			RetryEnabled:             true,
			MaxAttempts:              3,
			InsufficientFundsEnabled: true,
			InsufficientFundsDelay:   1440,
			CardDeclinedEnabled:      true,
			CardDeclinedDelay:        60,
			NetworkTimeoutEnabled:    true,
			NetworkTimeoutDelay:      5,
			ProcessorDowntimeEnabled: true,
			ProcessorDowntimeDelay:   30,
		}
		if err := tx.Create(&retryConfig).Error; err != nil {
			return fmt.Errorf("failed to create demo retry config: %w", err)
		}

		if config.Environment != "production" {
			payments := samplePayments()
			if err := tx.Create(&payments).Error; err != nil {
				return fmt.Errorf("failed to create sample payments: %w", err)
			}
			logger.Infof("[seed] Added %d sample payments", len(payments))
		}

		logger.Infof("[seed] Seeds applied successfully (%s)", config.Environment)
		return nil
	})
}
