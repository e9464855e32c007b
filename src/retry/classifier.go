package retry

import (
	"fmt"

	"retryengine/src/model"
)

// Classification is the eligibility decision for a single payment failure.
//
// Retriable means the failure type is eligible in principle; RetryEnabled
// means a retry will actually be scheduled under the merchant's current
// configuration. Delay and max attempts are zero whenever no retry is
// scheduled.
type Classification struct {
	FailureType  model.FailureType `json:"failure_type"`
	IsRetriable  bool              `json:"is_retriable"`
	RetryEnabled bool              `json:"retry_enabled"`
	Reason       string            `json:"reason"`
	DelayMinutes int               `json:"delay_minutes"`
	MaxAttempts  int               `json:"max_attempts"`
}

// Classify evaluates the decision ladder for a failure against the merchant
// configuration. The first matching rule wins:
//
//  1. non-retriable failure type
//  2. merchant configuration missing (config == nil)
//  3. retries disabled globally for the merchant
//  4. retries disabled for this failure type
//  5. otherwise schedule with the configured delay and attempt budget
//
// Only case 5 warrants a classified audit event; emitting it is the caller's
// job since Classify itself is pure.
func Classify(ft model.FailureType, config *model.MerchantRetryConfig) Classification {
	if !IsRetriable(ft) {
		return Classification{
			FailureType: ft,
			Reason:      fmt.Sprintf("Failure type '%s' is not eligible for retry", ft),
		}
	}

	if config == nil {
		return Classification{
			FailureType: ft,
			Reason:      "Merchant retry configuration not found",
		}
	}

	if !config.RetryEnabled {
		return Classification{
			FailureType: ft,
			IsRetriable: true,
			Reason:      "Retry is disabled for this merchant",
		}
	}

	rule, ok := config.Rule(ft)
	if !ok || !rule.Enabled {
		return Classification{
			FailureType: ft,
			IsRetriable: true,
			Reason:      fmt.Sprintf("Retry is disabled for failure type '%s'", ft),
		}
	}

	return Classification{
		FailureType:  ft,
		IsRetriable:  true,
		RetryEnabled: true,
		Reason:       "Failure is eligible for retry",
		DelayMinutes: rule.DelayMinutes,
		MaxAttempts:  config.MaxAttempts,
	}
}
