package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"retryengine/src/model"
	"retryengine/src/retry"
)

type configUpdater interface {
	Update(ctx context.Context, merchantID string, update model.RetryConfigUpdate) (*model.MerchantRetryConfig, error)
}

// GetRetryConfigHandler returns a merchant's retry configuration.
func GetRetryConfigHandler(configs configFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		config, err := configs.FindByMerchantID(r.Context(), chi.URLParam(r, "merchantID"))
		if err != nil {
			http.Error(w, "failed to load retry config", http.StatusInternalServerError)
			return
		}
		if config == nil {
			http.Error(w, "Retry config not found for this merchant", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, config)
	}
}

// UpdateRetryConfigHandler applies a sparse update: unspecified fields keep
// their stored values.
func UpdateRetryConfigHandler(configs configUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update model.RetryConfigUpdate
		if !decodeJSON(w, r, &update) {
			return
		}

		if err := update.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		config, err := configs.Update(r.Context(), chi.URLParam(r, "merchantID"), update)
		if err != nil {
			http.Error(w, "failed to update retry config", http.StatusInternalServerError)
			return
		}
		if config == nil {
			http.Error(w, "Retry config not found for this merchant", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, config)
	}
}

// Observed share of failures per type, used only for the preview estimate.
var failureShare = map[model.FailureType]decimal.Decimal{
	model.FailureInsufficientFunds: decimal.NewFromFloat(0.35),
	model.FailureCardDeclined:      decimal.NewFromFloat(0.25),
	model.FailureNetworkTimeout:    decimal.NewFromFloat(0.20),
	model.FailureProcessorDowntime: decimal.NewFromFloat(0.05),
}

var previewOrder = []model.FailureType{
	model.FailureInsufficientFunds,
	model.FailureCardDeclined,
	model.FailureNetworkTimeout,
	model.FailureProcessorDowntime,
}

// PreviewRetryConfigHandler estimates the recovery a merchant can expect
// from its current settings, per failure type and in total.
func PreviewRetryConfigHandler(configs configFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := chi.URLParam(r, "merchantID")

		config, err := configs.FindByMerchantID(r.Context(), merchantID)
		if err != nil {
			http.Error(w, "failed to load retry config", http.StatusInternalServerError)
			return
		}
		if config == nil {
			http.Error(w, "Retry config not found for this merchant", http.StatusNotFound)
			return
		}

		hundred := decimal.NewFromInt(100)
		totalRecoverable := decimal.Zero
		breakdown := make([]map[string]any, 0, len(previewOrder))

		for _, ft := range previewOrder {
			rate := decimal.NewFromFloat(retry.SuccessRate(ft))
			rule, _ := config.Rule(ft)

			if config.RetryEnabled && rule.Enabled {
				contribution := rate.Mul(failureShare[ft]).Mul(hundred)
				totalRecoverable = totalRecoverable.Add(contribution)
				breakdown = append(breakdown, map[string]any{
					"failure_type":            string(ft),
					"enabled":                 true,
					"estimated_recovery_rate": rate.Mul(hundred).StringFixed(0) + "%",
					"contribution_to_total":   contribution.StringFixed(1) + "%",
				})
			} else {
				breakdown = append(breakdown, map[string]any{
					"failure_type":            string(ft),
					"enabled":                 false,
					"estimated_recovery_rate": "0%",
					"contribution_to_total":   "0%",
				})
			}
		}

		total := totalRecoverable.StringFixed(1)
		writeJSON(w, http.StatusOK, map[string]any{
			"merchant_id":              merchantID,
			"retry_enabled":            config.RetryEnabled,
			"max_attempts":             config.MaxAttempts,
			"estimated_total_recovery": total + "%",
			"message":                  "With these settings, approximately " + total + "% of failed payments could be recovered",
			"breakdown":                breakdown,
		})
	}
}
