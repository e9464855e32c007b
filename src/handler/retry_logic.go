package handler

import (
	"context"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"retryengine/src/model"
	"retryengine/src/repository"
	"retryengine/src/retry"
)

type configFinder interface {
	FindByMerchantID(ctx context.Context, merchantID string) (*model.MerchantRetryConfig, error)
}

type auditAppender interface {
	Append(ctx context.Context, log *model.RetryAuditLog) error
}

type resultApplier interface {
	ApplyAttemptResult(ctx context.Context, params repository.ApplyResultParams) (*repository.AttemptResult, error)
}

// ClassifyRequest asks whether a payment failure should be retried.
type ClassifyRequest struct {
	PaymentID   string `json:"payment_id"`
	MerchantID  string `json:"merchant_id"`
	FailureType string `json:"failure_type"`
}

// ClassifyResponse mirrors the classification decision.
type ClassifyResponse struct {
	PaymentID    string `json:"payment_id"`
	FailureType  string `json:"failure_type"`
	IsRetriable  bool   `json:"is_retriable"`
	Reason       string `json:"reason"`
	RetryEnabled bool   `json:"retry_enabled"`
	DelayMinutes int    `json:"delay_minutes"`
	MaxAttempts  int    `json:"max_attempts"`
}

// ClassifyHandler evaluates the eligibility ladder for a failure. Only a
// scheduled classification emits a classified audit event; every other
// outcome is observable through the response alone.
func ClassifyHandler(configs configFinder, audits auditAppender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClassifyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		ft := retry.ParseFailureType(req.FailureType)

		config, err := configs.FindByMerchantID(r.Context(), req.MerchantID)
		if err != nil {
			http.Error(w, "failed to load retry config", http.StatusInternalServerError)
			return
		}

		c := retry.Classify(ft, config)

		if c.RetryEnabled {
			event := model.RetryAuditLog{
				EventType:   model.EventClassified,
				PaymentID:   &req.PaymentID,
				MerchantID:  &req.MerchantID,
				FailureType: &c.FailureType,
				Metadata: map[string]any{
					"is_retriable":  true,
					"delay_minutes": c.DelayMinutes,
					"max_attempts":  c.MaxAttempts,
				},
			}
			if err := audits.Append(r.Context(), &event); err != nil {
				http.Error(w, "failed to record classification", http.StatusInternalServerError)
				return
			}
		}

		writeJSON(w, http.StatusOK, ClassifyResponse{
			PaymentID:    req.PaymentID,
			FailureType:  string(c.FailureType),
			IsRetriable:  c.IsRetriable,
			Reason:       c.Reason,
			RetryEnabled: c.RetryEnabled,
			DelayMinutes: c.DelayMinutes,
			MaxAttempts:  c.MaxAttempts,
		})
	}
}

// ExecuteRequest asks for one simulated retry attempt.
type ExecuteRequest struct {
	PaymentID     string `json:"payment_id"`
	MerchantID    string `json:"merchant_id"`
	AttemptNumber int    `json:"attempt_number"`
	FailureType   string `json:"failure_type"`
}

// ExecuteResponse carries the simulated processor outcome.
type ExecuteResponse struct {
	PaymentID          string  `json:"payment_id"`
	AttemptNumber      int     `json:"attempt_number"`
	Success            bool    `json:"success"`
	ResultCode         string  `json:"result_code"`
	ResultMessage      string  `json:"result_message"`
	SuccessProbability float64 `json:"success_probability"`
	RandomValue        float64 `json:"random_value"`
	ShouldContinue     bool    `json:"should_continue"`
	NextAttempt        *int    `json:"next_attempt"`
}

// ExecuteHandler runs the execution simulator for one attempt. It records a
// retry_executed audit event whatever the outcome, and leaves the payment
// untouched: the caller feeds the result into update-status.
func ExecuteHandler(configs configFinder, audits auditAppender, exec *retry.Executor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExecuteRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		ft := retry.ParseFailureType(req.FailureType)

		maxAttempts := 3
		config, err := configs.FindByMerchantID(r.Context(), req.MerchantID)
		if err != nil {
			http.Error(w, "failed to load retry config", http.StatusInternalServerError)
			return
		}
		if config != nil {
			maxAttempts = config.MaxAttempts
		}

		out := exec.Execute(ft, req.AttemptNumber, maxAttempts)

		event := model.RetryAuditLog{
			EventType:     model.EventRetryExecuted,
			PaymentID:     &req.PaymentID,
			MerchantID:    &req.MerchantID,
			AttemptNumber: &req.AttemptNumber,
			FailureType:   &ft,
			Result:        resultLabel(out.Success),
			Metadata: map[string]any{
				"success_probability": out.SuccessProbability,
				"random_value":        out.RandomValue,
				"should_continue":     out.ShouldContinue,
			},
		}
		if err := audits.Append(r.Context(), &event); err != nil {
			http.Error(w, "failed to record execution", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, ExecuteResponse{
			PaymentID:          req.PaymentID,
			AttemptNumber:      out.AttemptNumber,
			Success:            out.Success,
			ResultCode:         out.ResultCode,
			ResultMessage:      out.ResultMessage,
			SuccessProbability: out.SuccessProbability,
			RandomValue:        out.RandomValue,
			ShouldContinue:     out.ShouldContinue,
			NextAttempt:        out.NextAttempt,
		})
	}
}

// UpdateStatusRequest applies a previously computed execution result.
type UpdateStatusRequest struct {
	PaymentID     string `json:"payment_id"`
	AttemptNumber int    `json:"attempt_number"`
	Success       bool   `json:"success"`
	ResultCode    string `json:"result_code"`
	ResultMessage string `json:"result_message"`
}

// UpdateStatusHandler folds an execution result into the payment state
// machine. Illegal transitions (including replays against a terminal
// payment) are rejected with 409 and no state change.
func UpdateStatusHandler(lifecycle resultApplier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := lifecycle.ApplyAttemptResult(r.Context(), repository.ApplyResultParams{
			PaymentID:     req.PaymentID,
			AttemptNumber: req.AttemptNumber,
			Success:       req.Success,
			ResultCode:    req.ResultCode,
			ResultMessage: req.ResultMessage,
		})
		if err != nil {
			respondLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "updated",
			"payment_id":     req.PaymentID,
			"new_status":     result.Payment.Status,
			"event_logged":   result.EventType,
			"attempt_number": req.AttemptNumber,
			"recovered":      req.Success,
		})
	}
}

// RetryLogicHealthHandler exposes the taxonomy the engine runs on.
func RetryLogicHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":              "healthy",
			"service":             "retry-logic",
			"success_rates":       retry.SuccessRates(),
			"non_retriable_types": retry.NonRetriableTypes(),
		})
	}
}

func respondLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		http.Error(w, "Payment not found", http.StatusNotFound)
	case errors.Is(err, retry.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.WithError(err).Error("Lifecycle operation failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
