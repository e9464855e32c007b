package handler

import (
	"net/http"

	"retryengine/src/repository"
)

// RetryResultRequest is the callback payload from the external orchestrator
// after it executed a retry attempt.
type RetryResultRequest struct {
	PaymentID     string `json:"payment_id"`
	AttemptNumber int    `json:"attempt_number"`
	Success       bool   `json:"success"`
	ResultCode    string `json:"result_code,omitempty"`
	ResultMessage string `json:"result_message,omitempty"`
}

// RetryResultHandler is the update-status variant for orchestrator
// callbacks: same transition rules, plus the matching RetryJob is moved to a
// terminal status in the same transaction.
func RetryResultHandler(lifecycle resultApplier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RetryResultRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := lifecycle.ApplyAttemptResult(r.Context(), repository.ApplyResultParams{
			PaymentID:     req.PaymentID,
			AttemptNumber: req.AttemptNumber,
			Success:       req.Success,
			ResultCode:    req.ResultCode,
			ResultMessage: req.ResultMessage,
			FinalizeJob:   true,
		})
		if err != nil {
			respondLifecycleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":             "received",
			"payment_id":         req.PaymentID,
			"new_payment_status": result.Payment.Status,
			"event_logged":       result.EventType,
		})
	}
}
