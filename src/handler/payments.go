package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"retryengine/src/model"
	"retryengine/src/repository"
)

type paymentSearcher interface {
	Search(ctx context.Context, options repository.PaymentSearchOptions) ([]model.Payment, error)
}

type retryJobReader interface {
	FindByPaymentID(ctx context.Context, paymentID string) ([]model.RetryJob, error)
}

type auditLogReader interface {
	FindByPaymentID(ctx context.Context, paymentID string) ([]model.RetryAuditLog, error)
}

// ListPaymentsHandler lists payments with optional merchant/status filters.
func ListPaymentsHandler(payments paymentSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := repository.PaymentSearchOptions{
			MerchantID: r.URL.Query().Get("merchant_id"),
			Status:     r.URL.Query().Get("status"),
		}
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err := strconv.Atoi(limitParam)
			if err != nil {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			options.Limit = limit
		}

		results, err := payments.Search(r.Context(), options)
		if err != nil {
			http.Error(w, "failed to list payments", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, results)
	}
}

// GetPaymentHandler returns a single payment by id.
func GetPaymentHandler(payments paymentFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payment, err := payments.FindByID(r.Context(), chi.URLParam(r, "paymentID"))
		if err != nil {
			http.Error(w, "failed to load payment", http.StatusInternalServerError)
			return
		}
		if payment == nil {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, payment)
	}
}

// RetryHistoryHandler reconstructs a payment's retry history: jobs by
// attempt number plus the chronological audit trail.
func RetryHistoryHandler(jobs retryJobReader, audits auditLogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID := chi.URLParam(r, "paymentID")

		retryJobs, err := jobs.FindByPaymentID(r.Context(), paymentID)
		if err != nil {
			http.Error(w, "failed to load retry jobs", http.StatusInternalServerError)
			return
		}

		logs, err := audits.FindByPaymentID(r.Context(), paymentID)
		if err != nil {
			http.Error(w, "failed to load audit logs", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"payment_id": paymentID,
			"retry_jobs": retryJobs,
			"audit_logs": logs,
		})
	}
}
