package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"retryengine/src/connectors"
	"retryengine/src/model"
	"retryengine/src/repository"
	"retryengine/src/retry"
)

type failureRecorder interface {
	RecordFailure(ctx context.Context, payment *model.Payment, c retry.Classification) (*model.RetryJob, error)
}

type retryNotifier interface {
	NotifyPaymentFailed(ctx context.Context, notification connectors.RetryAttemptNotification) error
	CallbackURL() string
}

type paymentFinder interface {
	FindByID(ctx context.Context, id string) (*model.Payment, error)
}

type statsReader interface {
	CountByStatus(ctx context.Context, merchantID string) ([]repository.StatusCount, error)
	SumAmountByStatus(ctx context.Context, merchantID string, statuses []string) (int64, error)
}

// SimulateFailureRequest creates a failed payment for testing and demos.
type SimulateFailureRequest struct {
	MerchantID  string `json:"merchant_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	FailureType string `json:"failure_type"`
	CardLast4   string `json:"card_last4"`
	Processor   string `json:"processor"`
}

// SimulateFailureResponse reports what the simulation did.
type SimulateFailureResponse struct {
	PaymentID            string     `json:"payment_id"`
	Status               string     `json:"status"`
	FailureType          string     `json:"failure_type"`
	RetryScheduled       bool       `json:"retry_scheduled"`
	ScheduledAt          *time.Time `json:"scheduled_at,omitempty"`
	OrchestratorNotified bool       `json:"orchestrator_notified"`
	Message              string     `json:"message"`
}

// SimulateFailureHandler creates a failed payment and runs classification and
// scheduling end to end. The payment, its audit events and the retry job
// commit as one unit; the orchestrator notification happens afterwards and is
// best-effort only.
func SimulateFailureHandler(configs configFinder, lifecycle failureRecorder, notifier retryNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := SimulateFailureRequest{
			AmountCents: 10000,
			Currency:    "USD",
			FailureType: string(model.FailureInsufficientFunds),
			CardLast4:   "4242",
			Processor:   "stripe",
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		config, err := configs.FindByMerchantID(r.Context(), req.MerchantID)
		if err != nil {
			http.Error(w, "failed to load retry config", http.StatusInternalServerError)
			return
		}
		if config == nil {
			http.Error(w, "Merchant retry configuration not found. Create merchant first.", http.StatusNotFound)
			return
		}

		ft := retry.ParseFailureType(req.FailureType)
		c := retry.Classify(ft, config)

		payment := model.Payment{
			MerchantID:     req.MerchantID,
			AmountCents:    req.AmountCents,
			Currency:       req.Currency,
			CardLast4:      req.CardLast4,
			CardBrand:      "visa",
			Processor:      req.Processor,
			FailureType:    &ft,
			FailureCode:    string(ft),
			FailureMessage: "Simulated failure: " + string(ft),
		}

		job, err := lifecycle.RecordFailure(r.Context(), &payment, c)
		if err != nil {
			http.Error(w, "failed to record payment failure", http.StatusInternalServerError)
			return
		}

		resp := SimulateFailureResponse{
			PaymentID:   payment.ID,
			Status:      payment.Status,
			FailureType: string(ft),
			Message:     "Retry not enabled for this failure type",
		}

		if job != nil {
			resp.RetryScheduled = true
			resp.ScheduledAt = &job.ScheduledAt
			resp.Message = "Retry scheduled"

			// Fire and forget: a dead orchestrator never unwinds the
			// already-committed schedule.
			err := notifier.NotifyPaymentFailed(r.Context(), connectors.RetryAttemptNotification{
				PaymentID:     payment.ID,
				MerchantID:    payment.MerchantID,
				AmountCents:   payment.AmountCents,
				Currency:      payment.Currency,
				FailureType:   string(ft),
				CardLast4:     payment.CardLast4,
				AttemptNumber: job.AttemptNumber,
				ScheduledAt:   job.ScheduledAt.Format(time.RFC3339),
				DelayMinutes:  c.DelayMinutes,
				MaxAttempts:   c.MaxAttempts,
				CallbackURL:   notifier.CallbackURL(),
			})
			if err != nil {
				logger.WithFields(map[string]interface{}{
					"payment_id": payment.ID,
				}).WithError(err).Warn("Could not notify orchestrator")
			}
			resp.OrchestratorNotified = err == nil
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// TriggerRetryHandler manually re-notifies the orchestrator for an existing
// payment. Useful for poking the workflow during testing.
func TriggerRetryHandler(payments paymentFinder, configs configFinder, notifier retryNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID := chi.URLParam(r, "paymentID")

		payment, err := payments.FindByID(r.Context(), paymentID)
		if err != nil {
			http.Error(w, "failed to load payment", http.StatusInternalServerError)
			return
		}
		if payment == nil {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}

		config, err := configs.FindByMerchantID(r.Context(), payment.MerchantID)
		if err != nil {
			http.Error(w, "failed to load retry config", http.StatusInternalServerError)
			return
		}
		maxAttempts := 3
		if config != nil {
			maxAttempts = config.MaxAttempts
		}

		ft := model.FailureUnknown
		if payment.FailureType != nil {
			ft = *payment.FailureType
		}

		notification := connectors.RetryAttemptNotification{
			PaymentID:     payment.ID,
			MerchantID:    payment.MerchantID,
			AmountCents:   payment.AmountCents,
			Currency:      payment.Currency,
			FailureType:   string(ft),
			CardLast4:     payment.CardLast4,
			AttemptNumber: payment.RetryCount + 1,
			MaxAttempts:   maxAttempts,
			CallbackURL:   notifier.CallbackURL(),
		}
		if err := notifier.NotifyPaymentFailed(r.Context(), notification); err != nil {
			http.Error(w, "Could not notify orchestrator: "+err.Error(), http.StatusServiceUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "triggered",
			"payment_id":   payment.ID,
			"payload_sent": notification,
		})
	}
}

// StatsHandler aggregates a merchant's recovery statistics: counts and
// amounts by status plus the recovery rate over retry-eligible payments.
// The "retrying" amount covers payments currently in the retrying status.
func StatsHandler(payments statsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := chi.URLParam(r, "merchantID")

		counts, err := payments.CountByStatus(r.Context(), merchantID)
		if err != nil {
			http.Error(w, "failed to aggregate payments", http.StatusInternalServerError)
			return
		}

		breakdown := make(map[string]int64, len(counts))
		var total int64
		for _, row := range counts {
			breakdown[row.Status] = row.Count
			total += row.Count
		}

		recoveredAmount, err := payments.SumAmountByStatus(r.Context(), merchantID, []string{model.PaymentStatusRecovered})
		if err != nil {
			http.Error(w, "failed to aggregate payments", http.StatusInternalServerError)
			return
		}
		retryingAmount, err := payments.SumAmountByStatus(r.Context(), merchantID, []string{model.PaymentStatusRetrying})
		if err != nil {
			http.Error(w, "failed to aggregate payments", http.StatusInternalServerError)
			return
		}
		lostAmount, err := payments.SumAmountByStatus(r.Context(), merchantID, []string{model.PaymentStatusFailed, model.PaymentStatusExhausted})
		if err != nil {
			http.Error(w, "failed to aggregate payments", http.StatusInternalServerError)
			return
		}

		recovered := breakdown[model.PaymentStatusRecovered]
		failed := breakdown[model.PaymentStatusFailed]
		exhausted := breakdown[model.PaymentStatusExhausted]
		retrying := breakdown[model.PaymentStatusRetrying]

		recoveryRate := decimal.Zero
		if eligible := failed + exhausted + recovered + retrying; eligible > 0 {
			recoveryRate = decimal.NewFromInt(recovered).
				Div(decimal.NewFromInt(eligible)).
				Mul(decimal.NewFromInt(100)).
				Round(1)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"merchant_id":            merchantID,
			"total_payments":         total,
			"status_breakdown":       breakdown,
			"recovery_rate":          recoveryRate.StringFixed(1) + "%",
			"recovered_count":        recovered,
			"recovered_amount_cents": recoveredAmount,
			"retrying_count":         retrying,
			"retrying_amount_cents":  retryingAmount,
			"failed_count":           failed,
			"exhausted_count":        exhausted,
			"lost_amount_cents":      lostAmount,
		})
	}
}
