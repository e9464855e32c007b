package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"retryengine/src/model"
	"retryengine/src/repository"
	"retryengine/src/retry"
)

func TestRetryResultHandler_FinalizesJob(t *testing.T) {
	applier := &mockResultApplier{
		result: &repository.AttemptResult{
			Payment:   &model.Payment{ID: "p-1", Status: model.PaymentStatusExhausted},
			EventType: model.EventExhausted,
		},
	}
	handler := RetryResultHandler(applier)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/webhooks/retry-result", `{"payment_id":"p-1","attempt_number":3,"success":false,"result_code":"card_declined","result_message":"declined"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	// The callback path closes out the matching retry job as well.
	assert.True(t, applier.params.FinalizeJob)
	assert.Equal(t, "p-1", applier.params.PaymentID)
	assert.Equal(t, 3, applier.params.AttemptNumber)
	assert.Equal(t, "card_declined", applier.params.ResultCode)

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, "received", resp["status"])
	assert.Equal(t, model.PaymentStatusExhausted, resp["new_payment_status"])
	assert.Equal(t, model.EventExhausted, resp["event_logged"])
}

func TestRetryResultHandler_ReplayConflict(t *testing.T) {
	handler := RetryResultHandler(&mockResultApplier{err: retry.ErrInvalidTransition})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/webhooks/retry-result", `{"payment_id":"p-1","attempt_number":3,"success":false}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestRetryResultHandler_UnknownPayment(t *testing.T) {
	handler := RetryResultHandler(&mockResultApplier{err: repository.ErrPaymentNotFound})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/webhooks/retry-result", `{"payment_id":"missing","attempt_number":1,"success":true}`))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
