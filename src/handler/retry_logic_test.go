package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"retryengine/src/model"
	"retryengine/src/repository"
	"retryengine/src/retry"
)

type mockConfigFinder struct {
	config      *model.MerchantRetryConfig
	err         error
	merchantID  string
	calledCount int
}

func (m *mockConfigFinder) FindByMerchantID(ctx context.Context, merchantID string) (*model.MerchantRetryConfig, error) {
	m.calledCount++
	m.merchantID = merchantID
	return m.config, m.err
}

type mockAuditAppender struct {
	events      []model.RetryAuditLog
	err         error
	calledCount int
}

func (m *mockAuditAppender) Append(ctx context.Context, log *model.RetryAuditLog) error {
	m.calledCount++
	m.events = append(m.events, *log)
	return m.err
}

type mockResultApplier struct {
	result      *repository.AttemptResult
	err         error
	params      repository.ApplyResultParams
	calledCount int
}

func (m *mockResultApplier) ApplyAttemptResult(ctx context.Context, params repository.ApplyResultParams) (*repository.AttemptResult, error) {
	m.calledCount++
	m.params = params
	return m.result, m.err
}

func enabledConfig() *model.MerchantRetryConfig {
	return &model.MerchantRetryConfig{
		MerchantID:               "m-1",
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
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestClassifyHandler_NonRetriableSkipsAudit(t *testing.T) {
	audits := &mockAuditAppender{}
	handler := ClassifyHandler(&mockConfigFinder{config: enabledConfig()}, audits)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/classify", `{"payment_id":"p-1","merchant_id":"m-1","failure_type":"fraud"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp ClassifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	assert.False(t, resp.IsRetriable)
	assert.False(t, resp.RetryEnabled)
	assert.Equal(t, "Failure type 'fraud' is not eligible for retry", resp.Reason)
	assert.Equal(t, 0, audits.calledCount)
}

func TestClassifyHandler_ScheduledEmitsAudit(t *testing.T) {
	audits := &mockAuditAppender{}
	configs := &mockConfigFinder{config: enabledConfig()}
	handler := ClassifyHandler(configs, audits)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/classify", `{"payment_id":"p-1","merchant_id":"m-1","failure_type":"network_timeout"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp ClassifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	assert.True(t, resp.RetryEnabled)
	assert.Equal(t, 5, resp.DelayMinutes)
	assert.Equal(t, 3, resp.MaxAttempts)
	assert.Equal(t, "m-1", configs.merchantID)

	if audits.calledCount != 1 {
		t.Fatalf("expected one audit event, got %d", audits.calledCount)
	}
	assert.Equal(t, model.EventClassified, audits.events[0].EventType)
}

func TestClassifyHandler_MissingConfig(t *testing.T) {
	audits := &mockAuditAppender{}
	handler := ClassifyHandler(&mockConfigFinder{}, audits)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/classify", `{"payment_id":"p-1","merchant_id":"m-404","failure_type":"card_declined"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp ClassifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	assert.False(t, resp.RetryEnabled)
	assert.Equal(t, "Merchant retry configuration not found", resp.Reason)
	assert.Equal(t, 0, audits.calledCount)
}

func TestClassifyHandler_BadBody(t *testing.T) {
	handler := ClassifyHandler(&mockConfigFinder{}, &mockAuditAppender{})

	req := httptest.NewRequest(http.MethodPost, "/retry-logic/classify", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestExecuteHandler_SuccessDraw(t *testing.T) {
	audits := &mockAuditAppender{}
	exec := retry.NewExecutor().WithRand(func() float64 { return 0.05 })
	handler := ExecuteHandler(&mockConfigFinder{config: enabledConfig()}, audits, exec)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/execute", `{"payment_id":"p-1","merchant_id":"m-1","attempt_number":1,"failure_type":"network_timeout"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp ExecuteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	assert.True(t, resp.Success)
	assert.Equal(t, "succeeded", resp.ResultCode)
	assert.Equal(t, 0.60, resp.SuccessProbability)
	assert.False(t, resp.ShouldContinue)
	assert.Nil(t, resp.NextAttempt)

	if audits.calledCount != 1 {
		t.Fatalf("expected one audit event, got %d", audits.calledCount)
	}
	assert.Equal(t, model.EventRetryExecuted, audits.events[0].EventType)
	assert.Equal(t, "success", audits.events[0].Result)
}

func TestExecuteHandler_FailureAtCeiling(t *testing.T) {
	audits := &mockAuditAppender{}
	exec := retry.NewExecutor().WithRand(func() float64 { return 0.99 })
	handler := ExecuteHandler(&mockConfigFinder{config: enabledConfig()}, audits, exec)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/execute", `{"payment_id":"p-1","merchant_id":"m-1","attempt_number":3,"failure_type":"card_declined"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp ExecuteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	assert.False(t, resp.Success)
	assert.Equal(t, "card_declined", resp.ResultCode)
	assert.Contains(t, resp.ResultMessage, "(all attempts exhausted)")
	assert.False(t, resp.ShouldContinue)
	assert.Nil(t, resp.NextAttempt)
	assert.Equal(t, "failure", audits.events[0].Result)
}

func TestExecuteHandler_MissingConfigFallsBackToDefaultCeiling(t *testing.T) {
	audits := &mockAuditAppender{}
	exec := retry.NewExecutor().WithRand(func() float64 { return 0.99 })
	handler := ExecuteHandler(&mockConfigFinder{}, audits, exec)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/execute", `{"payment_id":"p-1","merchant_id":"m-404","attempt_number":2,"failure_type":"card_declined"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp ExecuteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// Default ceiling is 3, so attempt 2 still has room.
	assert.True(t, resp.ShouldContinue)
	if assert.NotNil(t, resp.NextAttempt) {
		assert.Equal(t, 3, *resp.NextAttempt)
	}
}

func TestUpdateStatusHandler_Success(t *testing.T) {
	applier := &mockResultApplier{
		result: &repository.AttemptResult{
			Payment:   &model.Payment{ID: "p-1", Status: model.PaymentStatusRecovered},
			EventType: model.EventRetrySuccess,
		},
	}
	handler := UpdateStatusHandler(applier)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/update-status", `{"payment_id":"p-1","attempt_number":2,"success":true,"result_code":"succeeded"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	assert.Equal(t, "p-1", applier.params.PaymentID)
	assert.Equal(t, 2, applier.params.AttemptNumber)
	assert.True(t, applier.params.Success)
	assert.False(t, applier.params.FinalizeJob)

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, "updated", resp["status"])
	assert.Equal(t, model.PaymentStatusRecovered, resp["new_status"])
	assert.Equal(t, model.EventRetrySuccess, resp["event_logged"])
}

func TestUpdateStatusHandler_NotFound(t *testing.T) {
	handler := UpdateStatusHandler(&mockResultApplier{err: repository.ErrPaymentNotFound})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/update-status", `{"payment_id":"missing","attempt_number":1,"success":false}`))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestUpdateStatusHandler_Conflict(t *testing.T) {
	handler := UpdateStatusHandler(&mockResultApplier{err: retry.ErrInvalidTransition})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postJSON("/retry-logic/update-status", `{"payment_id":"p-1","attempt_number":1,"success":false}`))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestRetryLogicHealthHandler(t *testing.T) {
	handler := RetryLogicHealthHandler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/retry-logic/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp, "success_rates")
	assert.Contains(t, resp, "non_retriable_types")
}
