package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"retryengine/src/model"
)

type mockConfigUpdater struct {
	config      *model.MerchantRetryConfig
	err         error
	merchantID  string
	update      model.RetryConfigUpdate
	calledCount int
}

func (m *mockConfigUpdater) Update(ctx context.Context, merchantID string, update model.RetryConfigUpdate) (*model.MerchantRetryConfig, error) {
	m.calledCount++
	m.merchantID = merchantID
	m.update = update
	return m.config, m.err
}

func TestGetRetryConfigHandler_NotFound(t *testing.T) {
	handler := GetRetryConfigHandler(&mockConfigFinder{})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/retry-config/m-404", nil), "merchantID", "m-404")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestGetRetryConfigHandler_Success(t *testing.T) {
	handler := GetRetryConfigHandler(&mockConfigFinder{config: enabledConfig()})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/retry-config/m-1", nil), "merchantID", "m-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var config model.MerchantRetryConfig
	if err := json.Unmarshal(rr.Body.Bytes(), &config); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	assert.Equal(t, "m-1", config.MerchantID)
	assert.Equal(t, 3, config.MaxAttempts)
}

func TestUpdateRetryConfigHandler_SparseUpdate(t *testing.T) {
	updater := &mockConfigUpdater{config: enabledConfig()}
	handler := UpdateRetryConfigHandler(updater)

	req := withURLParam(postJSON("/retry-config/m-1", `{"card_declined_delay":90}`), "merchantID", "m-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	assert.Equal(t, "m-1", updater.merchantID)
	if assert.NotNil(t, updater.update.CardDeclinedDelay) {
		assert.Equal(t, 90, *updater.update.CardDeclinedDelay)
	}
	// Unspecified fields stay nil so the stored values survive.
	assert.Nil(t, updater.update.MaxAttempts)
	assert.Nil(t, updater.update.RetryEnabled)
	assert.Nil(t, updater.update.NetworkTimeoutDelay)
}

func TestUpdateRetryConfigHandler_MaxAttemptsOutOfRange(t *testing.T) {
	updater := &mockConfigUpdater{config: enabledConfig()}
	handler := UpdateRetryConfigHandler(updater)

	req := withURLParam(postJSON("/retry-config/m-1", `{"max_attempts":9}`), "merchantID", "m-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	assert.Equal(t, 0, updater.calledCount)
}

func TestUpdateRetryConfigHandler_NegativeDelay(t *testing.T) {
	updater := &mockConfigUpdater{config: enabledConfig()}
	handler := UpdateRetryConfigHandler(updater)

	req := withURLParam(postJSON("/retry-config/m-1", `{"insufficient_funds_delay":-10}`), "merchantID", "m-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	assert.Equal(t, 0, updater.calledCount)
}

func TestUpdateRetryConfigHandler_NotFound(t *testing.T) {
	handler := UpdateRetryConfigHandler(&mockConfigUpdater{})

	req := withURLParam(postJSON("/retry-config/m-404", `{"max_attempts":2}`), "merchantID", "m-404")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestPreviewRetryConfigHandler_AllTypesEnabled(t *testing.T) {
	handler := PreviewRetryConfigHandler(&mockConfigFinder{config: enabledConfig()})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/retry-config/m-1/preview", nil), "merchantID", "m-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// 0.20*0.35 + 0.15*0.25 + 0.60*0.20 + 0.80*0.05 = 0.2675
	assert.Equal(t, "26.8%", resp["estimated_total_recovery"])

	breakdown, ok := resp["breakdown"].([]any)
	if !ok || len(breakdown) != 4 {
		t.Fatalf("expected 4 breakdown entries, got %v", resp["breakdown"])
	}
	first := breakdown[0].(map[string]any)
	assert.Equal(t, "insufficient_funds", first["failure_type"])
	assert.Equal(t, true, first["enabled"])
	assert.Equal(t, "20%", first["estimated_recovery_rate"])
	assert.Equal(t, "7.0%", first["contribution_to_total"])
}

func TestPreviewRetryConfigHandler_DisabledTypeContributesNothing(t *testing.T) {
	config := enabledConfig()
	config.NetworkTimeoutEnabled = false
	handler := PreviewRetryConfigHandler(&mockConfigFinder{config: config})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/retry-config/m-1/preview", nil), "merchantID", "m-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// The network_timeout share (12.0) drops out of the total.
	assert.Equal(t, "14.8%", resp["estimated_total_recovery"])

	breakdown := resp["breakdown"].([]any)
	network := breakdown[2].(map[string]any)
	assert.Equal(t, "network_timeout", network["failure_type"])
	assert.Equal(t, false, network["enabled"])
	assert.Equal(t, "0%", network["contribution_to_total"])
}
