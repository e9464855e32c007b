package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyPaymentFailed_Success(t *testing.T) {
	var received RetryAttemptNotification
	var path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewOrchestratorClient().WithBaseURL(server.URL)

	err := client.NotifyPaymentFailed(context.Background(), RetryAttemptNotification{
		PaymentID:     "p-1",
		MerchantID:    "m-1",
		AmountCents:   10000,
		Currency:      "USD",
		FailureType:   "card_declined",
		AttemptNumber: 1,
		DelayMinutes:  60,
		MaxAttempts:   3,
		CallbackURL:   "http://localhost:8000/api/v1/webhooks/retry-result",
	})
	require.NoError(t, err)

	assert.Equal(t, "/payment-failed", path)
	assert.Equal(t, "p-1", received.PaymentID)
	assert.Equal(t, 1, received.AttemptNumber)
	assert.Equal(t, "http://localhost:8000/api/v1/webhooks/retry-result", received.CallbackURL)
}

func TestNotifyPaymentFailed_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewOrchestratorClient().WithBaseURL(server.URL)

	err := client.NotifyPaymentFailed(context.Background(), RetryAttemptNotification{PaymentID: "p-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-2xx")
}

func TestNotifyPaymentFailed_FillsCallbackURL(t *testing.T) {
	var received RetryAttemptNotification

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewOrchestratorClient().WithBaseURL(server.URL)

	err := client.NotifyPaymentFailed(context.Background(), RetryAttemptNotification{PaymentID: "p-1"})
	require.NoError(t, err)

	// An empty callback falls back to the configured default.
	assert.Equal(t, client.CallbackURL(), received.CallbackURL)
	assert.NotEmpty(t, received.CallbackURL)
}
