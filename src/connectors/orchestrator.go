package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

// RetryAttemptNotification is the payload sent to the external workflow
// orchestrator when a retry has been scheduled. The orchestrator waits out
// the delay and calls back on CallbackURL with the execution result.
type RetryAttemptNotification struct {
	PaymentID     string `json:"payment_id"`
	MerchantID    string `json:"merchant_id"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	FailureType   string `json:"failure_type"`
	CardLast4     string `json:"card_last4"`
	AttemptNumber int    `json:"attempt_number"`
	ScheduledAt   string `json:"scheduled_at,omitempty"`
	DelayMinutes  int    `json:"delay_minutes"`
	MaxAttempts   int    `json:"max_attempts"`
	CallbackURL   string `json:"callback_url"`
}

// OrchestratorClient posts retry notifications to the external orchestrator.
// Delivery is best-effort: callers log failures and carry on, they never roll
// back local state over an unreachable orchestrator.
type OrchestratorClient struct {
	http        *resty.Client
	webhookURL  string
	callbackURL string
}

// NewOrchestratorClient builds a client from the connector configuration.
func NewOrchestratorClient() *OrchestratorClient {
	config := GetConfig()

	httpClient := resty.New().
		SetTimeout(time.Duration(config.RequestTimeoutSeconds) * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &OrchestratorClient{
		http:        httpClient,
		webhookURL:  config.OrchestratorWebhookURL,
		callbackURL: config.RetryResultCallbackURL,
	}
}

// WithBaseURL overrides the webhook endpoint. Tests point this at an
// httptest server.
func (c *OrchestratorClient) WithBaseURL(webhookURL string) *OrchestratorClient {
	return &OrchestratorClient{http: c.http, webhookURL: webhookURL, callbackURL: c.callbackURL}
}

// CallbackURL returns the address the orchestrator should report results to.
func (c *OrchestratorClient) CallbackURL() string {
	return c.callbackURL
}

// NotifyPaymentFailed sends the full attempt context to the orchestrator's
// payment-failed webhook.
func (c *OrchestratorClient) NotifyPaymentFailed(ctx context.Context, notification RetryAttemptNotification) error {
	if notification.CallbackURL == "" {
		notification.CallbackURL = c.callbackURL
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(notification).
		Post(c.webhookURL + "/payment-failed")
	if err != nil {
		return fmt.Errorf("orchestrator webhook request failed: %w", err)
	}
	if resp.StatusCode()/100 != 2 {
		return fmt.Errorf("orchestrator webhook non-2xx status: %d", resp.StatusCode())
	}

	logger.WithFields(map[string]interface{}{
		"connector":  "OrchestratorClient",
		"payment_id": notification.PaymentID,
		"attempt":    notification.AttemptNumber,
	}).Debug("Orchestrator notified")

	return nil
}
