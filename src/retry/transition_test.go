package retry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"retryengine/src/model"
)

func retryingPayment(retryCount int) *model.Payment {
	return &model.Payment{
		ID:         "11111111-1111-1111-1111-111111111111",
		Status:     model.PaymentStatusRetrying,
		RetryCount: retryCount,
	}
}

func TestTransitionSuccessRecovers(t *testing.T) {
	res, err := Transition(retryingPayment(1), 2, true, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, model.PaymentStatusRecovered, res.NewStatus)
	assert.Equal(t, model.EventRetrySuccess, res.EventType)
	assert.True(t, res.Recovered)
	assert.Equal(t, 1, res.RetryCount)
}

func TestTransitionFailureWithAttemptsLeft(t *testing.T) {
	res, err := Transition(retryingPayment(1), 2, false, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, model.PaymentStatusRetrying, res.NewStatus)
	assert.Equal(t, model.EventRetryFailed, res.EventType)
	assert.Equal(t, 2, res.RetryCount)
}

func TestTransitionFailureAtCeilingExhausts(t *testing.T) {
	// Scenario: retry_count=2, max_attempts=3, failed attempt 3.
	res, err := Transition(retryingPayment(2), 3, false, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, model.PaymentStatusExhausted, res.NewStatus)
	assert.Equal(t, model.EventExhausted, res.EventType)
	assert.Equal(t, 3, res.RetryCount)
}

func TestTransitionUsesCurrentMaxAttempts(t *testing.T) {
	// Config lowered to 2 after attempt 2 was scheduled: the ceiling check
	// uses the value passed at update time.
	res, err := Transition(retryingPayment(1), 2, false, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, model.PaymentStatusExhausted, res.NewStatus)
}

func TestTransitionRejectsTerminalPayment(t *testing.T) {
	for _, status := range []string{
		model.PaymentStatusRecovered,
		model.PaymentStatusExhausted,
		model.PaymentStatusPending,
		model.PaymentStatusFailed,
		model.PaymentStatusSucceeded,
	} {
		p := retryingPayment(2)
		p.Status = status

		_, err := Transition(p, 3, false, 3)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("status %s: expected ErrInvalidTransition, got %v", status, err)
		}
	}
}

func TestTransitionRejectsReplayedAttempt(t *testing.T) {
	// Attempt 2 already applied; replaying it must not rewind retry_count.
	_, err := Transition(retryingPayment(2), 2, false, 3)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = Transition(retryingPayment(2), 0, false, 3)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for attempt 0, got %v", err)
	}
}
