package retry

import (
	"errors"
	"fmt"

	"retryengine/src/model"
)

// ErrInvalidTransition marks a status update requested from a state or
// attempt combination the lifecycle does not allow. Callers must reject the
// request without any partial state change.
var ErrInvalidTransition = errors.New("invalid payment transition")

// TransitionResult describes how an accepted execution result moves the
// payment forward.
type TransitionResult struct {
	NewStatus  string
	EventType  string
	RetryCount int
	Recovered  bool
}

// Transition applies the retry state machine to an execution result.
//
// Legal moves from retrying: recovered (success), retrying (failure with
// attempts left) and exhausted (failure at the attempt ceiling). The ceiling
// is the merchant's max_attempts as configured at update time, so a config
// change between scheduling and execution takes effect immediately. Any
// other state rejects with ErrInvalidTransition; replaying a result against
// an already-terminal payment therefore never double-applies.
func Transition(p *model.Payment, attemptNumber int, success bool, maxAttempts int) (TransitionResult, error) {
	if p.Status != model.PaymentStatusRetrying {
		return TransitionResult{}, fmt.Errorf("%w: payment is %s, expected %s",
			ErrInvalidTransition, p.Status, model.PaymentStatusRetrying)
	}
	if attemptNumber < 1 {
		return TransitionResult{}, fmt.Errorf("%w: attempt number %d", ErrInvalidTransition, attemptNumber)
	}

	if success {
		return TransitionResult{
			NewStatus:  model.PaymentStatusRecovered,
			EventType:  model.EventRetrySuccess,
			RetryCount: p.RetryCount,
			Recovered:  true,
		}, nil
	}

	if attemptNumber <= p.RetryCount {
		// retry_count is monotonic; a stale or duplicated attempt result
		// must not rewind it.
		return TransitionResult{}, fmt.Errorf("%w: attempt %d already applied (retry_count=%d)",
			ErrInvalidTransition, attemptNumber, p.RetryCount)
	}

	res := TransitionResult{RetryCount: attemptNumber}
	if attemptNumber >= maxAttempts {
		res.NewStatus = model.PaymentStatusExhausted
		res.EventType = model.EventExhausted
	} else {
		res.NewStatus = model.PaymentStatusRetrying
		res.EventType = model.EventRetryFailed
	}
	return res, nil
}
