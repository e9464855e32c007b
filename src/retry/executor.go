package retry

import (
	"fmt"
	"math/rand"

	"retryengine/src/model"
)

// Executor simulates a single retry attempt against the payment processor.
// The outcome is a policy-weighted coin flip: a uniform draw in [0,1)
// compared against the failure type's success probability. It is a pure
// decision step and never mutates payment state.
type Executor struct {
	rand func() float64
}

// NewExecutor returns an executor backed by math/rand.
func NewExecutor() *Executor {
	return &Executor{rand: rand.Float64}
}

// WithRand overrides the randomness source. Tests use this to pin the draw.
func (e *Executor) WithRand(fn func() float64) *Executor {
	return &Executor{rand: fn}
}

// Outcome is the result of one simulated retry attempt.
type Outcome struct {
	AttemptNumber      int     `json:"attempt_number"`
	Success            bool    `json:"success"`
	ResultCode         string  `json:"result_code"`
	ResultMessage      string  `json:"result_message"`
	SuccessProbability float64 `json:"success_probability"`
	RandomValue        float64 `json:"random_value"`
	ShouldContinue     bool    `json:"should_continue"`
	NextAttempt        *int    `json:"next_attempt"`
}

// Execute draws the outcome for an attempt. ShouldContinue is true iff the
// attempt failed and the attempt number is still below the merchant's
// configured ceiling.
func (e *Executor) Execute(ft model.FailureType, attemptNumber, maxAttempts int) Outcome {
	p := SuccessRate(ft)
	r := e.rand()
	success := r < p

	shouldContinue := !success && attemptNumber < maxAttempts

	out := Outcome{
		AttemptNumber:      attemptNumber,
		Success:            success,
		SuccessProbability: p,
		RandomValue:        r,
		ShouldContinue:     shouldContinue,
	}

	if success {
		out.ResultCode = "succeeded"
		out.ResultMessage = fmt.Sprintf("Payment recovered successfully on attempt %d", attemptNumber)
		return out
	}

	out.ResultCode = string(ft)
	out.ResultMessage = fmt.Sprintf("Retry attempt %d failed: %s", attemptNumber, ft)
	if shouldContinue {
		next := attemptNumber + 1
		out.NextAttempt = &next
	} else {
		out.ResultMessage += " (all attempts exhausted)"
	}

	return out
}
