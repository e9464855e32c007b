package retry

import "retryengine/src/model"

// defaultSuccessRate applies to failure types missing from the table.
const defaultSuccessRate = 0.10

// successRates maps each failure type to the base probability that a retry
// attempt against the processor succeeds.
var successRates = map[model.FailureType]float64{
	model.FailureInsufficientFunds: 0.20,
	model.FailureCardDeclined:      0.15,
	model.FailureNetworkTimeout:    0.60,
	model.FailureProcessorDowntime: 0.80,
	model.FailureUnknown:           0.10,
	model.FailureFraud:             0.0,
	model.FailureExpired:           0.0,
}

// nonRetriable are the failure types never eligible for retry, regardless of
// merchant configuration.
var nonRetriable = map[model.FailureType]bool{
	model.FailureFraud:   true,
	model.FailureExpired: true,
}

// ParseFailureType coerces an arbitrary input string into a known failure
// type. Unrecognized values map to unknown; classification is total over all
// strings and never fails.
func ParseFailureType(s string) model.FailureType {
	switch ft := model.FailureType(s); ft {
	case model.FailureInsufficientFunds,
		model.FailureCardDeclined,
		model.FailureNetworkTimeout,
		model.FailureProcessorDowntime,
		model.FailureFraud,
		model.FailureExpired,
		model.FailureUnknown:
		return ft
	default:
		return model.FailureUnknown
	}
}

// SuccessRate returns the base success probability for a failure type.
func SuccessRate(ft model.FailureType) float64 {
	if p, ok := successRates[ft]; ok {
		return p
	}
	return defaultSuccessRate
}

// IsRetriable reports whether the failure type is eligible for retry in
// principle.
func IsRetriable(ft model.FailureType) bool {
	return !nonRetriable[ft]
}

// SuccessRates returns a copy of the full probability table, keyed by the
// string form of the failure type. Used by the health endpoint.
func SuccessRates() map[string]float64 {
	out := make(map[string]float64, len(successRates))
	for ft, p := range successRates {
		out[string(ft)] = p
	}
	return out
}

// NonRetriableTypes lists the failure types excluded from retry.
func NonRetriableTypes() []string {
	out := make([]string, 0, len(nonRetriable))
	for ft := range nonRetriable {
		out = append(out, string(ft))
	}
	return out
}
