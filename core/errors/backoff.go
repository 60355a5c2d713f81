package errors

import (
	"math"
	"math/rand"
	"time"
)

// BackoffDelay computes the delay before a provider is retried after its
// nth consecutive failure. Formula: delay = initial * (multiplier ^ attempt),
// capped at the policy maximum.
func BackoffDelay(attempt int, policy *RetryPolicy) time.Duration {
	if policy == nil {
		return 0
	}

	multiplier := policy.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	factor := math.Pow(multiplier, float64(attempt))
	delay := time.Duration(float64(policy.InitialDelay) * factor)

	if delay > policy.MaxDelay {
		return policy.MaxDelay
	}
	return delay
}

// AddJitter applies a random offset of ±jitterPercent to the delay so that
// recovering providers are not hit by synchronized retries.
func AddJitter(delay time.Duration, jitterPercent float64) time.Duration {
	if jitterPercent <= 0 {
		return delay
	}

	jitterRange := float64(delay) * jitterPercent
	offset := (rand.Float64()*2 - 1) * jitterRange
	jittered := time.Duration(float64(delay) + offset)

	if jittered < time.Millisecond {
		return time.Millisecond
	}
	return jittered
}
