package internal

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffConfig controls retry spacing for a bounded-retry operation, such
// as a lifecycle recorder write or a file transfer attempt.
//
// Setting Multiplier to 1 and RandomizationFactor to 0 yields the fixed
// delay used by the lifecycle recorder (1s) and the transfer service (2s).
type BackoffConfig struct {
	MaxRetries          uint32
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// BackoffCounter computes the delay before the next attempt given the
// number of attempts already made. It reports ok=false once MaxRetries is
// exceeded.
type BackoffCounter struct {
	BackoffConfig
}

func NewBackoffCounter(cfg BackoffConfig) BackoffCounter {
	return BackoffCounter{cfg}
}

func (bc *BackoffCounter) Next(attempt uint32) (time.Duration, bool) {
	if attempt > bc.MaxRetries {
		return 0, false
	}
	multiplier := bc.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	exp := float64(bc.InitialInterval) * math.Pow(multiplier, float64(attempt-1))
	if bc.MaxInterval > 0 && exp > float64(bc.MaxInterval) {
		exp = float64(bc.MaxInterval)
	}
	if bc.RandomizationFactor > 0 {
		delta := bc.RandomizationFactor * exp
		minExp := exp - delta
		maxExp := exp + delta
		exp = minExp + rand.Float64()*(maxExp-minExp)
	}
	return time.Duration(exp), true
}
