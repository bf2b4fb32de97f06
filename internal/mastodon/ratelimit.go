package mastodon

import (
	"sync"
	"time"
)

const (
	// Mastodon's documented per-account request budget per window
	defaultRateLimit = 300

	// assumed reset window until enough resets have been observed
	defaultResetPeriod = 300 * time.Second

	// observed reset periods kept for the running mean
	maxObservedPeriods = 10
)

// NewRateObserver tracks the instance's API rate limit. seed is the
// last observed reset period from a previous run, zero for none.
func NewRateObserver(seed time.Duration) *RateObserver {
	o := &RateObserver{
		remaining: defaultRateLimit,
		now:       time.Now,
	}
	o.lastReset = o.now()
	if seed > 0 {
		o.periods = []time.Duration{seed, seed, seed}
	}
	return o
}

// RateObserver watches X-RateLimit response headers. At least some
// instances lie about the advertised reset time: the header may say
// five minutes while the limit actually resets every fifteen. So next
// to the advertised reset the observer keeps a mean of the reset
// periods it has actually seen (remaining count jumping back up) and
// pacing decisions use the observed value.
type RateObserver struct {
	mu        sync.Mutex
	remaining int
	lastReset time.Time
	nextReset time.Time // advertised, informational only
	periods   []time.Duration
	now       func() time.Time
}

// Observe records the rate headers of one response. resetAt is the
// advertised reset time, zero when the header was absent or unreadable.
func (o *RateObserver) Observe(remaining int, resetAt time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if remaining > o.remaining {
		o.periods = append(o.periods, o.now().Sub(o.lastReset))
		if len(o.periods) > maxObservedPeriods {
			o.periods = o.periods[len(o.periods)-maxObservedPeriods:]
		}
		// the first sample starts mid-window and is unreliable
		if len(o.periods) == 2 {
			o.periods[0] = o.periods[1]
		}
		o.lastReset = o.now()
	}
	o.remaining = remaining

	if !resetAt.IsZero() {
		o.nextReset = resetAt
	}
}

// RateRemaining returns the last known remaining request count for the
// current window.
func (o *RateObserver) RateRemaining() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remaining
}

// ObservedResetPeriod returns the mean observed reset period, or the
// default until three resets have been seen.
func (o *RateObserver) ObservedResetPeriod() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.observedResetPeriod()
}

func (o *RateObserver) observedResetPeriod() time.Duration {
	if len(o.periods) <= 2 {
		return defaultResetPeriod
	}
	var sum time.Duration
	for _, p := range o.periods {
		sum += p
	}
	return sum / time.Duration(len(o.periods))
}

// EstimatedTimeToReset returns how long until the next rate limit
// reset, based on observation rather than the advertised header.
func (o *RateObserver) EstimatedTimeToReset() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	left := o.observedResetPeriod() - o.now().Sub(o.lastReset)
	if left < 0 {
		return 0
	}
	return left
}

// EstimatedRateReset returns the estimated wall-clock time of the next
// rate limit reset.
func (o *RateObserver) EstimatedRateReset() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()

	left := o.observedResetPeriod() - o.now().Sub(o.lastReset)
	if left < 0 {
		left = 0
	}
	return o.now().Add(left)
}

// AdvertisedReset returns the reset time from the most recent
// X-RateLimit-Reset header, zero when none has been seen.
func (o *RateObserver) AdvertisedReset() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nextReset
}
