package mastodon

import (
	"testing"
	"time"
)

func TestObservedResetPeriodDefaults(t *testing.T) {
	o := NewRateObserver(0)
	if got := o.ObservedResetPeriod(); got != 300*time.Second {
		t.Fatalf("expected default period, got %s", got)
	}

	seeded := NewRateObserver(900 * time.Second)
	if got := seeded.ObservedResetPeriod(); got != 900*time.Second {
		t.Fatalf("expected seeded period, got %s", got)
	}
}

func TestObserveLearnsResetPeriod(t *testing.T) {
	clock := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	o := NewRateObserver(0)
	o.now = func() time.Time { return clock }
	o.lastReset = clock

	// the instance advertises 300s but actually resets every 900s
	step := func(d time.Duration, remaining int) {
		clock = clock.Add(d)
		o.Observe(remaining, time.Time{})
	}

	step(10*time.Second, 280) // spend budget, no reset
	if got := o.RateRemaining(); got != 280 {
		t.Fatalf("expected remaining tracked, got %d", got)
	}

	step(890*time.Second, 300) // first observed reset (unreliable sample)
	step(20*time.Second, 280)
	step(880*time.Second, 300) // second reset, overwrites the first sample
	if got := o.ObservedResetPeriod(); got != 300*time.Second {
		t.Fatalf("expected default until three samples, got %s", got)
	}

	step(30*time.Second, 270)
	step(870*time.Second, 300) // third reset
	if got := o.ObservedResetPeriod(); got != 900*time.Second {
		t.Fatalf("expected observed mean 900s, got %s", got)
	}
}

func TestEstimatedTimeToReset(t *testing.T) {
	clock := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	o := NewRateObserver(600 * time.Second)
	o.now = func() time.Time { return clock }
	o.lastReset = clock

	clock = clock.Add(100 * time.Second)
	if got := o.EstimatedTimeToReset(); got != 500*time.Second {
		t.Fatalf("expected 500s to reset, got %s", got)
	}

	clock = clock.Add(700 * time.Second)
	if got := o.EstimatedTimeToReset(); got != 0 {
		t.Fatalf("expected clamp at zero, got %s", got)
	}

	want := clock.Add(0)
	if got := o.EstimatedRateReset(); !got.Equal(want) {
		t.Fatalf("expected reset estimate %s, got %s", want, got)
	}
}

func TestObservedPeriodWindowBounded(t *testing.T) {
	clock := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	o := NewRateObserver(0)
	o.now = func() time.Time { return clock }
	o.lastReset = clock

	for i := 0; i < maxObservedPeriods+5; i++ {
		clock = clock.Add(5 * time.Minute)
		o.Observe(100, time.Time{})
		clock = clock.Add(time.Second)
		o.Observe(300, time.Time{})
	}
	if len(o.periods) != maxObservedPeriods {
		t.Fatalf("expected window bounded at %d, got %d", maxObservedPeriods, len(o.periods))
	}
}

func TestObserveRecordsAdvertisedReset(t *testing.T) {
	o := NewRateObserver(0)
	at := time.Date(2026, 2, 1, 12, 5, 0, 0, time.UTC)
	o.Observe(250, at)
	if !o.AdvertisedReset().Equal(at) {
		t.Fatalf("expected advertised reset recorded, got %s", o.AdvertisedReset())
	}
}
