package scanner

import (
	"errors"
	"time"
)

type StatusModel struct {
	AccountId       string
	LastNoteId      string
	LastHornTime    time.Time
	HornWindow      time.Duration
	WindowRemaining time.Duration // zero when the horn may sound
	HornInFlight    bool
	StartedAt       time.Time
}

var (
	ErrHornWindow = errors.New("the horn sounded too recently")
	ErrHornBusy   = errors.New("a horn delivery is already in progress")
)
