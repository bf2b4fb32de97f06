package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"jitsibot/internal/config"
	"jitsibot/internal/mastodon"
	"jitsibot/internal/store/hsm"
	"jitsibot/internal/utils"
)

// maximum tolerable sequential connection errors before giving up
const errorLimit = 15

var hornPattern = regexp.MustCompile(`(?i)\b(?:toot|sound|blow)(?:\s+on)?\s+(?:teh|the|that|your?)\s+horn\b`)

func NewTootScanner(cfg *config.Manager, trunk mastodon.MastodonHandler, state hsm.HsmHandler) *TootScanner {
	return &TootScanner{
		cfg:       cfg,
		trunk:     trunk,
		state:     state,
		wake:      make(chan struct{}, 1),
		now:       time.Now,
		sleep:     sleepCtx,
		startedAt: time.Now(),
	}
}

// TootScanner is the application core. It polls for notifications,
// greets new followers, and responds to mentions asking it to sound
// the horn.
type TootScanner struct {
	cfg   *config.Manager
	trunk mastodon.MastodonHandler
	state hsm.HsmHandler

	wake  chan struct{}
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	accountId    string
	lastNoteId   string
	lastHornTime time.Time
	hornInFlight bool
	startedAt    time.Time
}

// Run restores persisted state and polls until the context ends or the
// instance stays unreachable for too long. Connection errors back off
// on a triangular schedule: one minute after the first failure, two
// after the second, and so on, up to errorLimit failures.
func (s *TootScanner) Run(ctx context.Context) error {
	s.restoreState()

	if id, err := s.trunk.GetAccountId(ctx); err == nil {
		s.mu.Lock()
		s.accountId = id
		s.mu.Unlock()
	} else {
		log.Printf("run: could not resolve account id yet: %v", err)
	}

	connectErrors := 0
	for {
		err := s.ProcessNotifications(ctx)

		var connErr *mastodon.ConnectionError
		var apiErr *mastodon.APIError
		switch {
		case err == nil:
			connectErrors = 0
			if err := s.waitNext(ctx); err != nil {
				return err
			}

		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err

		case errors.As(err, &connErr):
			totalWait := time.Duration((connectErrors*connectErrors+connectErrors)/2) * time.Minute
			connectErrors++
			log.Printf("run: %v", err)
			if connectErrors > errorLimit {
				return fmt.Errorf("run: after %s (%d failures to connect), I give up",
					utils.TimeToText(totalWait), connectErrors-1)
			}
			log.Printf("run: sleeping for %d min after a connection error (%s waited before this one)",
				connectErrors, utils.TimeToText(totalWait))
			if err := s.sleep(ctx, time.Duration(connectErrors)*time.Minute); err != nil {
				return err
			}

		case errors.As(err, &apiErr):
			// the instance answered, just not happily; keep polling
			connectErrors = 0
			log.Printf("run: request rejected by the instance: %v", err)
			if err := s.waitNext(ctx); err != nil {
				return err
			}

		default:
			return err
		}
	}
}

func (s *TootScanner) restoreState() {
	st, err := s.state.GetState()
	if err != nil {
		log.Printf("run: failed to read state, starting from scratch: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNoteId = st.LastNoteId
	if st.LastHornTime > 0 {
		s.lastHornTime = time.Unix(st.LastHornTime, 0)
	}
}

func (s *TootScanner) waitNext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.wake:
		return nil
	case <-time.After(s.cfg.Current().PollPeriod()):
		return nil
	}
}

// Wake nudges the poll loop to run a cycle now, used by the streaming
// listener when a notification arrives.
func (s *TootScanner) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *TootScanner) Status() StatusModel {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.cfg.Current().HornWindow()
	var remaining time.Duration
	if !s.lastHornTime.IsZero() {
		since := s.now().Sub(s.lastHornTime)
		if since < window {
			remaining = window - since
		}
	}
	return StatusModel{
		AccountId:       s.accountId,
		LastNoteId:      s.lastNoteId,
		LastHornTime:    s.lastHornTime,
		HornWindow:      window,
		WindowRemaining: remaining,
		HornInFlight:    s.hornInFlight,
		StartedAt:       s.startedAt,
	}
}

// TriggerHorn sounds the horn on operator demand, outside the
// notification flow. The delivery runs in the background; the returned
// id can be matched against the delivery records.
func (s *TootScanner) TriggerHorn(ctx context.Context) (string, error) {
	if err := s.beginHorn(); err != nil {
		return "", err
	}
	deliveryId := utils.NewUlid()
	detached := context.WithoutCancel(ctx)
	go func() {
		defer s.endHorn()
		if err := s.soundHorn(detached, deliveryId, map[string]string{}, nil); err != nil {
			log.Printf("triggerHorn: %v", err)
		}
	}()
	return deliveryId, nil
}

func (s *TootScanner) beginHorn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hornInFlight {
		return ErrHornBusy
	}
	if !s.lastHornTime.IsZero() && s.now().Sub(s.lastHornTime) < s.cfg.Current().HornWindow() {
		return ErrHornWindow
	}
	s.hornInFlight = true
	return nil
}

func (s *TootScanner) endHorn() {
	s.mu.Lock()
	s.hornInFlight = false
	s.mu.Unlock()
}

func (s *TootScanner) windowRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastHornTime.IsZero() {
		return 0
	}
	window := s.cfg.Current().HornWindow()
	since := s.now().Sub(s.lastHornTime)
	if since >= window {
		return 0
	}
	return window - since
}

func (s *TootScanner) storeLastNoteId(noteId string) {
	s.mu.Lock()
	s.lastNoteId = noteId
	s.mu.Unlock()
	if err := s.state.SetLastNoteId(noteId); err != nil {
		log.Printf("storeLastNoteId: failed to persist note id %s: %v", noteId, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
