package scanner

import (
	"context"
	"strings"
	"testing"
	"time"

	"jitsibot/internal/mastodon"
)

func TestHornPacing(t *testing.T) {
	cases := []struct {
		name        string
		remaining   int
		audience    int
		requestors  int
		wantPerToot int
		wantWait    time.Duration
	}{
		{
			// budget exhausted: big batches, slow drip
			name:        "low budget",
			remaining:   20, // 0 left after the 20-call polling projection
			audience:    100,
			wantPerToot: 10,
			wantWait:    30 * time.Second,
		},
		{
			name:        "plenty of budget",
			remaining:   300, // 280 left
			audience:    100,
			wantPerToot: 2,
			wantWait:    0,
		},
		{
			name:        "grow batches to fit budget",
			remaining:   30, // 10 left
			audience:    100,
			wantPerToot: 10,
			wantWait:    0,
		},
		{
			// even max batches exceed the budget: space them out
			name:        "space out toots",
			remaining:   28, // 8 left, 10 toots needed
			audience:    100,
			wantPerToot: 10,
			wantWait:    31 * time.Second, // 300s / 10 toots + 1s
		},
		{
			name:        "requestor replies count against budget",
			remaining:   28, // 5 left after 3 replies
			audience:    10,
			requestors:  3,
			wantPerToot: 2,
			wantWait:    0,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			trunk := &fakeTrunk{
				remaining:   tc.remaining,
				timeToReset: 300 * time.Second,
			}
			s, _ := newTestScanner(t, trunk) // poll period 15s

			perToot, wait := s.hornPacing(tc.audience, tc.requestors)
			if perToot != tc.wantPerToot || wait != tc.wantWait {
				t.Fatalf("expected perToot=%d wait=%s, got perToot=%d wait=%s",
					tc.wantPerToot, tc.wantWait, perToot, wait)
			}
		})
	}
}

func TestSoundHornRetriesFailedToot(t *testing.T) {
	trunk := &fakeTrunk{
		accountId:   "42",
		followers:   []string{"alice", "bob"},
		remaining:   300,
		timeToReset: 8 * time.Second,
		resetPeriod: 300 * time.Second,
		postErrs:    []error{&mastodon.APIError{Caller: "postStatus", Code: 429}},
	}
	s, _ := newTestScanner(t, trunk)

	var slept []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if err := s.soundHorn(context.Background(), "d01", map[string]string{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trunk.posts) != 1 {
		t.Fatalf("expected one successful toot after retry, got %v", trunk.posts)
	}
	// estimated reset was under a poll period, so the wait is rounded up
	if len(slept) != 1 || slept[0] != 15*time.Second {
		t.Fatalf("expected one 15s retry wait, got %v", slept)
	}
}

func TestSoundHornStopsOnConnectionError(t *testing.T) {
	trunk := &fakeTrunk{
		accountId:   "42",
		followers:   []string{"alice"},
		remaining:   300,
		timeToReset: 300 * time.Second,
		postErrs:    []error{&mastodon.ConnectionError{Err: context.DeadlineExceeded}},
	}
	s, state := newTestScanner(t, trunk)

	err := s.soundHorn(context.Background(), "d01", map[string]string{}, nil)
	if err == nil {
		t.Fatalf("expected connection error surfaced")
	}
	st, stateErr := state.GetState()
	if stateErr != nil {
		t.Fatalf("unexpected error: %v", stateErr)
	}
	if len(st.Deliveries) != 0 || st.LastHornTime != 0 {
		t.Fatalf("expected no horn recorded after failure, got %+v", st)
	}
}

func TestSoundHornRefreshesAccountId(t *testing.T) {
	trunk := &fakeTrunk{
		accountId:   "42",
		followers:   []string{"alice"},
		remaining:   300,
		timeToReset: 300 * time.Second,
		resetPeriod: 300 * time.Second,
	}
	s, _ := newTestScanner(t, trunk)

	// unresolved at startup, picked up once the horn resolves it
	if got := s.Status().AccountId; got != "" {
		t.Fatalf("expected no account id before sounding, got %q", got)
	}
	if err := s.soundHorn(context.Background(), "d01", map[string]string{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Status().AccountId; got != "42" {
		t.Fatalf("expected account id cached after sounding, got %q", got)
	}
}

func TestSoundHornExcludesRequestorsAndGreeted(t *testing.T) {
	trunk := &fakeTrunk{
		accountId:   "42",
		followers:   []string{"alice", "bob", "carol"},
		remaining:   300,
		timeToReset: 300 * time.Second,
		resetPeriod: 300 * time.Second,
	}
	s, _ := newTestScanner(t, trunk)

	err := s.soundHorn(context.Background(), "d01", map[string]string{"bob": "s7"}, []string{"carol"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// one batch toot for alice, one reply to bob
	if len(trunk.posts) != 2 {
		t.Fatalf("expected 2 posts, got %v", trunk.posts)
	}
	if !strings.HasPrefix(trunk.posts[0].content, "@alice\n") {
		t.Fatalf("expected fan-out to alice only, got %q", trunk.posts[0].content)
	}
	if trunk.posts[1].inReplyTo != "s7" {
		t.Fatalf("expected reply to bob's status, got %+v", trunk.posts[1])
	}
}
