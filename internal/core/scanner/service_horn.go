package scanner

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"jitsibot/internal/mastodon"
	"jitsibot/internal/store/hsm"
	"jitsibot/internal/utils"
)

const (
	minMentionsPerToot = 2
	maxMentionsPerToot = 10

	// used when almost no call budget is left in the current window
	lowBudgetThreshold = 5
)

// soundHorn announces the Jitsi link to every follower, mentioning
// them in batches, then replies to the requestors. Requestors and
// followers greeted this cycle are left out of the fan-out.
func (s *TootScanner) soundHorn(ctx context.Context, deliveryId string, requestors map[string]string, skipFollowers []string) error {
	accountId, err := s.trunk.GetAccountId(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.accountId = accountId
	s.mu.Unlock()

	followers, err := s.trunk.GetAllFollowers(ctx, accountId)
	if err != nil {
		return err
	}

	exclude := map[string]bool{}
	for name := range requestors {
		exclude[name] = true
	}
	for _, name := range skipFollowers {
		exclude[name] = true
	}
	audience := followers[:0:0]
	for _, name := range followers {
		if !exclude[name] {
			audience = append(audience, name)
		}
	}

	perToot, waitBetween := s.hornPacing(len(audience), len(requestors))
	if waitBetween > 0 {
		log.Printf("soundHorn: tooting to %d followers %d at a time waiting %s between toots",
			len(audience), perToot, utils.TimeToText(waitBetween))
	} else {
		log.Printf("soundHorn: tooting to %d followers %d at a time", len(audience), perToot)
	}

	link := s.cfg.Current().JitsiLink
	pollPeriod := s.cfg.Current().PollPeriod()
	for pos := 0; pos < len(audience); pos += perToot {
		end := pos + perToot
		if end > len(audience) {
			end = len(audience)
		}

		var b strings.Builder
		for _, name := range audience[pos:end] {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte('@')
			b.WriteString(name)
		}
		b.WriteString("\nHear ye, hear ye, Jitsi is in session: ")
		b.WriteString(link)

		for {
			err := s.trunk.PostStatus(ctx, b.String(), "")
			if err == nil {
				break
			}
			var connErr *mastodon.ConnectionError
			if errors.As(err, &connErr) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// estimated reset may be early; if it is we will fail again
			// and wait once more, so never wait less than a poll period
			reset := s.trunk.EstimatedTimeToReset()
			if reset < pollPeriod {
				reset = pollPeriod
			}
			log.Printf("soundHorn: failed to toot while sounding the horn (%v); waiting %s for next reset",
				err, utils.TimeToText(reset))
			if err := s.sleep(ctx, reset); err != nil {
				return err
			}
		}

		if waitBetween > 0 && end < len(audience) {
			if err := s.sleep(ctx, waitBetween); err != nil {
				return err
			}
		}
	}

	now := s.now()
	s.mu.Lock()
	s.lastHornTime = now
	s.mu.Unlock()

	delivery := hsm.DeliveryInfo{
		DeliveryId: deliveryId,
		Requestors: sortedKeys(requestors),
		Followers:  len(audience),
		SoundedAt:  now,
	}
	if err := s.state.RecordHorn(delivery); err != nil {
		log.Printf("soundHorn: failed to record delivery %s: %v", deliveryId, err)
	}
	if err := s.state.SetApiResetPeriod(int(s.trunk.ObservedResetPeriod().Seconds())); err != nil {
		log.Printf("soundHorn: failed to persist observed reset period: %v", err)
	}

	for _, name := range sortedKeys(requestors) {
		reply := "@" + name + " Job's done! Toot toot!\n" + link
		if err := s.trunk.PostStatus(ctx, reply, requestors[name]); err != nil {
			log.Printf("soundHorn: failed to reply to %s: %v", name, err)
		}
	}

	log.Printf("[*] horn sounded to %d followers (delivery %s)", len(audience), deliveryId)
	return nil
}

// hornPacing decides how many followers to mention per toot and how
// long to wait between toots, from the remaining call budget in the
// current rate limit window. Budget is projected past the polling
// spend and the requestor replies still to come.
func (s *TootScanner) hornPacing(audience, requestorCount int) (perToot int, waitBetween time.Duration) {
	pollPeriod := s.cfg.Current().PollPeriod()
	timeRemain := s.trunk.EstimatedTimeToReset()

	callsRemain := s.trunk.RateRemaining()
	if pollPeriod > 0 {
		callsRemain -= int(timeRemain / pollPeriod)
	}
	callsRemain -= requestorCount
	log.Printf("soundHorn: %d calls left after polling in %s", callsRemain, utils.TimeToText(timeRemain))

	if callsRemain < lowBudgetThreshold {
		return maxMentionsPerToot, 2 * pollPeriod
	}

	perToot = minMentionsPerToot
	tootsNeeded := ceilDiv(audience, perToot)
	for tootsNeeded > callsRemain && perToot < maxMentionsPerToot {
		perToot++
		tootsNeeded = ceilDiv(audience, perToot)
	}
	if tootsNeeded > callsRemain && tootsNeeded > 0 {
		waitBetween = timeRemain/time.Duration(tootsNeeded) + time.Second
	}
	return perToot, waitBetween
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
