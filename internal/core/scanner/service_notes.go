package scanner

import (
	"context"
	"log"
	"sort"
	"time"

	"jitsibot/internal/utils"
)

// ProcessNotifications runs one poll cycle: fetch everything newer
// than the last seen notification, greet new followers, and sound the
// horn when someone asked for it outside the horn window.
func (s *TootScanner) ProcessNotifications(ctx context.Context) error {
	s.mu.Lock()
	sinceId := s.lastNoteId
	s.mu.Unlock()

	notes, err := s.trunk.GetNotifications(ctx, sinceId, 0)
	if err != nil {
		return err
	}

	// the API delivers newest first; walk oldest to newest
	var newFollowers []string
	requestors := map[string]string{}
	finalId := ""
	for i := len(notes) - 1; i >= 0; i-- {
		note := notes[i]
		log.Printf("processNotifications: notification id=%s type=%s", note.Id, note.Type)
		if note.Id != "" {
			finalId = note.Id
		}
		switch note.Type {
		case "follow":
			if note.Id == "" || note.Account == nil || note.Account.Acct == "" {
				continue
			}
			log.Printf("processNotifications: new follower @%s", note.Account.Acct)
			newFollowers = append(newFollowers, note.Account.Acct)

		case "mention":
			if note.Id == "" || note.Account == nil || note.Status == nil {
				continue
			}
			from := note.Account.Acct
			statusId := note.Status.Id
			content := note.Status.Content
			if from == "" || statusId == "" || content == "" {
				continue
			}
			if hornPattern.MatchString(content) {
				log.Printf("processNotifications: status=%s got a request to sound the horn from %s!", statusId, from)
				requestors[from] = statusId
			}
		}
	}

	if len(newFollowers) == 0 && len(requestors) == 0 {
		if finalId != "" && finalId != sinceId {
			s.storeLastNoteId(finalId)
		}
		return nil
	}

	cfg := s.cfg.Current()
	windowRemaining := s.windowRemaining()
	recentHorn := windowRemaining > 0
	if recentHorn && len(requestors) > 0 {
		since := cfg.HornWindow() - windowRemaining
		log.Printf("processNotifications: I refuse to toot again after only %s (%d sec)",
			utils.TimeToText(since), int(since.Seconds()))
	}

	// greeting depends on whether a horn may be sounding right now
	var followMessage string
	if recentHorn || len(requestors) > 0 {
		followMessage = "Jitsi may be going right now:\n" + cfg.JitsiLink +
			"\nAnd I'll let you know the next time someone tells me to toot the horn!"
	} else {
		followMessage = "I'll let you know when someone tells me to toot the horn!"
	}
	for _, follower := range newFollowers {
		if err := s.trunk.PostStatus(ctx, "Hello @"+follower+", "+followMessage, ""); err != nil {
			log.Printf("processNotifications: failed to greet @%s: %v", follower, err)
		}
	}

	if len(requestors) > 0 {
		if recentHorn {
			s.replyWindowClosed(ctx, requestors, windowRemaining)
		} else {
			switch err := s.beginHorn(); err {
			case nil:
				hornErr := s.soundHorn(ctx, utils.NewUlid(), requestors, newFollowers)
				s.endHorn()
				if hornErr != nil {
					return hornErr
				}
			case ErrHornBusy:
				s.replyHornBusy(ctx, requestors)
			default:
				s.replyWindowClosed(ctx, requestors, s.windowRemaining())
			}
		}
	}

	if len(notes) > 0 && finalId != "" {
		s.storeLastNoteId(finalId)
	}
	return nil
}

// replyWindowClosed tells each requestor how long until the horn may
// sound again.
func (s *TootScanner) replyWindowClosed(ctx context.Context, requestors map[string]string, remaining time.Duration) {
	since := s.cfg.Current().HornWindow() - remaining
	for _, name := range sortedKeys(requestors) {
		reply := "@" + name + " The horn sounded " + utils.TimeToText(since) +
			" ago; I can toot again in " + utils.TimeToText(remaining) + "."
		if err := s.trunk.PostStatus(ctx, reply, requestors[name]); err != nil {
			log.Printf("replyWindowClosed: failed to reply to %s: %v", name, err)
		}
	}
}

// replyHornBusy answers requestors who asked while a delivery was
// already underway.
func (s *TootScanner) replyHornBusy(ctx context.Context, requestors map[string]string) {
	for _, name := range sortedKeys(requestors) {
		reply := "@" + name + " The horn is sounding right now!\n" + s.cfg.Current().JitsiLink
		if err := s.trunk.PostStatus(ctx, reply, requestors[name]); err != nil {
			log.Printf("replyHornBusy: failed to reply to %s: %v", name, err)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
