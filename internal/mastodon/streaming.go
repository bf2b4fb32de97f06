package mastodon

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"jitsibot/internal/utils"

	"github.com/gorilla/websocket"
)

const maxStreamReconnectWait = 15 * time.Minute

// NewStreamListener connects to the instance's streaming websocket and
// pushes user notifications onto a channel. Streaming is a latency
// optimization next to the polling loop, which stays the source of
// truth; dropped or missed events are picked up by the next poll.
func NewStreamListener(instance, token string) *StreamListener {
	return &StreamListener{
		instance: instance,
		token:    token,
		notes:    make(chan Notification, 16),
	}
}

type StreamListener struct {
	instance string
	token    string
	notes    chan Notification
}

func (l *StreamListener) Notifications() <-chan Notification {
	return l.notes
}

// Run streams until the context is cancelled, reconnecting with a
// growing wait after failures.
func (l *StreamListener) Run(ctx context.Context) error {
	attempt := 0
	for {
		events, err := l.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if events > 0 {
			attempt = 0
		}
		attempt++

		wait := time.Duration(attempt) * time.Minute
		if wait > maxStreamReconnectWait {
			wait = maxStreamReconnectWait
		}
		log.Printf("streaming: connection lost (%v); reconnecting in %s", err, utils.TimeToText(wait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *StreamListener) stream(ctx context.Context) (int, error) {
	target, err := l.streamURL()
	if err != nil {
		return 0, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return 0, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// unblock the read loop and say goodbye when the context ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"),
				time.Now().Add(1*time.Second),
			)
			_ = conn.Close()
		case <-done:
		}
	}()

	log.Printf("[*] streaming connected to %s", l.instance)

	events := 0
	for {
		var ev streamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return events, err
		}
		events++
		if ev.Event != "notification" {
			continue
		}

		var note Notification
		if err := json.Unmarshal([]byte(ev.Payload), &note); err != nil {
			log.Printf("streaming: unreadable notification payload: %v", err)
			continue
		}

		select {
		case l.notes <- note:
		default:
			// consumer is busy; the poll loop will catch this one
		}
	}
}

func (l *StreamListener) streamURL() (string, error) {
	u, err := url.Parse(l.instance)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = "/api/v1/streaming"
	q := u.Query()
	q.Set("access_token", l.token)
	q.Set("stream", "user")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
