package mastodon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetNotifications(t *testing.T) {
	var gotAuth, gotSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/notifications" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotSince = r.URL.Query().Get("since_id")
		w.Header().Set("X-RateLimit-Limit", "300")
		w.Header().Set("X-RateLimit-Remaining", "123")
		w.Header().Set("X-RateLimit-Reset", "2026-02-01T12:05:00.000Z")
		fmt.Fprint(w, `[
			{"id":"2","type":"mention","account":{"acct":"alice@example.social"},"status":{"id":"s2","content":"<p>toot the horn</p>"}},
			{"id":"1","type":"follow","account":{"acct":"bob"}}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1", 0)
	notes, err := c.GetNotifications(context.Background(), "100", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotSince != "100" {
		t.Fatalf("expected since_id forwarded, got %q", gotSince)
	}
	if len(notes) != 2 || notes[0].Type != "mention" || notes[1].Account.Acct != "bob" {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
	if got := c.RateRemaining(); got != 123 {
		t.Fatalf("expected rate headers observed, remaining %d", got)
	}
	if c.limits.AdvertisedReset().IsZero() {
		t.Fatalf("expected advertised reset recorded")
	}
}

func TestPostStatus(t *testing.T) {
	var gotKey, gotStatus, gotReply, gotVisibility string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/statuses" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotKey = r.Header.Get("Idempotency-Key")
		gotStatus = r.PostFormValue("status")
		gotReply = r.PostFormValue("in_reply_to_id")
		gotVisibility = r.PostFormValue("visibility")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1", 0)
	if err := c.PostStatus(context.Background(), "Job's done! Toot toot!", "s42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotStatus != "Job's done! Toot toot!" || gotReply != "s42" || gotVisibility != "public" {
		t.Fatalf("unexpected form: status=%q reply=%q visibility=%q", gotStatus, gotReply, gotVisibility)
	}
	if gotKey != "Proboscis.Reply.s42.JobsdoneToottoot" {
		t.Fatalf("unexpected idempotency key %q", gotKey)
	}

	if err := c.PostStatus(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestPostStatusAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1", 0)
	err := c.PostStatus(context.Background(), "hello", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 APIError, got %v", err)
	}
	if got := c.RateRemaining(); got != 0 {
		t.Fatalf("expected rate headers observed on failure too, remaining %d", got)
	}
}

func TestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, "token-1", 0)
	_, err := c.GetNotifications(context.Background(), "", 0)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
}

func TestGetAllFollowersPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/accounts/42/followers":
			w.Header().Set("Link", fmt.Sprintf(`<%s/page2>; rel="next", <%s/page1>; rel="prev"`, srv.URL, srv.URL))
			fmt.Fprint(w, `[{"acct":"alice@example.social"},{"acct":"bob"}]`)
		case "/page2":
			fmt.Fprint(w, `[{"acct":"carol"},{"acct":""}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1", 0)
	followers, err := c.GetAllFollowers(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alice@example.social", "bob", "carol"}
	if len(followers) != len(want) {
		t.Fatalf("expected %v, got %v", want, followers)
	}
	for i := range want {
		if followers[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, followers)
		}
	}
}

func TestGetAccountIdCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/verify_credentials" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls++
		fmt.Fprint(w, `{"id":"42"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1", 0)
	for i := 0; i < 3; i++ {
		id, err := c.GetAccountId(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "42" {
			t.Fatalf("expected account id 42, got %q", id)
		}
	}
	if calls != 1 {
		t.Fatalf("expected verify_credentials called once, got %d", calls)
	}
}

func TestBuildIdempotencyKey(t *testing.T) {
	cases := []struct {
		name      string
		inReplyTo string
		content   string
		expect    string
	}{
		{name: "toot", content: "Hello @bob, toot!", expect: "Proboscis.Toot.Hellobobtoot"},
		{name: "reply", inReplyTo: "s1", content: "Job's done!", expect: "Proboscis.Reply.s1.Jobsdone"},
		{name: "unicode kept", content: "héllo 1", expect: "Proboscis.Toot.héllo1"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := buildIdempotencyKey(tc.inReplyTo, tc.content); got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestNextPageLink(t *testing.T) {
	header := `<https://example.social/api/v1/accounts/1/followers?max_id=7>; rel="next", <https://example.social/api/v1/accounts/1/followers?since_id=9>; rel="prev"`
	if got := nextPageLink(header); got != "https://example.social/api/v1/accounts/1/followers?max_id=7" {
		t.Fatalf("unexpected next link %q", got)
	}
	if got := nextPageLink(""); got != "" {
		t.Fatalf("expected empty next link, got %q", got)
	}
}

func TestStreamURL(t *testing.T) {
	l := NewStreamListener("https://example.social", "tok")
	u, err := l.streamURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "wss://example.social/api/v1/streaming?access_token=tok&stream=user" {
		t.Fatalf("unexpected stream url %q", u)
	}
}

func TestEstimatedResetSeededFromStore(t *testing.T) {
	c := NewClient("https://example.social", "tok", 900*time.Second)
	if got := c.ObservedResetPeriod(); got != 900*time.Second {
		t.Fatalf("expected seeded period, got %s", got)
	}
}
