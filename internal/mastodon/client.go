package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"jitsibot/internal/utils"
)

const (
	// application name used in idempotency keys
	applicationName = "Proboscis"

	requestTimeout = 60 * time.Second

	// warn when the remaining call budget drops under this
	lowRateWatermark = 150
)

var linkRelPattern = regexp.MustCompile(`<(.*?)>;\s*rel="([^"]*)"`)

// NewClient builds an instance-specific, account-specific Mastodon
// client. resetPeriod seeds the rate observer with the reset period
// observed by a previous run, zero for none.
func NewClient(instance, token string, resetPeriod time.Duration) *Client {
	return &Client{
		instance:   strings.TrimRight(instance, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
		limits:     NewRateObserver(resetPeriod),
	}
}

type Client struct {
	instance   string
	token      string
	httpClient *http.Client
	limits     *RateObserver

	mu        sync.Mutex
	accountId string
}

func (c *Client) RateRemaining() int { return c.limits.RateRemaining() }

func (c *Client) ObservedResetPeriod() time.Duration { return c.limits.ObservedResetPeriod() }

func (c *Client) EstimatedTimeToReset() time.Duration { return c.limits.EstimatedTimeToReset() }

func (c *Client) EstimatedRateReset() time.Time { return c.limits.EstimatedRateReset() }

// GetAccountId returns the account id behind the configured token,
// resolved once via verify_credentials and cached.
func (c *Client) GetAccountId(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accountId != "" {
		return c.accountId, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/accounts/verify_credentials", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp, "getAccountId", "verify_credentials"); err != nil {
		return "", err
	}

	var creds accountCredentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return "", fmt.Errorf("getAccountId: parse verify_credentials response: %w", err)
	}
	if creds.Id == "" {
		return "", fmt.Errorf("getAccountId: no account id in verify_credentials response")
	}
	c.accountId = creds.Id
	return c.accountId, nil
}

// GetNotifications returns the account's notifications newer than
// sinceId, oldest last as the API delivers them. limit 0 leaves the
// server default (20).
func (c *Client) GetNotifications(ctx context.Context, sinceId string, limit int) ([]Notification, error) {
	params := url.Values{}
	if sinceId != "" {
		params.Set("since_id", sinceId)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	target := "/api/v1/notifications"
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp, "getNotifications", ""); err != nil {
		return nil, err
	}

	var notes []Notification
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		return nil, fmt.Errorf("getNotifications: parse notifications response: %w", err)
	}
	if len(notes) > 0 {
		log.Printf("getNotifications: got %d notifications", len(notes))
	} else {
		utils.Debugf("getNotifications: got 0 notifications")
	}
	return notes, nil
}

// PostStatus toots out a new post. A non-empty inReplyTo makes the
// toot a reply to that status id.
func (c *Client) PostStatus(ctx context.Context, content string, inReplyTo string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("postStatus: content is empty")
	}

	form := url.Values{}
	form.Set("status", content)
	form.Set("visibility", "public")
	if inReplyTo != "" {
		form.Set("in_reply_to_id", inReplyTo)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/statuses", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", buildIdempotencyKey(inReplyTo, content))

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkResponse(resp, "postStatus", "")
}

// GetAllFollowers returns the acct names of every follower of the
// account, walking the Link header pagination to the end.
func (c *Client) GetAllFollowers(ctx context.Context, accountId string) ([]string, error) {
	if accountId == "" {
		return nil, fmt.Errorf("getAllFollowers: no account id provided")
	}

	var accts []string
	next := c.instance + "/api/v1/accounts/" + accountId + "/followers"

	for next != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.do(req)
		if err != nil {
			return nil, err
		}

		if err := c.checkResponse(resp, "getAllFollowers", "followers"); err != nil {
			resp.Body.Close()
			return nil, err
		}

		var page []Account
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("getAllFollowers: parse followers response: %w", err)
		}
		for _, follower := range page {
			if follower.Acct != "" {
				accts = append(accts, follower.Acct)
			}
		}

		next = nextPageLink(resp.Header.Get("Link"))
		resp.Body.Close()
	}

	return accts, nil
}

// GetStatus looks up a single status by id.
func (c *Client) GetStatus(ctx context.Context, statusId string) (*Status, error) {
	if statusId == "" {
		return nil, fmt.Errorf("getStatus: no status id provided")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/statuses/"+statusId, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp, "getStatus", ""); err != nil {
		return nil, err
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("getStatus: parse status response: %w", err)
	}
	return &status, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body *strings.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.instance+target, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.instance+target, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	return resp, nil
}

// checkResponse feeds the rate limit headers of a response into the
// observer and turns a non-2xx status into an APIError. The body is
// not inspected.
func (c *Client) checkResponse(resp *http.Response, caller, action string) error {
	limit := resp.Header.Get("X-RateLimit-Limit")
	if sremain := resp.Header.Get("X-RateLimit-Remaining"); sremain != "" {
		remain, err := strconv.Atoi(sremain)
		if err == nil {
			c.limits.Observe(remain, parseResetHeader(resp.Header.Get("X-RateLimit-Reset")))
			if remain < lowRateWatermark {
				log.Printf("%s: rate limit is %s; remaining %d; reset at %s (est actual in %s)",
					caller, limit, remain, resp.Header.Get("X-RateLimit-Reset"),
					utils.TimeToText(c.limits.EstimatedTimeToReset()))
			} else {
				utils.Debugf("%s: rate limit is %s; remaining %d; est reset in %s",
					caller, limit, remain, utils.TimeToText(c.limits.EstimatedTimeToReset()))
			}
		} else {
			log.Printf("%s: unreadable X-RateLimit-Remaining %q", caller, sremain)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Caller: caller, Action: action, Code: resp.StatusCode}
	}
	return nil
}

func parseResetHeader(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		log.Printf("checkResponse: error reading reset time %q: %v", value, err)
		return time.Time{}
	}
	return t
}

// nextPageLink extracts the rel="next" target from a Link header,
// empty when there is no next page.
func nextPageLink(header string) string {
	for _, m := range linkRelPattern.FindAllStringSubmatch(header, -1) {
		if m[2] == "next" {
			return m[1]
		}
	}
	return ""
}

// buildIdempotencyKey derives a stable key from the purpose of the
// post and its alphanumeric content, so a retried toot is not
// published twice.
func buildIdempotencyKey(inReplyTo, content string) string {
	var b strings.Builder
	if inReplyTo != "" {
		b.WriteString(applicationName + ".Reply." + inReplyTo + ".")
	} else {
		b.WriteString(applicationName + ".Toot.")
	}
	for _, r := range content {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
