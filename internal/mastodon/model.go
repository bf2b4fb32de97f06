package mastodon

import "fmt"

// Notification as returned by /api/v1/notifications. Only the fields
// the bot acts on are decoded.
type Notification struct {
	Id      string   `json:"id"`
	Type    string   `json:"type"` // mention, follow, favourite, reblog, poll, follow_request
	Account *Account `json:"account"`
	Status  *Status  `json:"status"`
}

type Account struct {
	Id       string `json:"id"`
	Username string `json:"username"` // local name
	Acct     string `json:"acct"`     // fully qualified user name
}

type Status struct {
	Id      string `json:"id"`
	Content string `json:"content"`
}

type accountCredentials struct {
	Id string `json:"id"`
}

// streamEvent is one message on the streaming websocket; payload is a
// JSON document encoded as a string.
type streamEvent struct {
	Event   string `json:"event"`
	Payload string `json:"payload"`
}

// APIError reports a non-2xx response from the instance.
type APIError struct {
	Caller string
	Action string
	Code   int
}

func (e *APIError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: HTTP status from %s = %d", e.Caller, e.Action, e.Code)
	}
	return fmt.Sprintf("%s: HTTP status = %d", e.Caller, e.Code)
}

// ConnectionError wraps transport failures so callers can tell them
// apart from API rejections and back off instead of giving up.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
