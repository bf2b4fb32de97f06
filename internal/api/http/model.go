package http

// == status ==
type StatusResponse struct {
	AccountId       string `json:"account_id,omitempty"`
	LastNoteId      string `json:"last_note_id,omitempty"`
	LastHornTime    string `json:"last_horn_time,omitempty"`
	HornWindowSec   int    `json:"horn_window_sec"`
	WindowRemaining string `json:"window_remaining,omitempty"`
	HornInFlight    bool   `json:"horn_in_flight"`
	Uptime          string `json:"uptime"`
}

// == ratelimit ==
type RateLimitResponse struct {
	Remaining        int    `json:"remaining"`
	ResetPeriodSec   int    `json:"reset_period_sec"`
	TimeToReset      string `json:"time_to_reset"`
	EstimatedResetAt string `json:"estimated_reset_at"`
}

// == deliveries ==
type DeliveryResponse struct {
	DeliveryId string   `json:"delivery_id"`
	Requestors []string `json:"requestors,omitempty"`
	Followers  int      `json:"followers"`
	SoundedAt  string   `json:"sounded_at"`
}

// == horn ==
type SoundHornResponse struct {
	DeliveryId string `json:"delivery_id"`
}

type ApiResponse struct {
	Status  string `json:"status"` // success | fail
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
