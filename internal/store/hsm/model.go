package hsm

import "time"

type HornState struct {
	Version        string         `json:"version"`
	LastNoteId     string         `json:"last_note_id"`
	LastHornTime   int64          `json:"last_horn_time"`
	ApiResetPeriod int            `json:"api_reset_period"`
	Deliveries     []DeliveryInfo `json:"deliveries,omitempty"`
}

type DeliveryInfo struct {
	DeliveryId string    `json:"deliveryId"`
	Requestors []string  `json:"requestors"`
	Followers  int       `json:"followers"`
	SoundedAt  time.Time `json:"soundedAt"`
}

const (
	stateVersion = "0.1.0"

	// default Mastodon rate limit window before any observation
	defaultApiResetPeriod = 300

	// most recent horn deliveries kept for the admin API
	maxDeliveries = 20
)
