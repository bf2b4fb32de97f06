package mastodon

import (
	"context"
	"time"
)

type MastodonHandler interface {
	GetAccountId(ctx context.Context) (string, error)
	GetNotifications(ctx context.Context, sinceId string, limit int) ([]Notification, error)
	PostStatus(ctx context.Context, content string, inReplyTo string) error
	GetAllFollowers(ctx context.Context, accountId string) ([]string, error)
	GetStatus(ctx context.Context, statusId string) (*Status, error)
	RateHandler
}

type RateHandler interface {
	RateRemaining() int
	ObservedResetPeriod() time.Duration
	EstimatedTimeToReset() time.Duration
	EstimatedRateReset() time.Time
}
