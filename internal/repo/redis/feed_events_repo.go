package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

const reportsChannel = "reports:changed"

// FeedEventsRepo carries change notifications for the reports collection.
// Subscribers re-query their snapshot on every event; the payload carries
// no data of its own.
type FeedEventsRepo struct {
	client *goredis.Client
}

func NewFeedEventsRepo(client *goredis.Client) *FeedEventsRepo {
	return &FeedEventsRepo{client: client}
}

func (r *FeedEventsRepo) PublishChange(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Publish(ctx, reportsChannel, "1").Err(); err != nil {
		return fmt.Errorf("publish feed change: %w", err)
	}
	return nil
}

// Subscribe opens a pub/sub subscription on the reports channel. The caller
// owns the returned subscription and must Close it.
func (r *FeedEventsRepo) Subscribe(ctx context.Context) (*goredis.PubSub, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	sub := r.client.Subscribe(ctx, reportsChannel)
	// force the SUBSCRIBE round trip so connection errors surface here
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe feed changes: %w", err)
	}
	return sub, nil
}
