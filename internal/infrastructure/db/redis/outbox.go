package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipcoins/clipcoins-api/internal/core/domain"
)

const (
	// DefaultOutboxKey is the list the Telegram bot pops deliveries from.
	DefaultOutboxKey = "telegram:outbox"

	dedupTTL = time.Hour
)

// Outbox hands credential deliveries to the Telegram bot through a Redis
// list. Each issuance is pushed at most once.
// Dedup key format: delivery:<telegram_id>:<issued_at_unix_nano>
type Outbox struct {
	client *redis.Client
	key    string
}

// NewOutbox wraps client. An empty key selects DefaultOutboxKey.
func NewOutbox(client *redis.Client, key string) *Outbox {
	if key == "" {
		key = DefaultOutboxKey
	}
	return &Outbox{client: client, key: key}
}

// Deliver pushes d to the outbox list. domain.ErrDuplicateDelivery means the
// issuance was already queued and nothing was written.
func (o *Outbox) Deliver(ctx context.Context, d domain.CredentialDelivery) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}

	fresh, err := o.client.SetNX(ctx, o.dedupKey(d), "1", dedupTTL).Result()
	if err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	if !fresh {
		return domain.ErrDuplicateDelivery
	}

	if err := o.client.RPush(ctx, o.key, payload).Err(); err != nil {
		// let a retry through
		_ = o.client.Del(ctx, o.dedupKey(d)).Err()
		return fmt.Errorf("outbox push: %w", err)
	}
	return nil
}

// Ping reports whether the outbox backend is reachable.
func (o *Outbox) Ping(ctx context.Context) error {
	return o.client.Ping(ctx).Err()
}

func (o *Outbox) dedupKey(d domain.CredentialDelivery) string {
	return fmt.Sprintf("delivery:%d:%d", d.ExternalID, d.IssuedAt.UnixNano())
}
