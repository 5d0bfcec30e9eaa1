package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DeliveryLock serializes concurrent deliveries of the same gateway
// transaction across service instances. A nil client disables locking.
type DeliveryLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeliveryLock creates a lock backed by client. Keys expire after ttl so
// a crashed holder cannot block redeliveries forever.
func NewDeliveryLock(client *redis.Client, ttl time.Duration) *DeliveryLock {
	return &DeliveryLock{client: client, ttl: ttl}
}

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func deliveryKey(provider, transactionID string) string {
	return fmt.Sprintf("shopfox:delivery:%s:%s", provider, transactionID)
}

// Acquire tries to take the lock for (provider, transactionID). It returns
// false when another delivery currently holds it. The returned token must be
// passed to Release.
func (l *DeliveryLock) Acquire(ctx context.Context, provider, transactionID string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, deliveryKey(provider, transactionID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire delivery lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the lock for (provider, transactionID) if it is still held
// under token. A lock that expired and was taken by another delivery is left
// alone.
func (l *DeliveryLock) Release(ctx context.Context, provider, transactionID, token string) error {
	if l == nil || l.client == nil || token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{deliveryKey(provider, transactionID)}, token).Err(); err != nil {
		return fmt.Errorf("release delivery lock: %w", err)
	}
	return nil
}
