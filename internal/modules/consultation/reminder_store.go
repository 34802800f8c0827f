// README: Reminder dedup store backed by Redis keys with TTL.
package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"medreview/internal/types"
)

const (
	reminderKeyPrefix = "consultation:%s:reminder:%d"
	// TTL for dedup keys (a reminder window is resolved well within 2 days).
	reminderKeyTTL = 48 * time.Hour
)

// ReminderStore claims reminder dispatch slots so overlapping ticker runs
// (or multiple API instances) never emit the same reminder twice.
type ReminderStore struct {
	redis *redis.Client
}

func NewReminderStore(redis *redis.Client) *ReminderStore {
	return &ReminderStore{redis: redis}
}

// Acquire returns true when this caller is the first to claim the
// (consultation, window) pair.
func (s *ReminderStore) Acquire(ctx context.Context, id types.ID, window ReminderWindow) (bool, error) {
	return s.redis.SetNX(ctx, reminderKey(id, window), "1", reminderKeyTTL).Result()
}

// Release frees the claim so a failed dispatch can be retried on a later tick.
func (s *ReminderStore) Release(ctx context.Context, id types.ID, window ReminderWindow) error {
	return s.redis.Del(ctx, reminderKey(id, window)).Err()
}

func reminderKey(id types.ID, window ReminderWindow) string {
	return fmt.Sprintf(reminderKeyPrefix, string(id), int(window))
}
