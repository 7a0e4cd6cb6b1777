package dialer

import (
	"context"
	"time"

	"fieldservice-crm/pkg/logger"
	"fieldservice-crm/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisCallSlots caps concurrent outbound calls per workspace using an
// atomic Redis counter. The TTL bounds slot leakage when a terminal
// callback never arrives.
type RedisCallSlots struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisCallSlots(rdb *redis.Client, limit int) *RedisCallSlots {
	return &RedisCallSlots{rdb: rdb, limit: limit, ttl: 15 * time.Minute}
}

func slotKey(workspaceID string) string {
	return "calls:active:" + workspaceID
}

func (s *RedisCallSlots) Acquire(ctx context.Context, workspaceID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, s.rdb, slotKey(workspaceID), s.limit, s.ttl)
}

func (s *RedisCallSlots) Release(ctx context.Context, workspaceID string) {
	if err := utils.ReleaseConcurrencyCap(ctx, s.rdb, slotKey(workspaceID)); err != nil {
		logger.From(ctx).Warn("call slot release failed", "workspace_id", workspaceID, "err", err)
	}
}
