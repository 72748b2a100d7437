package presence

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const onlineTTL = 90 * time.Second

// Presence keeps the online flag and last-seen timestamp per user in redis.
// Online keys carry a TTL so a crashed connection eventually reads as
// offline; the hub refreshes them on its ping tick.
type Presence struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb}
}

func onlineKey(userID uuid.UUID) string {
	return "presence:online:" + userID.String()
}

func lastSeenKey(userID uuid.UUID) string {
	return "presence:last_seen:" + userID.String()
}

func (p *Presence) SetOnline(ctx context.Context, userID uuid.UUID) {
	p.rdb.Set(ctx, onlineKey(userID), 1, onlineTTL)
}

func (p *Presence) SetOffline(ctx context.Context, userID uuid.UUID) {
	p.rdb.Del(ctx, onlineKey(userID))
	p.rdb.Set(ctx, lastSeenKey(userID), time.Now().Format(time.RFC3339), 0)
}

func (p *Presence) IsOnline(ctx context.Context, userID uuid.UUID) bool {
	n, err := p.rdb.Exists(ctx, onlineKey(userID)).Result()
	return err == nil && n > 0
}

func (p *Presence) LastSeen(ctx context.Context, userID uuid.UUID) (time.Time, bool) {
	raw, err := p.rdb.Get(ctx, lastSeenKey(userID)).Result()
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
