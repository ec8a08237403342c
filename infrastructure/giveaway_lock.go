package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"guildbot/application"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrAlreadyLocked is returned when another process is working on the same giveaway
var ErrAlreadyLocked = application.ErrGiveawayLocked

// Deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisGiveawayLock serializes giveaway operations across bot replicas
type RedisGiveawayLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGiveawayLock creates a lock whose keys expire after ttl
func NewRedisGiveawayLock(client *redis.Client, ttl time.Duration) *RedisGiveawayLock {
	return &RedisGiveawayLock{
		client: client,
		ttl:    ttl,
	}
}

func giveawayLockKey(giveawayID int64) string {
	return fmt.Sprintf("giveaway:lock:%d", giveawayID)
}

// Acquire takes the lock for a giveaway. The returned func releases it.
func (l *RedisGiveawayLock) Acquire(ctx context.Context, giveawayID int64) (func(), error) {
	key := giveawayLockKey(giveawayID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyLocked
	}

	return func() {
		// The caller's context may already be cancelled by now
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			log.WithFields(log.Fields{
				"giveaway_id": giveawayID,
				"error":       err,
			}).Error("Failed to release giveaway lock")
		}
	}, nil
}

// LocalGiveawayLock is the single-process lock used when Redis is not configured
type LocalGiveawayLock struct {
	mu     sync.Mutex
	locked map[int64]struct{}
}

// NewLocalGiveawayLock creates an in-process giveaway lock
func NewLocalGiveawayLock() *LocalGiveawayLock {
	return &LocalGiveawayLock{
		locked: make(map[int64]struct{}),
	}
}

// Acquire takes the lock for a giveaway. The returned func releases it.
func (l *LocalGiveawayLock) Acquire(ctx context.Context, giveawayID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locked[giveawayID]; held {
		return nil, ErrAlreadyLocked
	}
	l.locked[giveawayID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.locked, giveawayID)
			l.mu.Unlock()
		})
	}, nil
}
