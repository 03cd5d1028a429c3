package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func NewClient(redisAddress, redisUsername, redisPassword string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

// deletes the key only if it still holds our token, so an expired lock
// re-acquired by someone else is never released by us
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ChildLocker is a SET NX PX advisory lock. The TTL bounds how long a crashed
// holder can block others.
type ChildLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChildLocker(client *redis.Client, ttl time.Duration) *ChildLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ChildLocker{client: client, ttl: ttl}
}

func (l *ChildLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func() {
		// the caller's ctx may already be done when the deferred unlock runs
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release redis lock")
		}
	}
	return unlock, true, nil
}
