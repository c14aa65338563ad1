package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockHeld reports that another instance currently owns the lock.
var ErrLockHeld = errors.New("lock already held")

// Locker is a single-attempt distributed lock. The expiry sweeps it guards
// are idempotent, so a holder crash only costs one skipped pass until the
// TTL releases the key.
type Locker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *Locker {
	return &Locker{cli: c.cli}
}

// TryLock claims the key and returns the ownership token, or ErrLockHeld
// when someone else has it. There is no retry; callers skip their pass.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// luaUnlock deletes the key only for the token holder, so a slow sweep
// whose lock already expired cannot release its successor's lock.
var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
