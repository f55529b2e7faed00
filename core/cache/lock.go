package cache

import (
	"context"
	"errors"
	"time"
)

// ErrLockTimeout is returned when a lock could not be taken before the context expired.
var ErrLockTimeout = errors.New("lock wait timeout")

type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// WithLock polls until the lock is acquired or ctx is done, runs fn, then releases.
func WithLock(ctx context.Context, l Locker, key string, ttl, poll time.Duration, fn func() error) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var token string
	for {
		t, ok, err := l.AcquireLock(ctx, key, ttl)
		if err != nil {
			if ctx.Err() != nil {
				return ErrLockTimeout
			}
			return err
		}
		if ok {
			token = t
			break
		}
		select {
		case <-ctx.Done():
			return ErrLockTimeout
		case <-ticker.C:
		}
	}

	defer func() {
		// release on a fresh context so a cancelled request still frees the key
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.ReleaseLock(releaseCtx, key, token)
	}()

	return fn()
}
