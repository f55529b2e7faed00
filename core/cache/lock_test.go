package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLocker struct {
	mu       sync.Mutex
	held     map[string]string
	released []string
	n        int
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]string{}}
}

func (m *memLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return "", false, nil
	}
	m.n++
	token := string(rune('a' + m.n))
	m.held[key] = token
	return token, true, nil
}

func (m *memLocker) ReleaseLock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
		m.released = append(m.released, key)
	}
	return nil
}

func TestWithLock_RunsAndReleases(t *testing.T) {
	l := newMemLocker()
	called := false

	err := WithLock(context.Background(), l, "k", time.Second, time.Millisecond, func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"k"}, l.released)
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	l := newMemLocker()
	boom := errors.New("boom")

	err := WithLock(context.Background(), l, "k", time.Second, time.Millisecond, func() error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, l.held)
}

func TestWithLock_TimesOutWhenHeld(t *testing.T) {
	l := newMemLocker()
	l.held["k"] = "other"

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := WithLock(ctx, l, "k", time.Second, 5*time.Millisecond, func() error {
		t.Fatal("fn must not run")
		return nil
	})

	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, "other", l.held["k"])
}

func TestLocalLocker(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	tok, ok, err := l.AcquireLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.AcquireLock(ctx, "k", time.Second)
	assert.False(t, ok, "held lock must not be granted twice")

	require.NoError(t, l.ReleaseLock(ctx, "k", "someone-else"))
	_, ok, _ = l.AcquireLock(ctx, "k", time.Second)
	assert.False(t, ok, "foreign token must not release")

	now = now.Add(2 * time.Second)
	_, ok, _ = l.AcquireLock(ctx, "k", time.Second)
	assert.True(t, ok, "expired lock is granted again")

	require.NoError(t, l.ReleaseLock(ctx, "k", tok))
}

type ctxErrLocker struct{}

func (ctxErrLocker) AcquireLock(ctx context.Context, _ string, _ time.Duration) (string, bool, error) {
	return "", false, ctx.Err()
}

func (ctxErrLocker) ReleaseLock(context.Context, string, string) error { return nil }

func TestWithLock_ExpiredContextIsTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithLock(ctx, ctxErrLocker{}, "k", time.Second, time.Millisecond, func() error { return nil })

	assert.ErrorIs(t, err, ErrLockTimeout)
}
