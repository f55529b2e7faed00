package service

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"go-booking-api/modules/calendar/entity"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]entity.ConnectedAccount
	writes   int
	writeErr error
}

func newMemAccounts(accs ...entity.ConnectedAccount) *memAccounts {
	m := &memAccounts{accounts: map[string]entity.ConnectedAccount{}}
	for _, a := range accs {
		m.accounts[a.Key] = a
	}
	return m
}

func (m *memAccounts) GetAccount(_ context.Context, key string) (*entity.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[key]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAccounts) UpdateTokens(_ context.Context, key, access, refresh string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	a := m.accounts[key]
	a.AccessToken = access
	if refresh != "" {
		a.RefreshToken = refresh
	}
	a.ExpiresAt = expiresAt
	m.accounts[key] = a
	m.writes++
	return nil
}

func (m *memAccounts) ListAccounts(_ context.Context, hostID uuid.UUID) ([]entity.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.ConnectedAccount
	for _, a := range m.accounts {
		if a.HostID == hostID {
			out = append(out, a)
		}
	}
	sortByConnectedAt(out)
	return out, nil
}

func (m *memAccounts) GetDefaultAccount(ctx context.Context, hostID uuid.UUID) (*entity.ConnectedAccount, error) {
	accs, _ := m.ListAccounts(ctx, hostID)
	for _, a := range accs {
		if a.IsDefault {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) UpsertAccount(_ context.Context, acc *entity.ConnectedAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hasDefault := false
	for k, a := range m.accounts {
		if a.HostID != acc.HostID {
			continue
		}
		if a.AccountID == acc.AccountID {
			a.AccessToken, a.ExpiresAt = acc.AccessToken, acc.ExpiresAt
			m.accounts[k] = a
			acc.Key, acc.IsDefault, acc.ConnectedAt = a.Key, a.IsDefault, a.ConnectedAt
			return nil
		}
		hasDefault = hasDefault || a.IsDefault
	}
	acc.IsDefault = !hasDefault
	acc.ConnectedAt = time.Now().Add(time.Duration(len(m.accounts)) * time.Second)
	m.accounts[acc.Key] = *acc
	return nil
}

func (m *memAccounts) SetDefault(_ context.Context, hostID uuid.UUID, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[key]; !ok || a.HostID != hostID {
		return false, nil
	}
	for k, a := range m.accounts {
		if a.HostID == hostID {
			a.IsDefault = k == key
			m.accounts[k] = a
		}
	}
	return true, nil
}

func (m *memAccounts) DeleteAccount(ctx context.Context, hostID uuid.UUID, key string) (string, error) {
	m.mu.Lock()
	a, ok := m.accounts[key]
	if !ok || a.HostID != hostID {
		m.mu.Unlock()
		return "", sql.ErrNoRows
	}
	delete(m.accounts, key)
	m.mu.Unlock()
	if !a.IsDefault {
		return "", nil
	}
	rest, _ := m.ListAccounts(ctx, hostID)
	if len(rest) == 0 {
		return "", nil
	}
	_, _ = m.SetDefault(ctx, hostID, rest[0].Key)
	return rest[0].Key, nil
}

func sortByConnectedAt(accs []entity.ConnectedAccount) {
	for i := 1; i < len(accs); i++ {
		for j := i; j > 0 && accs[j].ConnectedAt.Before(accs[j-1].ConnectedAt); j-- {
			accs[j], accs[j-1] = accs[j-1], accs[j]
		}
	}
}

type countingRefresher struct {
	calls   atomic.Int32
	delay   time.Duration
	err     error
	expires time.Time
}

func (r *countingRefresher) Refresh(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	r.calls.Add(1)
	time.Sleep(r.delay)
	if r.err != nil {
		return nil, r.err
	}
	return &oauth2.Token{AccessToken: "fresh-for-" + refreshToken, Expiry: r.expires}, nil
}

// stubCalendar is a RemoteCalendar returning canned data.
type stubCalendar struct {
	token  string
	events []entity.BusyInterval
	err    error
	block  bool
}

func (s *stubCalendar) ListEvents(ctx context.Context, _, _ time.Time) ([]entity.BusyInterval, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]entity.BusyInterval, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *stubCalendar) InsertEvent(context.Context, entity.NewEvent) (*entity.RemoteEvent, error) {
	return &entity.RemoteEvent{ID: "evt"}, nil
}

func (s *stubCalendar) GetEvent(context.Context, string) (*entity.RemoteEvent, error) {
	return nil, ErrEventGone
}

func (s *stubCalendar) DeleteEvent(context.Context, string) error { return nil }

func recordingFactory(issued *[]string, mu *sync.Mutex) ClientFactory {
	return func(_ context.Context, tok *oauth2.Token) (RemoteCalendar, error) {
		mu.Lock()
		*issued = append(*issued, tok.AccessToken)
		mu.Unlock()
		return &stubCalendar{token: tok.AccessToken}, nil
	}
}
