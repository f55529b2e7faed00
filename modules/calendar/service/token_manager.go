package service

import (
	"context"
	"time"

	"go-booking-api/core/cache"
	"go-booking-api/core/constants"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/modules/calendar/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
)

// AccountStore is the persistence the token manager reads and writes.
type AccountStore interface {
	GetAccount(ctx context.Context, key string) (*entity.ConnectedAccount, error)
	UpdateTokens(ctx context.Context, key, accessToken, refreshToken string, expiresAt time.Time) error
}

// TokenRefresher exchanges a refresh token for a new access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

type oauthRefresher struct {
	cfg *oauth2.Config
}

// NewGoogleRefresher refreshes against Google's token endpoint.
func NewGoogleRefresher(clientID, clientSecret string) TokenRefresher {
	return &oauthRefresher{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
	}}
}

func (r *oauthRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	// an expired seed token forces the source to hit the endpoint
	seed := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	return r.cfg.TokenSource(ctx, seed).Token()
}

// TokenManager hands out calendar clients with a valid access token. At most
// one refresh per account is in flight inside a process; the optional Locker
// extends that across instances.
type TokenManager struct {
	store     AccountStore
	refresher TokenRefresher
	newClient ClientFactory
	locker    cache.Locker
	group     singleflight.Group
	margin    time.Duration
	now       func() time.Time
}

func NewTokenManager(store AccountStore, refresher TokenRefresher, newClient ClientFactory, locker cache.Locker) *TokenManager {
	return &TokenManager{
		store:     store,
		refresher: refresher,
		newClient: newClient,
		locker:    locker,
		margin:    constants.TokenRefreshMargin,
		now:       time.Now,
	}
}

// Client returns a calendar client for acc, refreshing its token first when it
// is near expiry. Failures carry ErrCredentialExpired when the account must be
// reconnected.
func (m *TokenManager) Client(ctx context.Context, acc *entity.ConnectedAccount) (RemoteCalendar, error) {
	if !acc.HasCredentials() {
		return nil, errors.NewAppError(errors.ErrCredentialExpired, "calendar account has no credentials", nil)
	}

	current := acc
	if acc.NeedsRefresh(m.now(), m.margin) {
		fresh, err := m.refresh(ctx, acc.Key)
		if err != nil {
			return nil, err
		}
		current = fresh
	}

	client, err := m.newClient(ctx, &oauth2.Token{
		AccessToken: current.AccessToken,
		TokenType:   "Bearer",
		Expiry:      current.ExpiresAt,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrProviderTransient, "failed to build calendar client", err)
	}
	return client, nil
}

func (m *TokenManager) refresh(ctx context.Context, key string) (*entity.ConnectedAccount, error) {
	ch := m.group.DoChan(key, func() (any, error) {
		// shared by every waiter; one caller's cancellation must not fail the rest
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RefreshLockTTL)
		defer cancel()

		if m.locker == nil {
			return m.refreshOnce(flightCtx, key)
		}
		var acc *entity.ConnectedAccount
		err := cache.WithLock(flightCtx, m.locker, constants.CachePrefixRefreshLock+key,
			constants.RefreshLockTTL, constants.LockPollInterval,
			func() error {
				var err error
				acc, err = m.refreshOnce(flightCtx, key)
				return err
			})
		if err != nil {
			if _, ok := err.(*errors.AppError); !ok {
				logger.Warn("TokenManager:refresh:Lock:Error", "error", err, "key", key)
				return nil, errors.NewAppError(errors.ErrProviderTransient, "token refresh lock unavailable", err)
			}
			return nil, err
		}
		return acc, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.NewAppError(errors.ErrProviderTransient, "token refresh cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entity.ConnectedAccount), nil
	}
}

// refreshOnce re-reads the account so a refresh completed by another caller or
// instance is reused instead of repeated. The new token is persisted before it
// is handed out.
func (m *TokenManager) refreshOnce(ctx context.Context, key string) (*entity.ConnectedAccount, error) {
	stored, err := m.store.GetAccount(ctx, key)
	if err != nil {
		logger.Error("TokenManager:refresh:Load:Error", "error", err, "key", key)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar account", err)
	}
	if stored == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "calendar account not found", nil)
	}
	if !stored.NeedsRefresh(m.now(), m.margin) {
		return stored, nil
	}
	if stored.RefreshToken == "" {
		return nil, errors.NewAppError(errors.ErrCredentialExpired, "calendar account must be reconnected", nil)
	}

	tok, err := m.refresher.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		logger.Warn("TokenManager:refresh:Rejected", "error", err, "key", key)
		return nil, errors.NewAppError(errors.ErrCredentialExpired, "calendar account must be reconnected", err)
	}

	refreshToken := stored.RefreshToken
	if tok.RefreshToken != "" {
		refreshToken = tok.RefreshToken
	}
	if err := m.store.UpdateTokens(ctx, key, tok.AccessToken, refreshToken, tok.Expiry); err != nil {
		logger.Error("TokenManager:refresh:Persist:Error", "error", err, "key", key)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to persist refreshed token", err)
	}

	updated := *stored
	updated.AccessToken = tok.AccessToken
	updated.RefreshToken = refreshToken
	updated.ExpiresAt = tok.Expiry
	logger.Info("TokenManager:refresh:Success", "key", key, "expires_at", tok.Expiry)
	return &updated, nil
}
