package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"go-booking-api/core/constants"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/core/utils"
	"go-booking-api/modules/calendar/dto"
	"go-booking-api/modules/calendar/entity"
	"go-booking-api/modules/calendar/repository"

	"github.com/google/uuid"
)

// ConnectionGate decides whether a host may link another calendar.
type ConnectionGate interface {
	CanConnectCalendar(ctx context.Context, hostID uuid.UUID, connected int) (bool, *errors.AppError)
}

type CalendarServiceInterface interface {
	ListConnections(ctx context.Context, hostID uuid.UUID) (*dto.ConnectionListResponse, *errors.AppError)
	SaveConnection(ctx context.Context, hostID uuid.UUID, req *dto.SaveConnectionRequest) (*dto.ConnectionResponse, *errors.AppError)
	SetDefault(ctx context.Context, hostID uuid.UUID, key string) *errors.AppError
	Disconnect(ctx context.Context, hostID uuid.UUID, key string) (*dto.DisconnectResponse, *errors.AppError)
	GetBusy(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]dto.BusyResponse, *errors.AppError)

	Accounts(ctx context.Context, hostID uuid.UUID) ([]entity.ConnectedAccount, *errors.AppError)
	DefaultAccount(ctx context.Context, hostID uuid.UUID) (*entity.ConnectedAccount, *errors.AppError)
	AccountByKey(ctx context.Context, hostID uuid.UUID, key string) (*entity.ConnectedAccount, *errors.AppError)
}

type CalendarService struct {
	repo    repository.AccountRepositoryInterface
	gate    ConnectionGate
	revoker TokenRevoker
	busy    *BusyTimeProvider
	now     func() time.Time
}

func NewCalendarService(repo repository.AccountRepositoryInterface, gate ConnectionGate, revoker TokenRevoker, busy *BusyTimeProvider) *CalendarService {
	return &CalendarService{
		repo:    repo,
		gate:    gate,
		revoker: revoker,
		busy:    busy,
		now:     time.Now,
	}
}

func toConnectionResponse(acc entity.ConnectedAccount) dto.ConnectionResponse {
	return dto.ConnectionResponse{
		Key:         acc.Key,
		Email:       acc.Email,
		IsDefault:   acc.IsDefault,
		ConnectedAt: acc.ConnectedAt,
	}
}

func (s *CalendarService) Accounts(ctx context.Context, hostID uuid.UUID) ([]entity.ConnectedAccount, *errors.AppError) {
	accounts, err := s.repo.ListAccounts(ctx, hostID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar accounts", err)
	}
	return accounts, nil
}

// DefaultAccount returns nil without error when the host has no account.
func (s *CalendarService) DefaultAccount(ctx context.Context, hostID uuid.UUID) (*entity.ConnectedAccount, *errors.AppError) {
	acc, err := s.repo.GetDefaultAccount(ctx, hostID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load default calendar account", err)
	}
	return acc, nil
}

// AccountByKey returns nil without error when key is not one of the host's
// accounts, e.g. after a disconnect.
func (s *CalendarService) AccountByKey(ctx context.Context, hostID uuid.UUID, key string) (*entity.ConnectedAccount, *errors.AppError) {
	acc, err := s.repo.GetAccount(ctx, key)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar account", err)
	}
	if acc == nil || acc.HostID != hostID {
		return nil, nil
	}
	return acc, nil
}

func (s *CalendarService) ListConnections(ctx context.Context, hostID uuid.UUID) (*dto.ConnectionListResponse, *errors.AppError) {
	accounts, appErr := s.Accounts(ctx, hostID)
	if appErr != nil {
		return nil, appErr
	}
	resp := &dto.ConnectionListResponse{Connections: make([]dto.ConnectionResponse, 0, len(accounts))}
	for _, acc := range accounts {
		resp.Connections = append(resp.Connections, toConnectionResponse(acc))
	}
	return resp, nil
}

// SaveConnection stores a freshly consented account. Reconnecting an account
// that is already linked updates its tokens without counting against the plan.
func (s *CalendarService) SaveConnection(ctx context.Context, hostID uuid.UUID, req *dto.SaveConnectionRequest) (*dto.ConnectionResponse, *errors.AppError) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "email is required", nil)
	}
	if req.AccessToken == "" && req.RefreshToken == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "access_token or refresh_token is required", nil)
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		accountID = email
	}

	existing, appErr := s.Accounts(ctx, hostID)
	if appErr != nil {
		return nil, appErr
	}
	relink := false
	for _, acc := range existing {
		if acc.AccountID == accountID {
			relink = true
			break
		}
	}
	if !relink && s.gate != nil {
		ok, appErr := s.gate.CanConnectCalendar(ctx, hostID, len(existing))
		if appErr != nil {
			return nil, appErr
		}
		if !ok {
			return nil, errors.NewAppError(errors.ErrQuotaExceeded, "plan does not allow more connected calendars", nil)
		}
	}

	acc := &entity.ConnectedAccount{
		Key:          utils.GenerateAccountKey(),
		HostID:       hostID,
		AccountID:    accountID,
		Email:        email,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}
	if req.ExpiresIn > 0 {
		acc.ExpiresAt = s.now().Add(time.Duration(req.ExpiresIn) * time.Second)
	}
	if err := s.repo.UpsertAccount(ctx, acc); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save calendar account", err)
	}

	logger.Info("CalendarService:SaveConnection", "host_id", hostID, "key", acc.Key, "default", acc.IsDefault, "relink", relink)
	resp := toConnectionResponse(*acc)
	return &resp, nil
}

func (s *CalendarService) SetDefault(ctx context.Context, hostID uuid.UUID, key string) *errors.AppError {
	ok, err := s.repo.SetDefault(ctx, hostID, key)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to set default calendar", err)
	}
	if !ok {
		return errors.NewAppError(errors.ErrNotFound, "calendar account not found", nil)
	}
	return nil
}

// Disconnect revokes the account's grant at the provider (best effort), then
// removes it. When the default goes away the oldest remaining account takes over.
func (s *CalendarService) Disconnect(ctx context.Context, hostID uuid.UUID, key string) (*dto.DisconnectResponse, *errors.AppError) {
	acc, err := s.repo.GetAccount(ctx, key)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar account", err)
	}
	if acc == nil || acc.HostID != hostID {
		return nil, errors.NewAppError(errors.ErrNotFound, "calendar account not found", nil)
	}

	s.revoke(ctx, acc)

	promoted, err := s.repo.DeleteAccount(ctx, hostID, key)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewAppError(errors.ErrNotFound, "calendar account not found", nil)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to remove calendar account", err)
	}

	logger.Info("CalendarService:Disconnect", "host_id", hostID, "key", key, "promoted", promoted)
	return &dto.DisconnectResponse{Removed: key, PromotedDefault: promoted}, nil
}

func (s *CalendarService) revoke(ctx context.Context, acc *entity.ConnectedAccount) {
	if s.revoker == nil {
		return
	}
	token := acc.RefreshToken
	if token == "" {
		token = acc.AccessToken
	}
	if token == "" {
		return
	}
	revokeCtx, cancel := context.WithTimeout(ctx, constants.ProviderCallTimeout)
	defer cancel()
	if err := s.revoker.Revoke(revokeCtx, token); err != nil {
		logger.Warn("CalendarService:Disconnect:Revoke:Error", "error", err, "key", acc.Key)
	}
}

// GetBusy merges busy time across every connected calendar of the host.
func (s *CalendarService) GetBusy(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]dto.BusyResponse, *errors.AppError) {
	if !from.Before(to) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "from must be before to", nil)
	}
	if to.Sub(from) > constants.MaxAvailableDatesWindow {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "range too large", nil)
	}
	accounts, appErr := s.Accounts(ctx, hostID)
	if appErr != nil {
		return nil, appErr
	}

	busy := s.busy.FetchBusy(ctx, accounts, from, to)
	out := make([]dto.BusyResponse, 0, len(busy))
	for _, b := range busy {
		out = append(out, dto.BusyResponse{Start: b.Start, End: b.End, Source: b.SourceAccountEmail, Title: b.Title})
	}
	return out, nil
}
