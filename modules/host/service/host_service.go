package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"go-booking-api/core/config"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/core/utils"
	"go-booking-api/modules/host/dto"
	"go-booking-api/modules/host/entity"
	"go-booking-api/modules/host/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const slugAttempts = 3

type HostServiceInterface interface {
	GetHostBySlug(ctx context.Context, slug string) (*entity.Host, *errors.AppError)
	GetHostByID(ctx context.Context, id uuid.UUID) (*entity.Host, *errors.AppError)
	GetOrCreateBookingLink(ctx context.Context, hostID uuid.UUID) (*dto.BookingLinkResponse, *errors.AppError)
	ListMeetingTypes(ctx context.Context, hostID uuid.UUID) ([]dto.MeetingTypeResponse, *errors.AppError)
	GetMeetingType(ctx context.Context, hostID, id uuid.UUID) (*entity.MeetingType, *errors.AppError)
	CreateMeetingType(ctx context.Context, hostID uuid.UUID, req *dto.CreateMeetingTypeRequest) (*dto.MeetingTypeResponse, *errors.AppError)
}

type HostService struct {
	repo repository.HostRepositoryInterface
}

func NewHostService(repo repository.HostRepositoryInterface) *HostService {
	return &HostService{repo: repo}
}

func (s *HostService) GetHostBySlug(ctx context.Context, hostSlug string) (*entity.Host, *errors.AppError) {
	host, err := s.repo.GetHostBySlug(ctx, hostSlug)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load host", err)
	}
	if host == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "host not found", nil)
	}
	return host, nil
}

func (s *HostService) GetHostByID(ctx context.Context, id uuid.UUID) (*entity.Host, *errors.AppError) {
	host, err := s.repo.GetHostByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load host", err)
	}
	if host == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "host not found", nil)
	}
	return host, nil
}

// GetOrCreateBookingLink returns the host's public link, generating
// "<slug(name)>-<suffix>" the first time.
func (s *HostService) GetOrCreateBookingLink(ctx context.Context, hostID uuid.UUID) (*dto.BookingLinkResponse, *errors.AppError) {
	host, appErr := s.GetHostByID(ctx, hostID)
	if appErr != nil {
		return nil, appErr
	}

	current := ""
	if host.Slug != nil {
		current = *host.Slug
	}

	for attempt := 0; current == "" && attempt < slugAttempts; attempt++ {
		candidate := BookingSlug(host.Name, host.Email)
		assigned, err := s.repo.SetSlugIfEmpty(ctx, hostID, candidate)
		if stderrors.Is(err, repository.ErrSlugTaken) {
			logger.Warn("HostService:GetOrCreateBookingLink:SlugTaken", "host_id", hostID, "slug", candidate)
			continue
		}
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create booking link", err)
		}
		current = assigned
	}
	if current == "" {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create booking link", nil)
	}

	return &dto.BookingLinkResponse{Slug: current, URL: bookingURL(current)}, nil
}

// BookingSlug builds a slug from the host name, falling back to the email local part.
func BookingSlug(name, email string) string {
	base := slug.Make(name)
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = slug.Make(local)
	}
	if base == "" {
		base = "host"
	}
	return base + "-" + utils.GenerateSlugSuffix()
}

func bookingURL(hostSlug string) string {
	cfg, ok := config.GetSafe()
	if !ok {
		return "/book/" + hostSlug
	}
	if cfg.Server.BaseURL != "" {
		return strings.TrimRight(cfg.Server.BaseURL, "/") + "/book/" + hostSlug
	}
	host := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	if cfg.Server.Host != "" && cfg.Server.Host != "0.0.0.0" {
		host = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	return host + "/book/" + hostSlug
}

func (s *HostService) ListMeetingTypes(ctx context.Context, hostID uuid.UUID) ([]dto.MeetingTypeResponse, *errors.AppError) {
	types, err := s.repo.ListMeetingTypes(ctx, hostID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting types", err)
	}
	out := make([]dto.MeetingTypeResponse, 0, len(types))
	for _, mt := range types {
		out = append(out, toMeetingTypeResponse(mt))
	}
	return out, nil
}

func (s *HostService) GetMeetingType(ctx context.Context, hostID, id uuid.UUID) (*entity.MeetingType, *errors.AppError) {
	mt, err := s.repo.GetMeetingType(ctx, hostID, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load meeting type", err)
	}
	if mt == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "meeting type not found", nil)
	}
	return mt, nil
}

func (s *HostService) CreateMeetingType(ctx context.Context, hostID uuid.UUID, req *dto.CreateMeetingTypeRequest) (*dto.MeetingTypeResponse, *errors.AppError) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "name is required", nil)
	}
	if !entity.IsAllowedDuration(req.DurationMinutes) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("duration must be one of %v minutes", entity.AllowedDurations), nil)
	}

	mt := &entity.MeetingType{
		HostID:          hostID,
		Name:            name,
		Slug:            slug.Make(name),
		DurationMinutes: req.DurationMinutes,
		Description:     req.Description,
		IsDefault:       req.IsDefault,
	}
	mt.ID = uuid.New()

	if err := s.repo.CreateMeetingType(ctx, mt); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create meeting type", err)
	}

	logger.Info("HostService:CreateMeetingType:Success", "host_id", hostID, "meeting_type_id", mt.ID)
	resp := toMeetingTypeResponse(*mt)
	return &resp, nil
}

func toMeetingTypeResponse(mt entity.MeetingType) dto.MeetingTypeResponse {
	return dto.MeetingTypeResponse{
		ID:              mt.ID.String(),
		Name:            mt.Name,
		Slug:            mt.Slug,
		DurationMinutes: mt.DurationMinutes,
		Description:     mt.Description,
		IsDefault:       mt.IsDefault,
	}
}
