package service

import (
	"context"
	"fmt"

	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/modules/availability/dto"
	"go-booking-api/modules/availability/entity"
	"go-booking-api/modules/availability/repository"

	"github.com/google/uuid"
)

const maxBlocksPerSave = 500

type AvailabilityServiceInterface interface {
	SaveBlocks(ctx context.Context, hostID uuid.UUID, req *dto.SaveBlocksRequest) ([]dto.BlockResponse, *errors.AppError)
	GetBlocks(ctx context.Context, hostID uuid.UUID) ([]dto.BlockResponse, *errors.AppError)
	BlocksInWindow(ctx context.Context, hostID uuid.UUID, window entity.TimeSlot) ([]entity.TimeSlot, *errors.AppError)
}

type AvailabilityService struct {
	repo repository.AvailabilityRepositoryInterface
}

func NewAvailabilityService(repo repository.AvailabilityRepositoryInterface) *AvailabilityService {
	return &AvailabilityService{repo: repo}
}

// SaveBlocks validates and fully replaces the host's availability set.
func (s *AvailabilityService) SaveBlocks(ctx context.Context, hostID uuid.UUID, req *dto.SaveBlocksRequest) ([]dto.BlockResponse, *errors.AppError) {
	if req == nil {
		return nil, errors.NewAppError(errors.ErrInvalidRequestData, "request body is required", nil)
	}
	if len(req.Blocks) > maxBlocksPerSave {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("at most %d blocks can be saved at once", maxBlocksPerSave), nil)
	}

	blocks := make([]entity.AvailabilityBlock, 0, len(req.Blocks))
	for i, b := range req.Blocks {
		if b.Start.IsZero() || b.End.IsZero() || !b.End.After(b.Start) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("block %d: end must be after start", i), nil)
		}
		blocks = append(blocks, entity.AvailabilityBlock{
			ID:     uuid.New(),
			HostID: hostID,
			Start:  b.Start.UTC(),
			End:    b.End.UTC(),
		})
	}

	if err := s.repo.ReplaceBlocks(ctx, hostID, blocks); err != nil {
		logger.Error("AvailabilityService:SaveBlocks:ReplaceBlocks:Error", "error", err, "host_id", hostID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save availability", err)
	}

	logger.Info("AvailabilityService:SaveBlocks:Success", "host_id", hostID, "count", len(blocks))
	return toBlockResponses(blocks), nil
}

func (s *AvailabilityService) GetBlocks(ctx context.Context, hostID uuid.UUID) ([]dto.BlockResponse, *errors.AppError) {
	blocks, err := s.repo.ListBlocks(ctx, hostID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load availability", err)
	}
	return toBlockResponses(blocks), nil
}

// BlocksInWindow returns the host's blocks overlapping window as intervals.
func (s *AvailabilityService) BlocksInWindow(ctx context.Context, hostID uuid.UUID, window entity.TimeSlot) ([]entity.TimeSlot, *errors.AppError) {
	blocks, err := s.repo.ListBlocksInRange(ctx, hostID, window.Start, window.End)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load availability", err)
	}
	return entity.BlockSlots(blocks), nil
}

func toBlockResponses(blocks []entity.AvailabilityBlock) []dto.BlockResponse {
	out := make([]dto.BlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, dto.BlockResponse{ID: b.ID.String(), Start: b.Start, End: b.End})
	}
	return out
}
