package repository

import (
	"context"
	"time"

	"go-booking-api/core/database"
	"go-booking-api/core/logger"
	"go-booking-api/modules/availability/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AvailabilityRepositoryInterface interface {
	ReplaceBlocks(ctx context.Context, hostID uuid.UUID, blocks []entity.AvailabilityBlock) error
	ListBlocks(ctx context.Context, hostID uuid.UUID) ([]entity.AvailabilityBlock, error)
	ListBlocksInRange(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]entity.AvailabilityBlock, error)
}

type AvailabilityRepository struct {
	DB database.Database
}

func NewAvailabilityRepository(db database.Database) *AvailabilityRepository {
	return &AvailabilityRepository{DB: db}
}

// ReplaceBlocks swaps the host's whole availability set in one transaction.
func (r *AvailabilityRepository) ReplaceBlocks(ctx context.Context, hostID uuid.UUID, blocks []entity.AvailabilityBlock) error {
	return r.DB.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM availability_blocks WHERE host_id = $1`, hostID); err != nil {
			logger.Error("AvailabilityRepository:ReplaceBlocks:Delete:Error", "error", err, "host_id", hostID)
			return err
		}

		query := `
			INSERT INTO availability_blocks (id, host_id, start_time, end_time, created_at)
			VALUES ($1, $2, $3, $4, NOW())
		`
		for _, b := range blocks {
			if _, err := tx.ExecContext(ctx, query, b.ID, hostID, b.Start, b.End); err != nil {
				logger.Error("AvailabilityRepository:ReplaceBlocks:Insert:Error", "error", err, "host_id", hostID)
				return err
			}
		}
		return nil
	})
}

func (r *AvailabilityRepository) ListBlocks(ctx context.Context, hostID uuid.UUID) ([]entity.AvailabilityBlock, error) {
	query := `
		SELECT id, host_id, start_time, end_time, created_at
		FROM availability_blocks
		WHERE host_id = $1
		ORDER BY start_time ASC
	`
	var blocks []entity.AvailabilityBlock
	if err := r.DB.SelectContext(ctx, &blocks, query, hostID); err != nil {
		logger.Error("AvailabilityRepository:ListBlocks:Error", "error", err, "host_id", hostID)
		return nil, err
	}
	return blocks, nil
}

// ListBlocksInRange returns blocks overlapping [from, to).
func (r *AvailabilityRepository) ListBlocksInRange(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]entity.AvailabilityBlock, error) {
	query := `
		SELECT id, host_id, start_time, end_time, created_at
		FROM availability_blocks
		WHERE host_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`
	var blocks []entity.AvailabilityBlock
	if err := r.DB.SelectContext(ctx, &blocks, query, hostID, from, to); err != nil {
		logger.Error("AvailabilityRepository:ListBlocksInRange:Error", "error", err, "host_id", hostID)
		return nil, err
	}
	return blocks, nil
}
