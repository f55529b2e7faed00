package repository

import (
	"context"
	"database/sql"
	"errors"

	"go-booking-api/core/database"
	"go-booking-api/core/logger"
	"go-booking-api/modules/host/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrSlugTaken is returned when a booking link slug already belongs to another host.
var ErrSlugTaken = errors.New("slug already taken")

type HostRepositoryInterface interface {
	GetHostByID(ctx context.Context, id uuid.UUID) (*entity.Host, error)
	GetHostBySlug(ctx context.Context, slug string) (*entity.Host, error)
	SetSlugIfEmpty(ctx context.Context, id uuid.UUID, slug string) (string, error)

	ListMeetingTypes(ctx context.Context, hostID uuid.UUID) ([]entity.MeetingType, error)
	GetMeetingType(ctx context.Context, hostID, id uuid.UUID) (*entity.MeetingType, error)
	CreateMeetingType(ctx context.Context, mt *entity.MeetingType) error
}

type HostRepository struct {
	DB database.Database
}

func NewHostRepository(db database.Database) *HostRepository {
	return &HostRepository{DB: db}
}

const hostColumns = `id, name, email, slug, plan, timezone, created_at, updated_at`

func (r *HostRepository) GetHostByID(ctx context.Context, id uuid.UUID) (*entity.Host, error) {
	var host entity.Host
	err := r.DB.GetContext(ctx, &host, `SELECT `+hostColumns+` FROM hosts WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("HostRepository:GetHostByID:Error", "error", err, "host_id", id)
		return nil, err
	}
	return &host, nil
}

func (r *HostRepository) GetHostBySlug(ctx context.Context, slug string) (*entity.Host, error) {
	var host entity.Host
	err := r.DB.GetContext(ctx, &host, `SELECT `+hostColumns+` FROM hosts WHERE slug = $1`, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("HostRepository:GetHostBySlug:Error", "error", err, "slug", slug)
		return nil, err
	}
	return &host, nil
}

// SetSlugIfEmpty assigns slug only when the host has none and returns the
// slug the host ends up with.
func (r *HostRepository) SetSlugIfEmpty(ctx context.Context, id uuid.UUID, slug string) (string, error) {
	query := `
		UPDATE hosts SET slug = COALESCE(slug, $2), updated_at = NOW()
		WHERE id = $1
		RETURNING slug
	`
	var current string
	err := r.DB.QueryRowContext(ctx, query, id, slug).Scan(&current)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", ErrSlugTaken
		}
		logger.Error("HostRepository:SetSlugIfEmpty:Error", "error", err, "host_id", id)
		return "", err
	}
	return current, nil
}

const meetingTypeColumns = `id, host_id, name, slug, duration_minutes, description, is_default, created_at, updated_at`

func (r *HostRepository) ListMeetingTypes(ctx context.Context, hostID uuid.UUID) ([]entity.MeetingType, error) {
	query := `SELECT ` + meetingTypeColumns + ` FROM meeting_types WHERE host_id = $1 ORDER BY is_default DESC, created_at ASC`
	var types []entity.MeetingType
	if err := r.DB.SelectContext(ctx, &types, query, hostID); err != nil {
		logger.Error("HostRepository:ListMeetingTypes:Error", "error", err, "host_id", hostID)
		return nil, err
	}
	return types, nil
}

func (r *HostRepository) GetMeetingType(ctx context.Context, hostID, id uuid.UUID) (*entity.MeetingType, error) {
	query := `SELECT ` + meetingTypeColumns + ` FROM meeting_types WHERE host_id = $1 AND id = $2`
	var mt entity.MeetingType
	if err := r.DB.GetContext(ctx, &mt, query, hostID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("HostRepository:GetMeetingType:Error", "error", err, "host_id", hostID, "id", id)
		return nil, err
	}
	return &mt, nil
}

// CreateMeetingType inserts mt; a new default clears the previous one in the same transaction.
func (r *HostRepository) CreateMeetingType(ctx context.Context, mt *entity.MeetingType) error {
	return r.DB.WithTx(ctx, func(tx *sqlx.Tx) error {
		if mt.IsDefault {
			if _, err := tx.ExecContext(ctx, `UPDATE meeting_types SET is_default = false WHERE host_id = $1`, mt.HostID); err != nil {
				return err
			}
		}
		query := `
			INSERT INTO meeting_types (id, host_id, name, slug, duration_minutes, description, is_default, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowxContext(ctx, query,
			mt.ID, mt.HostID, mt.Name, mt.Slug, mt.DurationMinutes, mt.Description, mt.IsDefault,
		).Scan(&mt.CreatedAt, &mt.UpdatedAt)
		if err != nil {
			logger.Error("HostRepository:CreateMeetingType:Error", "error", err, "host_id", mt.HostID)
		}
		return err
	})
}
