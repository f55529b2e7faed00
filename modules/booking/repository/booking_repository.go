package repository

import (
	"context"
	"database/sql"
	"time"

	"go-booking-api/core/database"
	"go-booking-api/core/logger"
	"go-booking-api/modules/booking/entity"

	"github.com/google/uuid"
)

type BookingRepositoryInterface interface {
	Create(ctx context.Context, b *entity.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListConfirmedInRange(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]entity.Booking, error)
	CountConfirmedInRange(ctx context.Context, hostID uuid.UUID, from, to time.Time) (int, error)
}

type BookingRepository struct {
	DB database.Database
}

func NewBookingRepository(db database.Database) *BookingRepository {
	return &BookingRepository{DB: db}
}

const bookingColumns = `id, host_id, meeting_type_id, guest_name, guest_email, start_time, end_time,
	remote_event_id, remote_meeting_link, remote_account_key, status, notes, created_at`

func (r *BookingRepository) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, host_id, meeting_type_id, guest_name, guest_email, start_time, end_time,
			remote_event_id, remote_meeting_link, remote_account_key, status, notes, created_at)
		VALUES (:id, :host_id, :meeting_type_id, :guest_name, :guest_email, :start_time, :end_time,
			:remote_event_id, :remote_meeting_link, :remote_account_key, :status, :notes, NOW())
	`
	if _, err := r.DB.NamedExecContext(ctx, query, b); err != nil {
		logger.Error("BookingRepository:Create:Error", "error", err, "host_id", b.HostID)
		return err
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	var b entity.Booking
	err := r.DB.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("BookingRepository:GetByID:Error", "error", err, "booking_id", id)
		return nil, err
	}
	return &b, nil
}

// Delete hard-deletes the booking and reports whether a row existed.
func (r *BookingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.DB.ExecResultContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		logger.Error("BookingRepository:Delete:Error", "error", err, "booking_id", id)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListConfirmedInRange returns confirmed bookings overlapping [from, to).
func (r *BookingRepository) ListConfirmedInRange(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE host_id = $1 AND status = $2 AND start_time < $4 AND end_time > $3
		ORDER BY start_time ASC
	`
	var bookings []entity.Booking
	if err := r.DB.SelectContext(ctx, &bookings, query, hostID, entity.StatusConfirmed, from, to); err != nil {
		logger.Error("BookingRepository:ListConfirmedInRange:Error", "error", err, "host_id", hostID)
		return nil, err
	}
	return bookings, nil
}

// CountConfirmedInRange counts confirmed bookings starting in [from, to).
func (r *BookingRepository) CountConfirmedInRange(ctx context.Context, hostID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE host_id = $1 AND status = $2 AND start_time >= $3 AND start_time < $4
	`
	var n int
	if err := r.DB.GetContext(ctx, &n, query, hostID, entity.StatusConfirmed, from, to); err != nil {
		logger.Error("BookingRepository:CountConfirmedInRange:Error", "error", err, "host_id", hostID)
		return 0, err
	}
	return n, nil
}
