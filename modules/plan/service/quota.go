package service

import (
	"context"
	"time"

	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/modules/plan/entity"
	"go-booking-api/modules/plan/repository"

	"github.com/google/uuid"
)

// BookingCounter counts confirmed bookings of a host starting in [from, to).
type BookingCounter interface {
	CountConfirmedInRange(ctx context.Context, hostID uuid.UUID, from, to time.Time) (int, error)
}

type QuotaTrackerInterface interface {
	GetQuotaStatus(ctx context.Context, hostID uuid.UUID) (*entity.PlanQuota, *errors.AppError)
	CanConnectCalendar(ctx context.Context, hostID uuid.UUID, connected int) (bool, *errors.AppError)
}

type QuotaTracker struct {
	plans    repository.PlanRepositoryInterface
	bookings BookingCounter
	loc      *time.Location
	now      func() time.Time
}

// NewQuotaTracker anchors months to loc (server time).
func NewQuotaTracker(plans repository.PlanRepositoryInterface, bookings BookingCounter, loc *time.Location) *QuotaTracker {
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaTracker{plans: plans, bookings: bookings, loc: loc, now: time.Now}
}

// MonthWindow returns [first of month, first of next month) containing t in loc.
func MonthWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, _ := t.In(loc).Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// planFor resolves the plan. found=false means the host does not exist.
// Lookup errors fall back to free.
func (q *QuotaTracker) planFor(ctx context.Context, hostID uuid.UUID) (entity.PlanTier, bool) {
	tier, found, err := q.plans.GetHostPlan(ctx, hostID)
	if err != nil {
		logger.Warn("QuotaTracker:planFor:Fallback", "error", err, "host_id", hostID, "plan", entity.PlanFree)
		return entity.PlanFree, true
	}
	return tier, found
}

func (q *QuotaTracker) GetQuotaStatus(ctx context.Context, hostID uuid.UUID) (*entity.PlanQuota, *errors.AppError) {
	tier, found := q.planFor(ctx, hostID)
	if !found {
		logger.Warn("QuotaTracker:GetQuotaStatus:UnknownHost", "host_id", hostID)
		return entity.RestrictiveQuota(), nil
	}

	from, to := MonthWindow(q.now(), q.loc)
	used, err := q.bookings.CountConfirmedInRange(ctx, hostID, from, to)
	if err != nil {
		logger.Error("QuotaTracker:GetQuotaStatus:Count:Error", "error", err, "host_id", hostID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to count bookings", err)
	}

	return entity.NewPlanQuota(tier, used), nil
}

// CanConnectCalendar reports whether one more account fits the host's plan.
func (q *QuotaTracker) CanConnectCalendar(ctx context.Context, hostID uuid.UUID, connected int) (bool, *errors.AppError) {
	tier, found := q.planFor(ctx, hostID)
	if !found {
		return false, errors.NewAppError(errors.ErrNotFound, "host not found", nil)
	}
	limit := entity.LimitsFor(tier).MaxConnectedCalendars
	return limit == entity.Unlimited || connected < limit, nil
}
