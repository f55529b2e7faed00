package service

import (
	"context"
	stderrors "errors"
	"time"

	"go-booking-api/core/constants"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/modules/booking/entity"
	"go-booking-api/modules/booking/repository"
	calEntity "go-booking-api/modules/calendar/entity"
	calService "go-booking-api/modules/calendar/service"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

type ReconcileState int

const (
	StateActive ReconcileState = iota
	StateCancelled
	// StateUnknown means the remote status could not be read; the booking is kept.
	StateUnknown
)

func (s ReconcileState) IsActive() bool {
	return s != StateCancelled
}

func (s ReconcileState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s ReconcileState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ReconcileResult struct {
	BookingID uuid.UUID      `json:"booking_id"`
	State     ReconcileState `json:"state"`
	Reason    string         `json:"reason,omitempty"`
}

// AccountSource resolves the calendar accounts holding a host's events.
type AccountSource interface {
	DefaultAccount(ctx context.Context, hostID uuid.UUID) (*calEntity.ConnectedAccount, *errors.AppError)
	AccountByKey(ctx context.Context, hostID uuid.UUID, key string) (*calEntity.ConnectedAccount, *errors.AppError)
}

// LinkedAccount returns the account an event was created on. An empty key
// falls back to the default account. Nil means the account is gone.
func LinkedAccount(ctx context.Context, src AccountSource, hostID uuid.UUID, key string) (*calEntity.ConnectedAccount, *errors.AppError) {
	if key == "" {
		return src.DefaultAccount(ctx, hostID)
	}
	return src.AccountByKey(ctx, hostID, key)
}

// RemoteDeleteScheduler retries a remote event deletion in the background.
type RemoteDeleteScheduler interface {
	ScheduleRemoteDelete(ctx context.Context, hostID uuid.UUID, accountKey, eventID string) error
}

// AttendeeReconciler checks linked remote events and drops bookings that were
// cancelled or declined outside the app. Any doubt keeps the booking.
type AttendeeReconciler struct {
	accounts   AccountSource
	clients    calService.ClientProvider
	bookings   repository.BookingRepositoryInterface
	retries    RemoteDeleteScheduler
	timeout    time.Duration
	maxWorkers int
}

func NewAttendeeReconciler(accounts AccountSource, clients calService.ClientProvider, bookings repository.BookingRepositoryInterface, retries RemoteDeleteScheduler) *AttendeeReconciler {
	return &AttendeeReconciler{
		accounts:   accounts,
		clients:    clients,
		bookings:   bookings,
		retries:    retries,
		timeout:    constants.ProviderCallTimeout,
		maxWorkers: 8,
	}
}

// Reconcile returns a result for every booking passed in. Cancelled bookings
// are cleaned up before returning.
func (r *AttendeeReconciler) Reconcile(ctx context.Context, hostID uuid.UUID, bookings []entity.Booking) map[uuid.UUID]ReconcileResult {
	results := make(map[uuid.UUID]ReconcileResult, len(bookings))
	var linked []entity.Booking
	for _, b := range bookings {
		if b.HasRemoteEvent() {
			linked = append(linked, b)
			continue
		}
		results[b.ID] = ReconcileResult{BookingID: b.ID, State: StateActive}
	}
	if len(linked) == 0 {
		return results
	}

	byAccount := map[string][]entity.Booking{}
	for _, b := range linked {
		byAccount[b.AccountKey()] = append(byAccount[b.AccountKey()], b)
	}

	workers := pool.NewWithResults[ReconcileResult]().WithMaxGoroutines(r.maxWorkers)
	for key, group := range byAccount {
		markUnknown := func(reason string) {
			for _, b := range group {
				results[b.ID] = ReconcileResult{BookingID: b.ID, State: StateUnknown, Reason: reason}
			}
		}

		acc, appErr := LinkedAccount(ctx, r.accounts, hostID, key)
		if appErr != nil {
			logger.Warn("AttendeeReconciler:Reconcile:Account:Error", "error", appErr, "host_id", hostID, "key", key)
			markUnknown("account lookup failed")
			continue
		}
		if acc == nil {
			markUnknown("calendar account not connected")
			continue
		}
		client, err := r.clients.Client(ctx, acc)
		if err != nil {
			logger.Warn("AttendeeReconciler:Reconcile:Client:Error", "error", err, "host_id", hostID, "key", key)
			markUnknown("calendar unavailable")
			continue
		}

		for _, b := range group {
			workers.Go(func() ReconcileResult {
				return r.check(ctx, client, acc.Email, b)
			})
		}
	}
	for _, res := range workers.Wait() {
		results[res.BookingID] = res
	}
	return results
}

func (r *AttendeeReconciler) check(ctx context.Context, client calService.RemoteCalendar, hostEmail string, b entity.Booking) ReconcileResult {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ev, err := client.GetEvent(callCtx, *b.RemoteEventID)
	switch {
	case stderrors.Is(err, calService.ErrEventGone):
		r.cleanup(ctx, client, b, false)
		return ReconcileResult{BookingID: b.ID, State: StateCancelled, Reason: "remote event deleted"}
	case err != nil:
		logger.Warn("AttendeeReconciler:check:Error", "error", err, "booking_id", b.ID)
		return ReconcileResult{BookingID: b.ID, State: StateUnknown, Reason: "remote status unavailable"}
	}

	reason := ""
	switch {
	case ev.Status == calEntity.EventStatusCancelled:
		reason = "remote event cancelled"
	case ev.ResponseOf(hostEmail) == calEntity.ResponseDeclined:
		reason = "host declined"
	case ev.ResponseOf(b.GuestEmail) == calEntity.ResponseDeclined:
		reason = "guest declined"
	default:
		return ReconcileResult{BookingID: b.ID, State: StateActive}
	}

	r.cleanup(ctx, client, b, true)
	return ReconcileResult{BookingID: b.ID, State: StateCancelled, Reason: reason}
}

// cleanup removes the remote event (when it still exists) and then the local
// booking. Failures are logged only; a failed remote delete is retried later.
func (r *AttendeeReconciler) cleanup(ctx context.Context, client calService.RemoteCalendar, b entity.Booking, remoteExists bool) {
	ctx = context.WithoutCancel(ctx)

	if remoteExists {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := client.DeleteEvent(callCtx, *b.RemoteEventID)
		cancel()
		if err != nil && !stderrors.Is(err, calService.ErrEventGone) {
			logger.Warn("AttendeeReconciler:cleanup:RemoteDelete:Error", "error", err, "booking_id", b.ID)
			r.scheduleRetry(ctx, b)
		}
	}

	if _, err := r.bookings.Delete(ctx, b.ID); err != nil {
		logger.Error("AttendeeReconciler:cleanup:LocalDelete:Error", "error", err, "booking_id", b.ID)
		return
	}
	logger.Info("AttendeeReconciler:cleanup:Removed", "booking_id", b.ID, "host_id", b.HostID)
}

func (r *AttendeeReconciler) scheduleRetry(ctx context.Context, b entity.Booking) {
	if r.retries == nil {
		return
	}
	if err := r.retries.ScheduleRemoteDelete(ctx, b.HostID, b.AccountKey(), *b.RemoteEventID); err != nil {
		logger.Error("AttendeeReconciler:scheduleRetry:Error", "error", err, "booking_id", b.ID)
	}
}

// ActiveBookings keeps the bookings whose result is not cancelled. Bookings
// missing from results are kept.
func ActiveBookings(results map[uuid.UUID]ReconcileResult, bookings []entity.Booking) []entity.Booking {
	out := make([]entity.Booking, 0, len(bookings))
	for _, b := range bookings {
		if res, ok := results[b.ID]; ok && !res.State.IsActive() {
			continue
		}
		out = append(out, b)
	}
	return out
}
