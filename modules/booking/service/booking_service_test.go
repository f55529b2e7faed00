package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-booking-api/core/cache"
	coreEntity "go-booking-api/core/entity"
	apperrors "go-booking-api/core/errors"
	availEntity "go-booking-api/modules/availability/entity"
	"go-booking-api/modules/booking/dto"
	"go-booking-api/modules/booking/entity"
	calEntity "go-booking-api/modules/calendar/entity"
	hostEntity "go-booking-api/modules/host/entity"
	planEntity "go-booking-api/modules/plan/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostSlug = "ada-lovelace-x1y2z3"

type fixture struct {
	svc      *BookingService
	host     *hostEntity.Host
	repo     *memBookings
	remote   *fakeRemote
	clients  *fakeClients
	calendar *fakeCalendars
	busy     *fakeBusy
	quota    *fakeQuota
	retries  *fakeRetries
}

func newFixture(t *testing.T, blocks []availEntity.TimeSlot, bookings ...entity.Booking) *fixture {
	t.Helper()
	host := &hostEntity.Host{
		BaseEntity: coreEntity.BaseEntity{ID: uuid.New()},
		Name:       "Ada",
		Email:      "ada@example.com",
		Slug:       strPtr(hostSlug),
		Plan:       string(planEntity.PlanStarter),
	}
	for i := range bookings {
		bookings[i].HostID = host.ID
	}

	f := &fixture{
		host:     host,
		repo:     newMemBookings(bookings...),
		remote:   newFakeRemote(),
		calendar: &fakeCalendars{accounts: []calEntity.ConnectedAccount{defaultAccount()}},
		busy:     &fakeBusy{},
		quota:    &fakeQuota{quota: planEntity.NewPlanQuota(planEntity.PlanStarter, 0)},
		retries:  &fakeRetries{},
	}
	f.clients = &fakeClients{remote: f.remote}
	f.svc = NewBookingService(Deps{
		Repo:         f.repo,
		Hosts:        &fakeHosts{host: host},
		Availability: &fakeAvailability{blocks: blocks},
		Quota:        f.quota,
		Calendars:    f.calendar,
		Busy:         f.busy,
		Clients:      f.clients,
		Retries:      f.retries,
		Locker:       cache.NewLocalLocker(),
	})
	// Sunday evening before the test Monday
	f.svc.now = func() time.Time { return monday.Add(-6 * time.Hour) }
	return f
}

func morning() []availEntity.TimeSlot {
	return []availEntity.TimeSlot{{Start: at(9, 0), End: at(12, 0)}}
}

func slotStarts(slots []dto.SlotResponse) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func TestListAvailableSlots_ExcludesConfirmedBooking(t *testing.T) {
	booked := entity.Booking{ID: uuid.New(), Start: at(10, 0), End: at(10, 30), Status: entity.StatusConfirmed}
	f := newFixture(t, morning(), booked)

	resp, appErr := f.svc.ListAvailableSlots(context.Background(), hostSlug, AvailabilityQuery{Date: "2025-03-03", DurationMinutes: 30, Timezone: "UTC"})

	require.Nil(t, appErr)
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, slotStarts(resp.Slots))
}

func TestListAvailableSlots_BusyAndTouching(t *testing.T) {
	f := newFixture(t, morning())
	f.busy.busy = []calEntity.BusyInterval{
		{Start: at(9, 45), End: at(10, 15), Title: "Busy"},
		{Start: at(11, 0), End: at(11, 30), Title: "Busy"},
	}

	resp, appErr := f.svc.ListAvailableSlots(context.Background(), hostSlug, AvailabilityQuery{Date: "2025-03-03", Timezone: "UTC"})

	require.Nil(t, appErr)
	assert.Equal(t, []string{"09:00", "10:30", "11:30"}, slotStarts(resp.Slots))
}

func TestListAvailableSlots_DeclinedBookingFreesSlot(t *testing.T) {
	stale := linkedBooking(uuid.Nil, "evt-declined", at(10, 0))
	f := newFixture(t, morning(), stale)
	f.remote.events["evt-declined"] = &calEntity.RemoteEvent{ID: "evt-declined", Attendees: []calEntity.EventAttendee{
		{Email: "guest@example.com", ResponseStatus: calEntity.ResponseDeclined},
	}}

	resp, appErr := f.svc.ListAvailableSlots(context.Background(), hostSlug, AvailabilityQuery{Date: "2025-03-03", Timezone: "UTC"})

	require.Nil(t, appErr)
	assert.Contains(t, slotStarts(resp.Slots), "10:00")
	assert.Contains(t, f.repo.deleted, stale.ID)
}

func TestListAvailableSlots_QuotaExceededRendersEmpty(t *testing.T) {
	f := newFixture(t, morning())
	f.quota.quota = planEntity.NewPlanQuota(planEntity.PlanFree, 2)

	resp, appErr := f.svc.ListAvailableSlots(context.Background(), hostSlug, AvailabilityQuery{Date: "2025-03-03"})

	require.Nil(t, appErr)
	assert.Empty(t, resp.Slots)
	assert.NotNil(t, resp.Slots)
}

func TestListAvailableSlots_UnknownHost(t *testing.T) {
	f := newFixture(t, morning())

	_, appErr := f.svc.ListAvailableSlots(context.Background(), "nobody", AvailabilityQuery{Date: "2025-03-03"})

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestListAvailableSlots_RejectsOddDuration(t *testing.T) {
	f := newFixture(t, morning())

	_, appErr := f.svc.ListAvailableSlots(context.Background(), hostSlug, AvailabilityQuery{Date: "2025-03-03", DurationMinutes: 17})

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrInvalidInput, appErr.Code)
}

func TestListAvailableDates(t *testing.T) {
	blocks := []availEntity.TimeSlot{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(24+9, 0), End: at(24+9, 30)},
		{Start: at(48+9, 0), End: at(48+10, 0)},
	}
	// Tuesday's only slot is taken by a remote event
	f := newFixture(t, blocks)
	f.busy.busy = []calEntity.BusyInterval{{Start: at(24+9, 0), End: at(24+9, 30)}}

	resp, appErr := f.svc.ListAvailableDates(context.Background(), hostSlug, AvailabilityQuery{From: "2025-03-03", To: "2025-03-09", Timezone: "UTC"})

	require.Nil(t, appErr)
	assert.Equal(t, []string{"2025-03-03", "2025-03-05"}, resp.Dates)
}

func TestListAvailableDates_RangeValidation(t *testing.T) {
	f := newFixture(t, morning())

	_, appErr := f.svc.ListAvailableDates(context.Background(), hostSlug, AvailabilityQuery{From: "2025-03-10", To: "2025-03-03"})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrInvalidInput, appErr.Code)

	_, appErr = f.svc.ListAvailableDates(context.Background(), hostSlug, AvailabilityQuery{From: "2025-03-01", To: "2025-06-01"})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrInvalidInput, appErr.Code)
}

func bookingRequest(start time.Time) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		StartTime: start.Format(time.RFC3339),
		Name:      "Grace",
		Email:     "grace@example.com",
	}
}

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t, morning())

	resp, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 30)))

	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StatusConfirmed), resp.Status)
	assert.Equal(t, at(10, 0), resp.End)
	require.NotNil(t, resp.RemoteEventID)
	require.NotNil(t, resp.RemoteMeetingLink)

	require.Len(t, f.remote.inserted, 1)
	ev := f.remote.inserted[0]
	assert.Equal(t, "Meeting Ada x Grace", ev.Summary)
	assert.Equal(t, "host@example.com", ev.HostEmail)
	assert.Equal(t, "grace@example.com", ev.GuestEmail)

	stored, _ := f.repo.GetByID(context.Background(), uuid.MustParse(resp.ID))
	require.NotNil(t, stored)
	assert.Equal(t, *resp.RemoteEventID, *stored.RemoteEventID)
}

func TestCreateBooking_MeetingTypeSetsDurationAndSummary(t *testing.T) {
	f := newFixture(t, morning())
	mt := &hostEntity.MeetingType{BaseEntity: coreEntity.BaseEntity{ID: uuid.New()}, Name: "Intro call", DurationMinutes: 60}
	f.svc.hosts = &fakeHosts{host: f.host, types: map[uuid.UUID]*hostEntity.MeetingType{mt.ID: mt}}
	req := bookingRequest(at(10, 0))
	req.MeetingTypeID = strPtr(mt.ID.String())

	resp, appErr := f.svc.CreateBooking(context.Background(), hostSlug, req)

	require.Nil(t, appErr)
	assert.Equal(t, at(11, 0), resp.End)
	require.NotNil(t, resp.MeetingTypeID)
	assert.Equal(t, "Intro call: Ada x Grace", f.remote.inserted[0].Summary)
}

func TestCreateBooking_QuotaExceeded(t *testing.T) {
	f := newFixture(t, morning())
	f.quota.quota = planEntity.NewPlanQuota(planEntity.PlanFree, 2)

	_, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 30)))

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrQuotaExceeded, appErr.Code)
	assert.Empty(t, f.remote.inserted)
}

func TestCreateBooking_SlotUnavailable(t *testing.T) {
	taken := entity.Booking{ID: uuid.New(), Start: at(9, 45), End: at(10, 15), Status: entity.StatusConfirmed}
	f := newFixture(t, morning(), taken)

	_, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(10, 0)))
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrSlotUnavailable, appErr.Code)

	// touching the existing booking is fine
	_, appErr = f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(10, 15)))
	assert.Nil(t, appErr)
}

func TestCreateBooking_BusyConflict(t *testing.T) {
	f := newFixture(t, morning())
	f.busy.busy = []calEntity.BusyInterval{{Start: at(11, 0), End: at(12, 0)}}

	_, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(11, 30)))

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrSlotUnavailable, appErr.Code)
}

func TestCreateBooking_OutsideAvailabilityOrPast(t *testing.T) {
	f := newFixture(t, morning())

	_, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(11, 45)))
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrSlotUnavailable, appErr.Code)

	_, appErr = f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(monday.Add(-24*time.Hour)))
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrInvalidInput, appErr.Code)
}

func TestCreateBooking_RemoteFailureDegrades(t *testing.T) {
	f := newFixture(t, morning())
	f.remote.insertErr = errTransient

	resp, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 0)))

	require.Nil(t, appErr)
	assert.Nil(t, resp.RemoteEventID)
	assert.Nil(t, resp.RemoteMeetingLink)
	stored, _ := f.repo.GetByID(context.Background(), uuid.MustParse(resp.ID))
	require.NotNil(t, stored)
}

func TestCreateBooking_NoCalendarStillBooks(t *testing.T) {
	f := newFixture(t, morning())
	f.calendar.accounts = nil

	resp, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 0)))

	require.Nil(t, appErr)
	assert.Nil(t, resp.RemoteEventID)
}

func TestCreateBooking_PersistFailureRemovesRemoteEvent(t *testing.T) {
	f := newFixture(t, morning())
	f.repo.createErr = errors.New("db down")

	_, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 0)))

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrInternalServer, appErr.Code)
	require.Len(t, f.remote.inserted, 1)
	assert.Len(t, f.remote.deletes, 1)
	assert.Empty(t, f.remote.events)
}

func TestCreateBooking_ConcurrentRequestsForSameSlot(t *testing.T) {
	f := newFixture(t, morning())

	var wg sync.WaitGroup
	codes := make([]*apperrors.AppError, 5)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, codes[i] = f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 0)))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, appErr := range codes {
		if appErr == nil {
			ok++
			continue
		}
		assert.Equal(t, apperrors.ErrSlotUnavailable, appErr.Code)
	}
	assert.Equal(t, 1, ok)
	n, _ := f.repo.CountConfirmedInRange(context.Background(), f.host.ID, at(0, 0), at(24, 0))
	assert.Equal(t, 1, n)
}

func TestCancelBooking_RemoteFailureStillDeletesLocally(t *testing.T) {
	b := linkedBooking(uuid.Nil, "evt-1", at(9, 0))
	f := newFixture(t, morning(), b)
	f.remote.events["evt-1"] = &calEntity.RemoteEvent{ID: "evt-1"}
	f.remote.deleteErr = errTransient

	appErr := f.svc.CancelBooking(context.Background(), f.host.ID, b.ID)

	require.Nil(t, appErr)
	assert.Contains(t, f.repo.deleted, b.ID)
	assert.Equal(t, []string{"evt-1"}, f.retries.events)
}

func TestCancelBooking_OwnershipAndMissing(t *testing.T) {
	b := linkedBooking(uuid.Nil, "evt-1", at(9, 0))
	f := newFixture(t, morning(), b)

	appErr := f.svc.CancelBooking(context.Background(), uuid.New(), b.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Empty(t, f.repo.deleted)

	appErr = f.svc.CancelBooking(context.Background(), f.host.ID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestReconcileBookings(t *testing.T) {
	gone := linkedBooking(uuid.Nil, "evt-gone", at(9, 0))
	kept := linkedBooking(uuid.Nil, "evt-kept", at(10, 0))
	f := newFixture(t, morning(), gone, kept)
	f.remote.events["evt-kept"] = &calEntity.RemoteEvent{ID: "evt-kept"}

	results, appErr := f.svc.ReconcileBookings(context.Background(), f.host.ID, []uuid.UUID{gone.ID, kept.ID, uuid.New()})

	require.Nil(t, appErr)
	require.Len(t, results, 2)
	assert.Equal(t, StateCancelled, results[0].State)
	assert.Equal(t, StateActive, results[1].State)
}

func TestListHostBookings_DropsRemotelyCancelled(t *testing.T) {
	gone := linkedBooking(uuid.Nil, "evt-gone", at(9, 0))
	local := entity.Booking{ID: uuid.New(), Start: at(11, 0), End: at(11, 30), Status: entity.StatusConfirmed, GuestName: "L", GuestEmail: "l@example.com"}
	f := newFixture(t, morning(), gone, local)

	list, appErr := f.svc.ListHostBookings(context.Background(), f.host.ID, at(0, 0), at(24, 0))

	require.Nil(t, appErr)
	require.Len(t, list, 1)
	assert.Equal(t, local.ID.String(), list[0].ID)
}

// the booking's own calendar event shows up in the busy fetch too
func declinedWithOwnEvent() (entity.Booking, calEntity.BusyInterval, *calEntity.RemoteEvent) {
	stale := linkedBooking(uuid.Nil, "evt-declined", at(10, 0))
	busy := calEntity.BusyInterval{EventID: "evt-declined", Start: at(10, 0), End: at(10, 30), Title: "Meeting Ada x Guest"}
	ev := &calEntity.RemoteEvent{ID: "evt-declined", Status: "confirmed", Attendees: []calEntity.EventAttendee{
		{Email: "host@example.com", ResponseStatus: calEntity.ResponseAccepted},
		{Email: "guest@example.com", ResponseStatus: calEntity.ResponseDeclined},
	}}
	return stale, busy, ev
}

func TestListAvailableSlots_DeclinedBookingEventIsNotBusy(t *testing.T) {
	stale, busy, ev := declinedWithOwnEvent()
	f := newFixture(t, morning(), stale)
	f.busy.busy = []calEntity.BusyInterval{busy}
	f.remote.events[ev.ID] = ev

	resp, appErr := f.svc.ListAvailableSlots(context.Background(), hostSlug, AvailabilityQuery{Date: "2025-03-03", DurationMinutes: 30, Timezone: "UTC"})

	require.Nil(t, appErr)
	assert.Contains(t, slotStarts(resp.Slots), "10:00")
}

func TestCreateBooking_DeclinedBookingEventIsNotBusy(t *testing.T) {
	stale, busy, ev := declinedWithOwnEvent()
	f := newFixture(t, morning(), stale)
	f.busy.busy = []calEntity.BusyInterval{busy}
	f.remote.events[ev.ID] = ev

	resp, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(10, 0)))

	require.Nil(t, appErr)
	assert.Equal(t, at(10, 0), resp.Start)
	assert.Contains(t, f.repo.deleted, stale.ID)
}

func TestCreateBooking_ActiveBookingStillBlocksWithoutItsEvent(t *testing.T) {
	kept := linkedBooking(uuid.Nil, "evt-kept", at(10, 0))
	f := newFixture(t, morning(), kept)
	f.busy.busy = []calEntity.BusyInterval{{EventID: "evt-kept", Start: at(10, 0), End: at(10, 30)}}
	f.remote.events["evt-kept"] = &calEntity.RemoteEvent{ID: "evt-kept", Status: "confirmed"}

	_, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(10, 0)))

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrSlotUnavailable, appErr.Code)
}

func TestCreateBooking_StoresCreatingAccount(t *testing.T) {
	f := newFixture(t, morning())

	resp, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 0)))

	require.Nil(t, appErr)
	stored, _ := f.repo.GetByID(context.Background(), uuid.MustParse(resp.ID))
	require.NotNil(t, stored)
	assert.Equal(t, "acc_1", stored.AccountKey())
}

// recordingLocker remembers when the lock was taken and for how long.
type recordingLocker struct {
	cache.Locker
	acquired time.Time
	ttl      time.Duration
}

func (l *recordingLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token, ok, err := l.Locker.AcquireLock(ctx, key, ttl)
	if ok {
		l.acquired, l.ttl = time.Now(), ttl
	}
	return token, ok, err
}

func TestCreateBooking_GuardedWorkEndsBeforeLockExpires(t *testing.T) {
	f := newFixture(t, morning())
	locker := &recordingLocker{Locker: cache.NewLocalLocker()}
	f.svc.locker = locker

	_, appErr := f.svc.CreateBooking(context.Background(), hostSlug, bookingRequest(at(9, 0)))

	require.Nil(t, appErr)
	require.False(t, f.repo.createDeadline.IsZero(), "insert must run under a bounded context")
	assert.False(t, f.repo.createDeadline.After(locker.acquired.Add(locker.ttl)))
}

func TestCancelBooking_DisconnectedAccountSkipsRemoteDelete(t *testing.T) {
	b := linkedBooking(uuid.Nil, "evt-old", at(9, 0))
	b.RemoteAccountKey = strPtr("acc_old")
	f := newFixture(t, morning(), b)

	appErr := f.svc.CancelBooking(context.Background(), f.host.ID, b.ID)

	require.Nil(t, appErr)
	assert.Contains(t, f.repo.deleted, b.ID)
	assert.Empty(t, f.remote.deletes, "default account must not delete another account's event")
	assert.Empty(t, f.retries.events)
}

func TestGetQuotaStatus_UnknownHostIsRestrictive(t *testing.T) {
	f := newFixture(t, morning())

	quota, appErr := f.svc.GetQuotaStatus(context.Background(), "no-such-host")

	require.Nil(t, appErr)
	require.NotNil(t, quota)
	assert.True(t, quota.IsExceeded)
	assert.Equal(t, 0, quota.Remaining)
}
