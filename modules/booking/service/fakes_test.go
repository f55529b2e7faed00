package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	apperrors "go-booking-api/core/errors"
	availEntity "go-booking-api/modules/availability/entity"
	"go-booking-api/modules/booking/entity"
	calEntity "go-booking-api/modules/calendar/entity"
	calService "go-booking-api/modules/calendar/service"
	hostDto "go-booking-api/modules/host/dto"
	hostEntity "go-booking-api/modules/host/entity"
	planEntity "go-booking-api/modules/plan/entity"

	"github.com/google/uuid"
)

// monday is 2025-03-03 00:00 UTC.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type memBookings struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]entity.Booking
	createErr error
	deleted   []uuid.UUID
	// deadline of the context the last Create ran under
	createDeadline time.Time
}

func newMemBookings(bs ...entity.Booking) *memBookings {
	m := &memBookings{rows: map[uuid.UUID]entity.Booking{}}
	for _, b := range bs {
		m.rows[b.ID] = b
	}
	return m
}

func (m *memBookings) Create(ctx context.Context, b *entity.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createDeadline, _ = ctx.Deadline()
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memBookings) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return ok, nil
}

func (m *memBookings) ListConfirmedInRange(_ context.Context, hostID uuid.UUID, from, to time.Time) ([]entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.Booking
	for _, b := range m.rows {
		if b.HostID == hostID && b.Status == entity.StatusConfirmed && b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *memBookings) CountConfirmedInRange(_ context.Context, hostID uuid.UUID, from, to time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.rows {
		if b.HostID == hostID && !b.Start.Before(from) && b.Start.Before(to) {
			n++
		}
	}
	return n, nil
}

type fakeHosts struct {
	host  *hostEntity.Host
	types map[uuid.UUID]*hostEntity.MeetingType
}

func (f *fakeHosts) GetHostBySlug(_ context.Context, slug string) (*hostEntity.Host, *apperrors.AppError) {
	if f.host == nil || f.host.Slug == nil || *f.host.Slug != slug {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "host not found", nil)
	}
	return f.host, nil
}

func (f *fakeHosts) GetMeetingType(_ context.Context, _ uuid.UUID, id uuid.UUID) (*hostEntity.MeetingType, *apperrors.AppError) {
	mt, ok := f.types[id]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "meeting type not found", nil)
	}
	return mt, nil
}

func (f *fakeHosts) ListMeetingTypes(context.Context, uuid.UUID) ([]hostDto.MeetingTypeResponse, *apperrors.AppError) {
	return []hostDto.MeetingTypeResponse{}, nil
}

type fakeAvailability struct {
	blocks []availEntity.TimeSlot
}

func (f *fakeAvailability) BlocksInWindow(_ context.Context, _ uuid.UUID, window availEntity.TimeSlot) ([]availEntity.TimeSlot, *apperrors.AppError) {
	var out []availEntity.TimeSlot
	for _, b := range f.blocks {
		if b.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeQuota struct {
	quota *planEntity.PlanQuota
}

func (f *fakeQuota) GetQuotaStatus(context.Context, uuid.UUID) (*planEntity.PlanQuota, *apperrors.AppError) {
	return f.quota, nil
}

type fakeCalendars struct {
	accounts []calEntity.ConnectedAccount
}

func (f *fakeCalendars) Accounts(context.Context, uuid.UUID) ([]calEntity.ConnectedAccount, *apperrors.AppError) {
	return f.accounts, nil
}

func (f *fakeCalendars) DefaultAccount(context.Context, uuid.UUID) (*calEntity.ConnectedAccount, *apperrors.AppError) {
	for _, a := range f.accounts {
		if a.IsDefault {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeCalendars) AccountByKey(_ context.Context, _ uuid.UUID, key string) (*calEntity.ConnectedAccount, *apperrors.AppError) {
	for _, a := range f.accounts {
		if a.Key == key {
			return &a, nil
		}
	}
	return nil, nil
}

type fakeBusy struct {
	busy []calEntity.BusyInterval
}

func (f *fakeBusy) FetchBusy(_ context.Context, _ []calEntity.ConnectedAccount, from, to time.Time) []calEntity.BusyInterval {
	out := []calEntity.BusyInterval{}
	for _, b := range f.busy {
		if b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	return out
}

// fakeRemote is an in-memory calendar. Events are keyed by id.
type fakeRemote struct {
	mu        sync.Mutex
	events    map[string]*calEntity.RemoteEvent
	getErr    map[string]error
	insertErr error
	deleteErr error
	inserted  []calEntity.NewEvent
	deletes   []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{events: map[string]*calEntity.RemoteEvent{}, getErr: map[string]error{}}
}

func (f *fakeRemote) ListEvents(context.Context, time.Time, time.Time) ([]calEntity.BusyInterval, error) {
	return nil, nil
}

func (f *fakeRemote) InsertEvent(_ context.Context, ev calEntity.NewEvent) (*calEntity.RemoteEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, ev)
	created := &calEntity.RemoteEvent{ID: "evt-" + ev.RequestID, Status: "confirmed", HangoutLink: "https://meet.example/abc"}
	f.events[created.ID] = created
	return created, nil
}

func (f *fakeRemote) GetEvent(_ context.Context, id string) (*calEntity.RemoteEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.getErr[id]; ok {
		return nil, err
	}
	ev, ok := f.events[id]
	if !ok {
		return nil, calService.ErrEventGone
	}
	return ev, nil
}

func (f *fakeRemote) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.events[id]; !ok {
		return calService.ErrEventGone
	}
	delete(f.events, id)
	return nil
}

type fakeClients struct {
	mu     sync.Mutex
	remote *fakeRemote
	err    error
	keys   []string
}

func (f *fakeClients) Client(_ context.Context, acc *calEntity.ConnectedAccount) (calService.RemoteCalendar, error) {
	f.mu.Lock()
	f.keys = append(f.keys, acc.Key)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.remote, nil
}

type fakeRetries struct {
	mu     sync.Mutex
	events []string
	keys   []string
}

func (f *fakeRetries) ScheduleRemoteDelete(_ context.Context, _ uuid.UUID, accountKey, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventID)
	f.keys = append(f.keys, accountKey)
	return nil
}

var errTransient = errors.New("provider 503")

func strPtr(s string) *string { return &s }

func defaultAccount() calEntity.ConnectedAccount {
	return calEntity.ConnectedAccount{Key: "acc_1", Email: "host@example.com", AccessToken: "t", IsDefault: true}
}

func linkedBooking(hostID uuid.UUID, eventID string, start time.Time) entity.Booking {
	return entity.Booking{
		ID:            uuid.New(),
		HostID:        hostID,
		GuestName:     "Guest",
		GuestEmail:    "guest@example.com",
		Start:         start,
		End:           start.Add(30 * time.Minute),
		Status:        entity.StatusConfirmed,
		RemoteEventID: strPtr(eventID),
		// acc_1 is defaultAccount()
		RemoteAccountKey: strPtr("acc_1"),
	}
}
