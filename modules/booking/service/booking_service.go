package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-booking-api/core/cache"
	"go-booking-api/core/constants"
	"go-booking-api/core/errors"
	"go-booking-api/core/logger"
	"go-booking-api/core/utils"
	availEntity "go-booking-api/modules/availability/entity"
	availService "go-booking-api/modules/availability/service"
	"go-booking-api/modules/booking/dto"
	"go-booking-api/modules/booking/entity"
	"go-booking-api/modules/booking/repository"
	calEntity "go-booking-api/modules/calendar/entity"
	calService "go-booking-api/modules/calendar/service"
	hostDto "go-booking-api/modules/host/dto"
	hostEntity "go-booking-api/modules/host/entity"
	planEntity "go-booking-api/modules/plan/entity"

	"github.com/google/uuid"
)

const defaultDatesSpanDays = 30

type HostDirectory interface {
	GetHostBySlug(ctx context.Context, slug string) (*hostEntity.Host, *errors.AppError)
	GetMeetingType(ctx context.Context, hostID, id uuid.UUID) (*hostEntity.MeetingType, *errors.AppError)
	ListMeetingTypes(ctx context.Context, hostID uuid.UUID) ([]hostDto.MeetingTypeResponse, *errors.AppError)
}

type AvailabilitySource interface {
	BlocksInWindow(ctx context.Context, hostID uuid.UUID, window availEntity.TimeSlot) ([]availEntity.TimeSlot, *errors.AppError)
}

type QuotaSource interface {
	GetQuotaStatus(ctx context.Context, hostID uuid.UUID) (*planEntity.PlanQuota, *errors.AppError)
}

type CalendarAccounts interface {
	AccountSource
	Accounts(ctx context.Context, hostID uuid.UUID) ([]calEntity.ConnectedAccount, *errors.AppError)
}

type BusyFetcher interface {
	FetchBusy(ctx context.Context, accounts []calEntity.ConnectedAccount, from, to time.Time) []calEntity.BusyInterval
}

type BookingServiceInterface interface {
	ListMeetingTypes(ctx context.Context, hostSlug string) ([]hostDto.MeetingTypeResponse, *errors.AppError)
	ListAvailableDates(ctx context.Context, hostSlug string, q AvailabilityQuery) (*dto.AvailableDatesResponse, *errors.AppError)
	ListAvailableSlots(ctx context.Context, hostSlug string, q AvailabilityQuery) (*dto.AvailableSlotsResponse, *errors.AppError)
	GetQuotaStatus(ctx context.Context, hostSlug string) (*planEntity.PlanQuota, *errors.AppError)
	CreateBooking(ctx context.Context, hostSlug string, req *dto.CreateBookingRequest) (*dto.BookingResponse, *errors.AppError)
	CancelBooking(ctx context.Context, hostID, bookingID uuid.UUID) *errors.AppError
	ReconcileBookings(ctx context.Context, hostID uuid.UUID, bookingIDs []uuid.UUID) ([]ReconcileResult, *errors.AppError)
	ListHostBookings(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]dto.BookingResponse, *errors.AppError)
}

// AvailabilityQuery carries the booking-page query parameters.
// From/To are inclusive YYYY-MM-DD dates; Date selects a single day.
type AvailabilityQuery struct {
	From            string
	To              string
	Date            string
	DurationMinutes int
	MeetingTypeID   string
	Timezone        string
}

type Deps struct {
	Repo         repository.BookingRepositoryInterface
	Hosts        HostDirectory
	Availability AvailabilitySource
	Quota        QuotaSource
	Calendars    CalendarAccounts
	Busy         BusyFetcher
	Clients      calService.ClientProvider
	Retries      RemoteDeleteScheduler
	Locker       cache.Locker
}

// BookingService orchestrates the booking page and reservations.
type BookingService struct {
	repo         repository.BookingRepositoryInterface
	hosts        HostDirectory
	availability AvailabilitySource
	quota        QuotaSource
	calendars    CalendarAccounts
	busy         BusyFetcher
	clients      calService.ClientProvider
	retries      RemoteDeleteScheduler
	locker       cache.Locker
	reconciler   *AttendeeReconciler
	now          func() time.Time
}

func NewBookingService(d Deps) *BookingService {
	locker := d.Locker
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &BookingService{
		repo:         d.Repo,
		hosts:        d.Hosts,
		availability: d.Availability,
		quota:        d.Quota,
		calendars:    d.Calendars,
		busy:         d.Busy,
		clients:      d.Clients,
		retries:      d.Retries,
		locker:       locker,
		reconciler:   NewAttendeeReconciler(d.Calendars, d.Clients, d.Repo, d.Retries),
		now:          time.Now,
	}
}

func (s *BookingService) ListMeetingTypes(ctx context.Context, hostSlug string) ([]hostDto.MeetingTypeResponse, *errors.AppError) {
	host, appErr := s.hosts.GetHostBySlug(ctx, hostSlug)
	if appErr != nil {
		return nil, appErr
	}
	return s.hosts.ListMeetingTypes(ctx, host.ID)
}

// GetQuotaStatus serves the restrictive quota for a slug that matches no host.
func (s *BookingService) GetQuotaStatus(ctx context.Context, hostSlug string) (*planEntity.PlanQuota, *errors.AppError) {
	host, appErr := s.hosts.GetHostBySlug(ctx, hostSlug)
	if appErr != nil {
		if appErr.Code == errors.ErrNotFound {
			return planEntity.RestrictiveQuota(), nil
		}
		return nil, appErr
	}
	return s.quota.GetQuotaStatus(ctx, host.ID)
}

// ListAvailableDates returns the days of the range with at least one free slot.
// A host over quota gets an empty list.
func (s *BookingService) ListAvailableDates(ctx context.Context, hostSlug string, q AvailabilityQuery) (*dto.AvailableDatesResponse, *errors.AppError) {
	loc := utils.LoadLocationOrUTC(q.Timezone)
	window, appErr := s.datesWindow(q, loc)
	if appErr != nil {
		return nil, appErr
	}

	host, open, appErr := s.openHost(ctx, hostSlug)
	if appErr != nil {
		return nil, appErr
	}
	resp := &dto.AvailableDatesResponse{Dates: []string{}, Timezone: loc.String()}
	if !open {
		return resp, nil
	}

	duration, _, appErr := s.resolveDuration(ctx, host.ID, q.MeetingTypeID, q.DurationMinutes)
	if appErr != nil {
		return nil, appErr
	}

	res, appErr := s.resolve(ctx, host.ID, window)
	if appErr != nil {
		return nil, appErr
	}
	resp.Dates = availService.AvailableDates(res.blocks, window, duration, s.now(), loc, res.filter.Allows)
	return resp, nil
}

// ListAvailableSlots returns the free slots of one day in the viewer's zone.
func (s *BookingService) ListAvailableSlots(ctx context.Context, hostSlug string, q AvailabilityQuery) (*dto.AvailableSlotsResponse, *errors.AppError) {
	loc := utils.LoadLocationOrUTC(q.Timezone)
	day, err := availService.ParseDay(q.Date, loc)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "date must be YYYY-MM-DD", err)
	}

	host, open, appErr := s.openHost(ctx, hostSlug)
	if appErr != nil {
		return nil, appErr
	}
	resp := &dto.AvailableSlotsResponse{Date: q.Date, Timezone: loc.String(), Slots: []dto.SlotResponse{}}
	if !open {
		return resp, nil
	}

	duration, _, appErr := s.resolveDuration(ctx, host.ID, q.MeetingTypeID, q.DurationMinutes)
	if appErr != nil {
		return nil, appErr
	}

	res, appErr := s.resolve(ctx, host.ID, day)
	if appErr != nil {
		return nil, appErr
	}
	for _, slot := range availService.AvailableSlots(res.blocks, day, duration, s.now(), res.filter.Allows) {
		resp.Slots = append(resp.Slots, dto.SlotResponse{Start: slot.Start.In(loc), End: slot.End.In(loc)})
	}
	return resp, nil
}

// openHost resolves the host and reports whether its quota leaves room.
func (s *BookingService) openHost(ctx context.Context, hostSlug string) (*hostEntity.Host, bool, *errors.AppError) {
	host, appErr := s.hosts.GetHostBySlug(ctx, hostSlug)
	if appErr != nil {
		return nil, false, appErr
	}
	quota, appErr := s.quota.GetQuotaStatus(ctx, host.ID)
	if appErr != nil {
		return nil, false, appErr
	}
	return host, !quota.IsExceeded, nil
}

func (s *BookingService) datesWindow(q AvailabilityQuery, loc *time.Location) (availEntity.TimeSlot, *errors.AppError) {
	var first availEntity.TimeSlot
	if q.From == "" {
		first = availService.DayWindow(s.now(), loc)
	} else {
		d, err := availService.ParseDay(q.From, loc)
		if err != nil {
			return availEntity.TimeSlot{}, errors.NewAppError(errors.ErrInvalidInput, "from must be YYYY-MM-DD", err)
		}
		first = d
	}

	last := availService.DayWindow(first.Start.AddDate(0, 0, defaultDatesSpanDays-1), loc)
	if q.To != "" {
		d, err := availService.ParseDay(q.To, loc)
		if err != nil {
			return availEntity.TimeSlot{}, errors.NewAppError(errors.ErrInvalidInput, "to must be YYYY-MM-DD", err)
		}
		last = d
	}

	window := availEntity.TimeSlot{Start: first.Start, End: last.End}
	if window.IsEmpty() {
		return availEntity.TimeSlot{}, errors.NewAppError(errors.ErrInvalidInput, "to must not be before from", nil)
	}
	if window.Duration() > constants.MaxAvailableDatesWindow {
		return availEntity.TimeSlot{}, errors.NewAppError(errors.ErrInvalidInput, "date range too large", nil)
	}
	return window, nil
}

// resolveDuration picks the slot length from the meeting type, the explicit
// duration, or the default, in that order.
func (s *BookingService) resolveDuration(ctx context.Context, hostID uuid.UUID, meetingTypeID string, minutes int) (time.Duration, *hostEntity.MeetingType, *errors.AppError) {
	if meetingTypeID != "" {
		id, ok := utils.TryParseUUID(meetingTypeID)
		if !ok {
			return 0, nil, errors.NewAppError(errors.ErrInvalidInput, "invalid meeting type id", nil)
		}
		mt, appErr := s.hosts.GetMeetingType(ctx, hostID, id)
		if appErr != nil {
			return 0, nil, appErr
		}
		return time.Duration(mt.DurationMinutes) * time.Minute, mt, nil
	}
	if minutes == 0 {
		minutes = constants.DefaultSlotDurationMinutes
	}
	if !hostEntity.IsAllowedDuration(minutes) {
		return 0, nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("duration must be one of %v minutes", hostEntity.AllowedDurations), nil)
	}
	return time.Duration(minutes) * time.Minute, nil, nil
}

type resolution struct {
	blocks []availEntity.TimeSlot
	filter *availService.ConflictFilter
}

// resolve loads availability and everything that blocks it inside window. The
// busy fetch starts first so bookings read afterwards are never older than it.
// Remote events that belong to a loaded booking are not counted as busy time;
// the booking itself decides whether the slot is taken.
func (s *BookingService) resolve(ctx context.Context, hostID uuid.UUID, window availEntity.TimeSlot) (*resolution, *errors.AppError) {
	accounts, appErr := s.calendars.Accounts(ctx, hostID)
	if appErr != nil {
		return nil, appErr
	}

	busyCh := make(chan []calEntity.BusyInterval, 1)
	go func() {
		busyCh <- s.busy.FetchBusy(ctx, accounts, window.Start, window.End)
	}()

	blocks, appErr := s.availability.BlocksInWindow(ctx, hostID, window)
	if appErr != nil {
		return nil, appErr
	}
	bookings, err := s.repo.ListConfirmedInRange(ctx, hostID, window.Start, window.End)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load bookings", err)
	}
	active := ActiveBookings(s.reconciler.Reconcile(ctx, hostID, bookings), bookings)

	own := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if b.HasRemoteEvent() {
			own[*b.RemoteEventID] = struct{}{}
		}
	}

	busy := <-busyCh
	return &resolution{
		blocks: blocks,
		filter: availService.NewConflictFilter(entity.Slots(active), busySlots(busy, own)),
	}, nil
}

func busySlots(busy []calEntity.BusyInterval, own map[string]struct{}) []availEntity.TimeSlot {
	out := make([]availEntity.TimeSlot, 0, len(busy))
	for _, b := range busy {
		if _, ok := own[b.EventID]; ok && b.EventID != "" {
			continue
		}
		out = append(out, availEntity.TimeSlot{Start: b.Start, End: b.End})
	}
	return out
}

// CreateBooking reserves a slot for a guest:
//  1. host and quota
//  2. slot length and availability coverage
//  3. under the per-host lock, re-check bookings (reconciled) and busy time
//  4. remote event on the default calendar; failure only drops the link
//  5. persist, removing the remote event again if that fails
func (s *BookingService) CreateBooking(ctx context.Context, hostSlug string, req *dto.CreateBookingRequest) (*dto.BookingResponse, *errors.AppError) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "start_time must be RFC3339", err)
	}
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "name is required", nil)
	}
	if !utils.IsValidEmail(email) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid email", nil)
	}

	host, appErr := s.hosts.GetHostBySlug(ctx, hostSlug)
	if appErr != nil {
		return nil, appErr
	}
	quota, appErr := s.quota.GetQuotaStatus(ctx, host.ID)
	if appErr != nil {
		return nil, appErr
	}
	if quota.IsExceeded {
		return nil, errors.NewAppError(errors.ErrQuotaExceeded, "host is fully booked this month", nil)
	}

	meetingTypeID := ""
	if req.MeetingTypeID != nil {
		meetingTypeID = *req.MeetingTypeID
	}
	duration, mt, appErr := s.resolveDuration(ctx, host.ID, meetingTypeID, req.DurationMinutes)
	if appErr != nil {
		return nil, appErr
	}

	slot := availEntity.TimeSlot{Start: start.UTC(), End: start.UTC().Add(duration)}
	if slot.Start.Before(s.now()) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "slot is in the past", nil)
	}
	blocks, appErr := s.availability.BlocksInWindow(ctx, host.ID, slot)
	if appErr != nil {
		return nil, appErr
	}
	if !availService.Covered(slot, blocks) {
		return nil, errors.NewAppError(errors.ErrSlotUnavailable, "slot is outside the host's availability", nil)
	}

	booking := &entity.Booking{
		ID:         uuid.New(),
		HostID:     host.ID,
		GuestName:  name,
		GuestEmail: email,
		Start:      slot.Start,
		End:        slot.End,
		Status:     entity.StatusConfirmed,
		Notes:      req.Notes,
	}
	if mt != nil {
		booking.MeetingTypeID = &mt.ID
	}

	lockCtx, cancel := context.WithTimeout(ctx, constants.BookingLockTTL)
	defer cancel()
	err = cache.WithLock(lockCtx, s.locker, constants.CachePrefixBookingLock+host.ID.String(),
		constants.BookingLockTTL, constants.LockPollInterval,
		func() error {
			res, appErr := s.resolve(lockCtx, host.ID, slot)
			if appErr != nil {
				return appErr
			}
			if !res.filter.Allows(slot) {
				return errors.NewAppError(errors.ErrSlotUnavailable, "slot is no longer available", nil)
			}

			s.attachRemoteEvent(lockCtx, host, mt, booking)

			if err := s.repo.Create(lockCtx, booking); err != nil {
				if booking.HasRemoteEvent() {
					s.deleteRemoteEvent(lockCtx, host.ID, booking.AccountKey(), *booking.RemoteEventID)
				}
				return errors.NewAppError(errors.ErrInternalServer, "failed to save booking", err)
			}
			return nil
		})
	if err != nil {
		var ae *errors.AppError
		if stderrors.As(err, &ae) {
			return nil, ae
		}
		if stderrors.Is(err, cache.ErrLockTimeout) {
			return nil, errors.NewAppError(errors.ErrSlotUnavailable, "another booking is in progress, please retry", err)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to lock host calendar", err)
	}

	logger.Info("BookingService:CreateBooking:Success", "booking_id", booking.ID, "host_id", host.ID, "remote", booking.HasRemoteEvent())
	resp := toBookingResponse(*booking)
	return &resp, nil
}

func eventSummary(mt *hostEntity.MeetingType, hostName, guestName string) string {
	if mt != nil && mt.Name != "" {
		return fmt.Sprintf("%s: %s x %s", mt.Name, hostName, guestName)
	}
	return fmt.Sprintf("Meeting %s x %s", hostName, guestName)
}

// attachRemoteEvent creates the event on the host's default calendar and links
// it to b. Any failure leaves b without a remote event.
func (s *BookingService) attachRemoteEvent(ctx context.Context, host *hostEntity.Host, mt *hostEntity.MeetingType, b *entity.Booking) {
	acc, appErr := s.calendars.DefaultAccount(ctx, host.ID)
	if appErr != nil {
		logger.Warn("BookingService:attachRemoteEvent:Account:Error", "error", appErr, "host_id", host.ID)
		return
	}
	if acc == nil {
		return
	}
	client, err := s.clients.Client(ctx, acc)
	if err != nil {
		logger.Warn("BookingService:attachRemoteEvent:Client:Error", "error", err, "host_id", host.ID)
		return
	}

	description := ""
	if b.Notes != nil {
		description = *b.Notes
	}
	callCtx, cancel := context.WithTimeout(ctx, constants.ProviderCallTimeout)
	defer cancel()
	ev, err := client.InsertEvent(callCtx, calEntity.NewEvent{
		Summary:     eventSummary(mt, host.Name, b.GuestName),
		Description: description,
		Start:       b.Start,
		End:         b.End,
		HostEmail:   acc.Email,
		GuestEmail:  b.GuestEmail,
		GuestName:   b.GuestName,
		RequestID:   b.ID.String(),
	})
	if err != nil {
		logger.Warn("BookingService:attachRemoteEvent:Insert:Error", "error", err, "host_id", host.ID)
		return
	}

	b.RemoteEventID = &ev.ID
	b.RemoteAccountKey = &acc.Key
	if ev.HangoutLink != "" {
		link := ev.HangoutLink
		b.RemoteMeetingLink = &link
	}
}

// deleteRemoteEvent removes the event inline and falls back to a queued retry.
func (s *BookingService) deleteRemoteEvent(ctx context.Context, hostID uuid.UUID, accountKey, eventID string) {
	ctx = context.WithoutCancel(ctx)
	err := s.tryDeleteRemote(ctx, hostID, accountKey, eventID)
	if err == nil {
		return
	}
	logger.Warn("BookingService:deleteRemoteEvent:Error", "error", err, "host_id", hostID, "event_id", eventID)
	if s.retries == nil {
		return
	}
	if err := s.retries.ScheduleRemoteDelete(ctx, hostID, accountKey, eventID); err != nil {
		logger.Error("BookingService:deleteRemoteEvent:Schedule:Error", "error", err, "event_id", eventID)
	}
}

// tryDeleteRemote deletes through the account that created the event. When
// that account was disconnected there is nothing left to delete with.
func (s *BookingService) tryDeleteRemote(ctx context.Context, hostID uuid.UUID, accountKey, eventID string) error {
	acc, appErr := LinkedAccount(ctx, s.calendars, hostID, accountKey)
	if appErr != nil {
		return appErr
	}
	if acc == nil {
		logger.Warn("BookingService:tryDeleteRemote:AccountGone", "host_id", hostID, "key", accountKey, "event_id", eventID)
		return nil
	}
	client, err := s.clients.Client(ctx, acc)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, constants.ProviderCallTimeout)
	defer cancel()
	if err := client.DeleteEvent(callCtx, eventID); err != nil && !stderrors.Is(err, calService.ErrEventGone) {
		return err
	}
	return nil
}

// CancelBooking removes the remote event best-effort and always deletes the
// local booking.
func (s *BookingService) CancelBooking(ctx context.Context, hostID, bookingID uuid.UUID) *errors.AppError {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load booking", err)
	}
	if b == nil || b.HostID != hostID {
		return errors.NewAppError(errors.ErrNotFound, "booking not found", nil)
	}

	if b.HasRemoteEvent() {
		s.deleteRemoteEvent(ctx, hostID, b.AccountKey(), *b.RemoteEventID)
	}
	if _, err := s.repo.Delete(ctx, bookingID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete booking", err)
	}
	logger.Info("BookingService:CancelBooking:Success", "booking_id", bookingID, "host_id", hostID)
	return nil
}

// ReconcileBookings checks the given bookings, or every upcoming booking when
// ids is empty. Ids that are unknown or belong to another host are skipped.
func (s *BookingService) ReconcileBookings(ctx context.Context, hostID uuid.UUID, ids []uuid.UUID) ([]ReconcileResult, *errors.AppError) {
	var bookings []entity.Booking
	if len(ids) == 0 {
		now := s.now()
		list, err := s.repo.ListConfirmedInRange(ctx, hostID, now, now.Add(constants.MaxAvailableDatesWindow))
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load bookings", err)
		}
		bookings = list
	} else {
		for _, id := range ids {
			b, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load booking", err)
			}
			if b == nil || b.HostID != hostID {
				continue
			}
			bookings = append(bookings, *b)
		}
	}

	results := s.reconciler.Reconcile(ctx, hostID, bookings)
	out := make([]ReconcileResult, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, results[b.ID])
	}
	return out, nil
}

// ListHostBookings returns the host's bookings in [from, to) after dropping
// those cancelled remotely.
func (s *BookingService) ListHostBookings(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]dto.BookingResponse, *errors.AppError) {
	if !from.Before(to) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "from must be before to", nil)
	}
	bookings, err := s.repo.ListConfirmedInRange(ctx, hostID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load bookings", err)
	}
	active := ActiveBookings(s.reconciler.Reconcile(ctx, hostID, bookings), bookings)

	sort.SliceStable(active, func(i, j int) bool { return active[i].Start.Before(active[j].Start) })
	out := make([]dto.BookingResponse, 0, len(active))
	for _, b := range active {
		out = append(out, toBookingResponse(b))
	}
	return out, nil
}

func toBookingResponse(b entity.Booking) dto.BookingResponse {
	resp := dto.BookingResponse{
		ID:                b.ID.String(),
		GuestName:         b.GuestName,
		GuestEmail:        b.GuestEmail,
		Start:             b.Start,
		End:               b.End,
		Status:            string(b.Status),
		RemoteEventID:     b.RemoteEventID,
		RemoteMeetingLink: b.RemoteMeetingLink,
		Notes:             b.Notes,
	}
	if b.MeetingTypeID != nil {
		id := b.MeetingTypeID.String()
		resp.MeetingTypeID = &id
	}
	return resp
}
