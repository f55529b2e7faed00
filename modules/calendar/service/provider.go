package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-booking-api/core/logger"
	"go-booking-api/modules/calendar/entity"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	// ErrEventGone means the remote event was deleted or never existed.
	ErrEventGone = errors.New("remote event not found")
	// ErrProviderRejected means the provider refused the credential.
	ErrProviderRejected = errors.New("provider rejected credential")
)

// RemoteCalendar is the host-calendar surface the booking engine uses.
type RemoteCalendar interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]entity.BusyInterval, error)
	InsertEvent(ctx context.Context, ev entity.NewEvent) (*entity.RemoteEvent, error)
	GetEvent(ctx context.Context, eventID string) (*entity.RemoteEvent, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// ClientFactory builds a RemoteCalendar bound to one access token.
type ClientFactory func(ctx context.Context, token *oauth2.Token) (RemoteCalendar, error)

const primaryCalendar = "primary"

type googleCalendar struct {
	svc *calendar.Service
}

// NewGoogleCalendar is the ClientFactory for Google Calendar.
func NewGoogleCalendar(ctx context.Context, token *oauth2.Token) (RemoteCalendar, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("calendar client: %w", err)
	}
	return &googleCalendar{svc: svc}, nil
}

// ListEvents returns timed events overlapping [from, to). All-day and
// cancelled events are skipped.
func (g *googleCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]entity.BusyInterval, error) {
	var out []entity.BusyInterval
	call := g.svc.Events.List(primaryCalendar).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, ev := range page.Items {
			if ev.Status == entity.EventStatusCancelled || ev.Start == nil || ev.End == nil {
				continue
			}
			if ev.Start.DateTime == "" || ev.End.DateTime == "" {
				continue
			}
			start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
			if err != nil {
				logger.Warn("GoogleCalendar:ListEvents:BadStart", "event_id", ev.Id, "error", err)
				continue
			}
			end, err := time.Parse(time.RFC3339, ev.End.DateTime)
			if err != nil {
				logger.Warn("GoogleCalendar:ListEvents:BadEnd", "event_id", ev.Id, "error", err)
				continue
			}
			title := ev.Summary
			if title == "" {
				title = entity.DefaultBusyTitle
			}
			out = append(out, entity.BusyInterval{EventID: ev.Id, Start: start, End: end, Title: title})
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// InsertEvent creates the event with a Meet link, notifies attendees and marks
// the host as accepted.
func (g *googleCalendar) InsertEvent(ctx context.Context, ne entity.NewEvent) (*entity.RemoteEvent, error) {
	ev := &calendar.Event{
		Summary:     ne.Summary,
		Description: ne.Description,
		Start:       &calendar.EventDateTime{DateTime: ne.Start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: ne.End.Format(time.RFC3339), TimeZone: "UTC"},
		Attendees: []*calendar.EventAttendee{
			{Email: ne.HostEmail, ResponseStatus: entity.ResponseAccepted},
			{Email: ne.GuestEmail, DisplayName: ne.GuestName},
		},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             ne.RequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
	}

	created, err := g.svc.Events.Insert(primaryCalendar, ev).
		SendUpdates("all").
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}
	return toRemoteEvent(created), nil
}

func (g *googleCalendar) GetEvent(ctx context.Context, eventID string) (*entity.RemoteEvent, error) {
	ev, err := g.svc.Events.Get(primaryCalendar, eventID).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	return toRemoteEvent(ev), nil
}

func (g *googleCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	err := g.svc.Events.Delete(primaryCalendar, eventID).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return classify(err)
	}
	return nil
}

func toRemoteEvent(ev *calendar.Event) *entity.RemoteEvent {
	out := &entity.RemoteEvent{ID: ev.Id, Status: ev.Status, HangoutLink: ev.HangoutLink}
	for _, a := range ev.Attendees {
		if a == nil {
			continue
		}
		out.Attendees = append(out.Attendees, entity.EventAttendee{Email: a.Email, ResponseStatus: a.ResponseStatus})
	}
	return out
}

// classify maps provider failures onto the sentinel errors callers branch on.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %v", ErrEventGone, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrProviderRejected, err)
		}
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	return err
}
