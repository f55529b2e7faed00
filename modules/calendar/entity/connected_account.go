package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConnectedAccount is one external calendar a host has linked.
// Tokens are plaintext here; the repository seals them at rest.
type ConnectedAccount struct {
	Key          string    `db:"key" json:"key"`
	HostID       uuid.UUID `db:"host_id" json:"host_id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Email        string    `db:"email" json:"email"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	IsDefault    bool      `db:"is_default" json:"is_default"`
	ConnectedAt  time.Time `db:"connected_at" json:"connected_at"`
}

// HasCredentials reports whether a usable token can be produced for the account.
func (a *ConnectedAccount) HasCredentials() bool {
	return a.AccessToken != "" || a.RefreshToken != ""
}

// NeedsRefresh is true when the access token is missing or expires within margin.
// A zero expiry means the provider did not report one.
func (a *ConnectedAccount) NeedsRefresh(now time.Time, margin time.Duration) bool {
	if a.AccessToken == "" {
		return a.RefreshToken != ""
	}
	if a.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(a.ExpiresAt)
}

const DefaultBusyTitle = "Busy"

// BusyInterval is a timed event pulled from a connected calendar.
type BusyInterval struct {
	EventID            string    `json:"event_id,omitempty"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	SourceAccountEmail string    `json:"source_account_email"`
	Title              string    `json:"title"`
}

const (
	EventStatusCancelled = "cancelled"

	ResponseAccepted    = "accepted"
	ResponseDeclined    = "declined"
	ResponseTentative   = "tentative"
	ResponseNeedsAction = "needsAction"
)

type EventAttendee struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"response_status"`
}

// RemoteEvent is the subset of a provider event the booking flow inspects.
type RemoteEvent struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	HangoutLink string          `json:"hangout_link,omitempty"`
	Attendees   []EventAttendee `json:"attendees"`
}

// ResponseOf returns the attendee's response status, or "" when not on the event.
func (e *RemoteEvent) ResponseOf(email string) string {
	for _, a := range e.Attendees {
		if equalFoldEmail(a.Email, email) {
			return a.ResponseStatus
		}
	}
	return ""
}

// NewEvent describes an event to create on the host's calendar.
type NewEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	HostEmail   string
	GuestEmail  string
	GuestName   string
	RequestID   string
}
