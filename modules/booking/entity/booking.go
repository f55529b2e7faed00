package entity

import (
	"time"

	availability "go-booking-api/modules/availability/entity"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking is a guest reservation. Cancelled bookings are hard-deleted, so a
// stored row is normally confirmed.
type Booking struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	HostID            uuid.UUID     `db:"host_id" json:"host_id"`
	MeetingTypeID     *uuid.UUID    `db:"meeting_type_id" json:"meeting_type_id,omitempty"`
	GuestName         string        `db:"guest_name" json:"guest_name"`
	GuestEmail        string        `db:"guest_email" json:"guest_email"`
	Start             time.Time     `db:"start_time" json:"start"`
	End               time.Time     `db:"end_time" json:"end"`
	RemoteEventID     *string       `db:"remote_event_id" json:"remote_event_id,omitempty"`
	RemoteMeetingLink *string       `db:"remote_meeting_link" json:"remote_meeting_link,omitempty"`
	RemoteAccountKey  *string       `db:"remote_account_key" json:"-"`
	Status            BookingStatus `db:"status" json:"status"`
	Notes             *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
}

func (b Booking) Slot() availability.TimeSlot {
	return availability.TimeSlot{Start: b.Start, End: b.End}
}

func (b Booking) HasRemoteEvent() bool {
	return b.RemoteEventID != nil && *b.RemoteEventID != ""
}

// AccountKey is the calendar account holding the remote event. Empty for
// bookings linked before the key was stored.
func (b Booking) AccountKey() string {
	if b.RemoteAccountKey == nil {
		return ""
	}
	return *b.RemoteAccountKey
}

func Slots(bookings []Booking) []availability.TimeSlot {
	out := make([]availability.TimeSlot, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Slot())
	}
	return out
}
