package dto

import "time"

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailableDatesResponse struct {
	Dates    []string `json:"dates"`
	Timezone string   `json:"timezone"`
}

type AvailableSlotsResponse struct {
	Date     string         `json:"date"`
	Timezone string         `json:"timezone"`
	Slots    []SlotResponse `json:"slots"`
}

// CreateBookingRequest is submitted by a guest from the booking page.
type CreateBookingRequest struct {
	StartTime       string  `json:"start_time"` // RFC3339
	MeetingTypeID   *string `json:"meeting_type_id,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Notes           *string `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID                string    `json:"id"`
	GuestName         string    `json:"guest_name"`
	GuestEmail        string    `json:"guest_email"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Status            string    `json:"status"`
	MeetingTypeID     *string   `json:"meeting_type_id,omitempty"`
	RemoteEventID     *string   `json:"remote_event_id,omitempty"`
	RemoteMeetingLink *string   `json:"remote_meeting_link,omitempty"`
	Notes             *string   `json:"notes,omitempty"`
}

type ReconcileRequest struct {
	BookingIDs []string `json:"booking_ids"`
}
