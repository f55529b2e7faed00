package dto

type BookingLinkResponse struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

type CreateMeetingTypeRequest struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Description     *string `json:"description,omitempty"`
	IsDefault       bool    `json:"is_default"`
}

type MeetingTypeResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	DurationMinutes int     `json:"duration_minutes"`
	Description     *string `json:"description,omitempty"`
	IsDefault       bool    `json:"is_default"`
}
