package entity

import (
	"github.com/google/uuid"
	"go-booking-api/core/entity"
)

type Host struct {
	entity.BaseEntity
	Name     string  `db:"name" json:"name"`
	Email    string  `db:"email" json:"email"`
	Slug     *string `db:"slug" json:"slug,omitempty"`
	Plan     string  `db:"plan" json:"plan"`
	Timezone string  `db:"timezone" json:"timezone"`
}

// MeetingType is a bookable meeting template of a host.
type MeetingType struct {
	entity.BaseEntity
	HostID          uuid.UUID `db:"host_id" json:"host_id"`
	Name            string    `db:"name" json:"name"`
	Slug            string    `db:"slug" json:"slug"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Description     *string   `db:"description" json:"description,omitempty"`
	IsDefault       bool      `db:"is_default" json:"is_default"`
}

// AllowedDurations lists the meeting lengths a host can offer, in minutes.
var AllowedDurations = []int{15, 30, 45, 60, 90}

func IsAllowedDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}
