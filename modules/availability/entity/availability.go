package entity

import (
	"time"

	"github.com/google/uuid"
)

// TimeSlot is the half-open interval [Start, End).
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (t TimeSlot) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// IsEmpty reports zero-length and inverted intervals.
func (t TimeSlot) IsEmpty() bool {
	return !t.End.After(t.Start)
}

// Overlaps is strict: intervals that only touch do not overlap.
func (t TimeSlot) Overlaps(o TimeSlot) bool {
	return t.Start.Before(o.End) && t.End.After(o.Start)
}

func (t TimeSlot) Contains(o TimeSlot) bool {
	return !o.Start.Before(t.Start) && !o.End.After(t.End)
}

// AvailabilityBlock is a host-declared open interval.
type AvailabilityBlock struct {
	ID        uuid.UUID `db:"id" json:"id"`
	HostID    uuid.UUID `db:"host_id" json:"host_id"`
	Start     time.Time `db:"start_time" json:"start"`
	End       time.Time `db:"end_time" json:"end"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (b AvailabilityBlock) Slot() TimeSlot {
	return TimeSlot{Start: b.Start, End: b.End}
}

func BlockSlots(blocks []AvailabilityBlock) []TimeSlot {
	out := make([]TimeSlot, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Slot())
	}
	return out
}
