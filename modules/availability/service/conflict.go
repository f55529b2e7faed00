package service

import (
	"iter"

	"go-booking-api/modules/availability/entity"
)

// ConflictFilter rejects candidates that strictly overlap any taken interval.
// Inputs are merged once, so each check is a binary search.
type ConflictFilter struct {
	taken []entity.TimeSlot
}

// NewConflictFilter accepts any number of interval sources, typically
// confirmed bookings and remote busy intervals.
func NewConflictFilter(sources ...[]entity.TimeSlot) *ConflictFilter {
	var all []entity.TimeSlot
	for _, src := range sources {
		all = append(all, src...)
	}
	return &ConflictFilter{taken: Merge(all)}
}

func (f *ConflictFilter) Allows(slot entity.TimeSlot) bool {
	return !OverlapsAny(slot, f.taken)
}

func (f *ConflictFilter) Filter(candidates iter.Seq[entity.TimeSlot]) []entity.TimeSlot {
	out := []entity.TimeSlot{}
	for slot := range candidates {
		if f.Allows(slot) {
			out = append(out, slot)
		}
	}
	return out
}
