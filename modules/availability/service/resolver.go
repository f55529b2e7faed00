package service

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"go-booking-api/modules/availability/entity"
)

const DateLayout = "2006-01-02"

// SlotFilter decides whether a candidate slot survives conflict checks.
// A nil filter accepts every slot.
type SlotFilter func(entity.TimeSlot) bool

// DayWindow returns [midnight, next midnight) of the calendar day containing
// t in loc.
func DayWindow(t time.Time, loc *time.Location) entity.TimeSlot {
	y, m, d := t.In(loc).Date()
	return entity.TimeSlot{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d+1, 0, 0, 0, 0, loc),
	}
}

// ParseDay parses a YYYY-MM-DD date as a day window in loc.
func ParseDay(date string, loc *time.Location) (entity.TimeSlot, error) {
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return entity.TimeSlot{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return DayWindow(t, loc), nil
}

// DaySlots lazily yields the candidate slots of one day. Each block is clipped
// to the day and stepped by duration from its clipped start. A slot is yielded
// only if it fits in the clipped block and does not start before now. The same
// start is yielded once even when blocks overlap.
func DaySlots(blocks []entity.TimeSlot, day entity.TimeSlot, duration time.Duration, now time.Time) iter.Seq[entity.TimeSlot] {
	return func(yield func(entity.TimeSlot) bool) {
		if duration <= 0 {
			return
		}
		clipped := Clip(blocks, day)
		sortSlots(clipped)

		seen := make(map[int64]struct{})
		for _, block := range clipped {
			for start := block.Start; !start.Add(duration).After(block.End); start = start.Add(duration) {
				if start.Before(now) {
					continue
				}
				key := start.UnixNano()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				if !yield(entity.TimeSlot{Start: start, End: start.Add(duration)}) {
					return
				}
			}
		}
	}
}

// HasAvailableSlot stops at the first slot accepted by allow.
func HasAvailableSlot(blocks []entity.TimeSlot, day entity.TimeSlot, duration time.Duration, now time.Time, allow SlotFilter) bool {
	for slot := range DaySlots(blocks, day, duration, now) {
		if allow == nil || allow(slot) {
			return true
		}
	}
	return false
}

// AvailableSlots returns the accepted slots of one day ordered by start.
func AvailableSlots(blocks []entity.TimeSlot, day entity.TimeSlot, duration time.Duration, now time.Time, allow SlotFilter) []entity.TimeSlot {
	out := []entity.TimeSlot{}
	for slot := range DaySlots(blocks, day, duration, now) {
		if allow == nil || allow(slot) {
			out = append(out, slot)
		}
	}
	sortSlots(out)
	return out
}

// AvailableDates lists the days of window, in loc, that have at least one
// accepted slot. Days are clipped to window.
func AvailableDates(blocks []entity.TimeSlot, window entity.TimeSlot, duration time.Duration, now time.Time, loc *time.Location, allow SlotFilter) []string {
	dates := []string{}
	if window.IsEmpty() || duration <= 0 {
		return dates
	}
	for day := DayWindow(window.Start, loc); day.Start.Before(window.End); day = DayWindow(day.End, loc) {
		// days that ended before now cannot yield anything
		if !day.End.After(now) {
			continue
		}
		bounded := Clip([]entity.TimeSlot{day}, window)
		if len(bounded) == 0 {
			continue
		}
		if HasAvailableSlot(blocks, bounded[0], duration, now, allow) {
			dates = append(dates, day.Start.Format(DateLayout))
		}
	}
	return dates
}

// Covered reports whether slot lies entirely inside one of the merged blocks.
func Covered(slot entity.TimeSlot, blocks []entity.TimeSlot) bool {
	merged := Merge(blocks)
	i := sort.Search(len(merged), func(i int) bool {
		return merged[i].End.After(slot.Start)
	})
	return i < len(merged) && merged[i].Contains(slot)
}
