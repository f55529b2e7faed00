package service

import (
	"sort"

	"go-booking-api/modules/availability/entity"
)

// Merge returns the minimal set of maximal non-overlapping intervals covering
// the input. Touching intervals are joined. Empty intervals are dropped. The
// input slice is not modified.
func Merge(slots []entity.TimeSlot) []entity.TimeSlot {
	items := make([]entity.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if !s.IsEmpty() {
			items = append(items, s)
		}
	}
	if len(items) == 0 {
		return nil
	}

	sortSlots(items)

	merged := []entity.TimeSlot{items[0]}
	for _, current := range items[1:] {
		last := &merged[len(merged)-1]
		if !current.Start.After(last.End) {
			if current.End.After(last.End) {
				last.End = current.End
			}
			continue
		}
		merged = append(merged, current)
	}
	return merged
}

// sortSlots orders by start, then end.
func sortSlots(slots []entity.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Start.Equal(slots[j].Start) {
			return slots[i].Start.Before(slots[j].Start)
		}
		return slots[i].End.Before(slots[j].End)
	})
}

// OverlapsAny reports whether slot strictly overlaps any interval of merged,
// which must be the output of Merge.
func OverlapsAny(slot entity.TimeSlot, merged []entity.TimeSlot) bool {
	// first interval that ends after slot starts
	i := sort.Search(len(merged), func(i int) bool {
		return merged[i].End.After(slot.Start)
	})
	return i < len(merged) && merged[i].Start.Before(slot.End)
}

// Clip intersects every interval with window and drops what falls outside.
func Clip(slots []entity.TimeSlot, window entity.TimeSlot) []entity.TimeSlot {
	out := make([]entity.TimeSlot, 0, len(slots))
	for _, s := range slots {
		c := entity.TimeSlot{Start: s.Start, End: s.End}
		if c.Start.Before(window.Start) {
			c.Start = window.Start
		}
		if c.End.After(window.End) {
			c.End = window.End
		}
		if !c.IsEmpty() {
			out = append(out, c)
		}
	}
	return out
}

// Subtract removes cut from base. The result is merged.
func Subtract(base, cut []entity.TimeSlot) []entity.TimeSlot {
	remaining := Merge(base)
	cuts := Merge(cut)
	if len(cuts) == 0 {
		return remaining
	}

	var out []entity.TimeSlot
	j := 0
	for _, b := range remaining {
		cur := b
		for j < len(cuts) && !cuts[j].End.After(cur.Start) {
			j++
		}
		k := j
		for k < len(cuts) && cuts[k].Start.Before(cur.End) {
			c := cuts[k]
			if c.Start.After(cur.Start) {
				out = append(out, entity.TimeSlot{Start: cur.Start, End: c.Start})
			}
			if !c.End.Before(cur.End) {
				cur.Start = cur.End
				break
			}
			cur.Start = c.End
			k++
		}
		if !cur.IsEmpty() {
			out = append(out, cur)
		}
	}
	return out
}
