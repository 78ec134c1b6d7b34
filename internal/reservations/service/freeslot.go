package service

import (
	"sort"
	"time"

	"roomly/pkg/model"
)

// interval is a half-open [start, end) time range used for clipped busy
// segments and computed gaps. It has no identity of its own.
type interval struct {
	start time.Time
	end   time.Time
}

// computeFreeSlots returns every maximal free window within
// [rangeStart, rangeEnd) that lasts at least minHours. Bookings touching
// the range are clipped to it, folded into non-overlapping busy intervals
// (adjacency counts as continuous busy time), and the gaps between them
// are emitted in chronological order.
func computeFreeSlots(bookings []*model.Booking, rangeStart, rangeEnd time.Time, minHours float64) []model.FreeSlot {
	busy := clipToRange(bookings, rangeStart, rangeEnd)
	busy = mergeBusyIntervals(busy)

	minDuration := time.Duration(minHours * float64(time.Hour))
	slots := make([]model.FreeSlot, 0)

	cursor := rangeStart
	for _, b := range busy {
		if cursor.Before(b.start) {
			slots = appendIfLongEnough(slots, cursor, b.start, minDuration)
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if cursor.Before(rangeEnd) {
		slots = appendIfLongEnough(slots, cursor, rangeEnd, minDuration)
	}

	return slots
}

func clipToRange(bookings []*model.Booking, rangeStart, rangeEnd time.Time) []interval {
	clipped := make([]interval, 0, len(bookings))
	for _, b := range bookings {
		if !b.StartTime.Before(rangeEnd) || !b.EndTime.After(rangeStart) {
			continue
		}
		start := b.StartTime
		if start.Before(rangeStart) {
			start = rangeStart
		}
		end := b.EndTime
		if end.After(rangeEnd) {
			end = rangeEnd
		}
		if !start.Before(end) {
			continue
		}
		clipped = append(clipped, interval{start: start, end: end})
	}
	return clipped
}

// mergeBusyIntervals folds sorted intervals into a minimal set of
// non-overlapping, non-adjacent busy blocks. An interval starting at or
// before the current block's end extends it; touching intervals merge.
func mergeBusyIntervals(intervals []interval) []interval {
	if len(intervals) == 0 {
		return intervals
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start.Before(intervals[j].start)
	})

	merged := []interval{intervals[0]}
	for _, current := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !current.start.After(last.end) {
			if current.end.After(last.end) {
				last.end = current.end
			}
			continue
		}
		merged = append(merged, current)
	}
	return merged
}

// appendIfLongEnough emits the gap [start, end) when its duration meets the
// minimum; a gap exactly equal to the minimum is included.
func appendIfLongEnough(slots []model.FreeSlot, start, end time.Time, minDuration time.Duration) []model.FreeSlot {
	gap := end.Sub(start)
	if gap < minDuration {
		return slots
	}
	return append(slots, model.FreeSlot{
		StartTime:     start,
		EndTime:       end,
		DurationHours: gap.Hours(),
	})
}
