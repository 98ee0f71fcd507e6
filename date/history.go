package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values, each keyed by a Date.
// Dates are unique and the series is always sorted.
//
// The zero value is an empty, ready-to-use history.
type History[T any] struct {
	days   []Date
	values []T
}

// search locates day in the sorted days slice.
func (h *History[T]) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Append inserts a point keeping the series chronological.
// An existing value on the same day is overwritten (last write wins).
func (h *History[T]) Append(on Date, v T) *History[T] {
	i, found := h.search(on)
	if found {
		h.values[i] = v
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, v)
	return h
}

// Get returns the value exactly at day.
func (h *History[T]) Get(day Date) (T, bool) {
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	var zero T
	return zero, false
}

// AsOf returns the value on the given day, or the most recent value before
// it. The value is carried forward flat between observations, never
// interpolated and never taken from the future. It returns false when the
// day precedes the whole series.
func (h *History[T]) AsOf(day Date) (T, bool) {
	i, found := h.search(day)
	if found {
		return h.values[i], true
	}
	// i is the insertion index; the closest preceding entry is at i-1.
	if i == 0 {
		var zero T
		return zero, false
	}
	return h.values[i-1], true
}

// First returns the oldest point of the history.
func (h *History[T]) First() (Date, T) {
	if len(h.days) == 0 {
		var zero T
		return Date{}, zero
	}
	return h.days[0], h.values[0]
}

// Latest returns the newest point of the history.
func (h *History[T]) Latest() (Date, T) {
	last := len(h.days) - 1
	if last < 0 {
		var zero T
		return Date{}, zero
	}
	return h.days[last], h.values[last]
}

// Len returns the number of points in the history.
func (h *History[T]) Len() int { return len(h.days) }

// Values returns an iterator over all points in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}
