package models

import (
	"sort"
	"time"
)

// DayFormat is the canonical day representation used in storage, map keys and
// the API.
const DayFormat = "2006-01-02"

// DayKey renders a time as a canonical day string.
func DayKey(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a canonical day string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// DateSet is an ordered set of distinct calendar days. Construct it with
// NewDateSet so the invariant (ascending, deduplicated, midnight-truncated)
// holds.
type DateSet []time.Time

// NewDateSet normalizes arbitrary input dates into a DateSet.
func NewDateSet(dates []time.Time) DateSet {
	seen := make(map[string]bool, len(dates))
	out := make(DateSet, 0, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		key := DayKey(day)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Contains reports membership by calendar day.
func (ds DateSet) Contains(day time.Time) bool {
	key := DayKey(day)
	for _, d := range ds {
		if DayKey(d) == key {
			return true
		}
	}
	return false
}

// Keys returns the canonical day strings in order.
func (ds DateSet) Keys() []string {
	keys := make([]string, len(ds))
	for i, d := range ds {
		keys[i] = DayKey(d)
	}
	return keys
}
