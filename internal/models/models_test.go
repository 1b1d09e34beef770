package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDateSet(t *testing.T) {
	t.Run("NormalizesAndSorts", func(t *testing.T) {
		loc := time.FixedZone("CEST", 2*3600)
		ds := NewDateSet([]time.Time{
			time.Date(2026, 7, 7, 14, 30, 0, 0, loc),
			time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 7, 5, 23, 59, 59, 0, time.UTC),
			time.Date(2026, 7, 6, 8, 0, 0, 0, time.UTC),
		})

		assert.Equal(t, []string{"2026-07-05", "2026-07-06", "2026-07-07"}, ds.Keys())
		for _, d := range ds {
			assert.Equal(t, 0, d.Hour())
			assert.Equal(t, time.UTC, d.Location())
		}
	})

	t.Run("Contains", func(t *testing.T) {
		ds := NewDateSet([]time.Time{time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)})
		assert.True(t, ds.Contains(time.Date(2026, 7, 5, 18, 0, 0, 0, time.UTC)))
		assert.False(t, ds.Contains(time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, NewDateSet(nil))
	})
}

func TestMergeConflicts(t *testing.T) {
	day := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)
	a := Conflict{ResourceID: 1, Date: day, Reason: ReasonOccupied}
	b := Conflict{ResourceID: 2, Date: day, Reason: ReasonBlocked}

	t.Run("DropsDuplicates", func(t *testing.T) {
		merged := MergeConflicts([]Conflict{a, b}, []Conflict{a})
		assert.Len(t, merged, 2)
	})

	t.Run("KeepsInputOrder", func(t *testing.T) {
		merged := MergeConflicts([]Conflict{b}, []Conflict{a})
		assert.Equal(t, []Conflict{b, a}, merged)
	})

	t.Run("SameResourceDifferentReasonKept", func(t *testing.T) {
		c := Conflict{ResourceID: 1, Date: day, Reason: ReasonBlocked}
		merged := MergeConflicts([]Conflict{a}, []Conflict{c})
		assert.Len(t, merged, 2)
	})
}

func TestConflictedDays(t *testing.T) {
	d1 := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	days := ConflictedDays([]Conflict{
		{ResourceID: 1, Date: d1, Reason: ReasonOccupied},
		{ResourceID: 2, Date: d1, Reason: ReasonOccupied},
		{ResourceID: 1, Date: d2, Reason: ReasonBlocked},
	})
	assert.Equal(t, []string{"2026-07-05", "2026-07-06"}, days)
}

func TestResolutionStateResolvable(t *testing.T) {
	day := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	state := &ResolutionState{
		PerDateAssignment: map[string][]int64{
			"2026-07-05": {1, 2},
			"2026-07-06": {1, 2},
		},
		PendingConflicts: []Conflict{{ResourceID: 1, Date: day, Reason: ReasonOccupied}},
	}

	// The conflicted day carries the defaulted selection but no explicit
	// substitution yet.
	assert.False(t, state.Resolvable())

	state.PerDateAssignment["2026-07-06"] = []int64{3}
	state.MarkSubstituted("2026-07-06")
	assert.True(t, state.Resolvable())

	// An explicit but empty substitution is not resolvable either.
	state.PerDateAssignment["2026-07-06"] = nil
	assert.False(t, state.Resolvable())
}

func TestBookingDraftOverrides(t *testing.T) {
	draft := &BookingDraft{}
	assert.False(t, draft.Overridden(OverrideContiguity))

	draft.AddOverride(OverrideContiguity)
	assert.True(t, draft.Overridden(OverrideContiguity))
	assert.False(t, draft.Overridden(OverrideStayWindow))
}

func TestBookingDraftDefaultAssignment(t *testing.T) {
	draft := &BookingDraft{
		ResourceIDs: []int64{1, 2},
		Dates: NewDateSet([]time.Time{
			time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
		}),
	}

	assignment := draft.DefaultAssignment()
	assert.Len(t, assignment, 2)
	assert.Equal(t, []int64{1, 2}, assignment["2026-07-05"])

	// Mutating the assignment must not touch the draft.
	assignment["2026-07-05"][0] = 99
	assert.Equal(t, int64(1), draft.ResourceIDs[0])
}

func TestResourceValidOn(t *testing.T) {
	july := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	august := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("PermanentAlwaysValid", func(t *testing.T) {
		r := Resource{ID: 1}
		assert.True(t, r.ValidOn(july))
	})

	t.Run("TemporaryWindow", func(t *testing.T) {
		r := Resource{ID: 2, IsTemporary: true, ValidFrom: "2026-07-01", ValidUntil: "2026-07-31"}
		assert.True(t, r.ValidOn(july))
		assert.False(t, r.ValidOn(august))
	})

	t.Run("OpenEndedWindow", func(t *testing.T) {
		r := Resource{ID: 3, IsTemporary: true, ValidFrom: "2026-07-01"}
		assert.True(t, r.ValidOn(august))
		assert.False(t, r.ValidOn(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)))
	})
}

func TestResourceBlockedOn(t *testing.T) {
	r := Resource{
		ID: 1,
		BlockedRanges: []BlockedRange{
			{From: "2026-07-10", Until: "2026-07-12", Reason: "repainting"},
			{From: "2026-07-20", Until: "2026-07-20"},
		},
	}

	reason, blocked := r.BlockedOn(time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC))
	assert.True(t, blocked)
	assert.Equal(t, "repainting", reason)

	reason, blocked = r.BlockedOn(time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC))
	assert.True(t, blocked)
	assert.Equal(t, "maintenance", reason)

	_, blocked = r.BlockedOn(time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC))
	assert.False(t, blocked)
}

func TestStayWindowContains(t *testing.T) {
	w := StayWindow{
		Arrival:   time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC),
		Departure: time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, w.Contains(time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2026, 7, 10, 23, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)))
}

func TestReservationDays(t *testing.T) {
	r := &Reservation{PerDayAssignment: map[string][]int64{
		"2026-07-07": {1},
		"2026-07-05": {1, 2},
	}}
	assert.Equal(t, []string{"2026-07-05", "2026-07-07"}, r.Days())
}
