package models

import "time"

// Resolution session phases.
const (
	PhaseAwaitingSelection = "awaiting_selection"
	PhaseRetrying          = "retrying"
	PhaseCommitted         = "committed"
	PhaseAbandoned         = "abandoned"
)

// ResolutionState is the working state of one interactive conflict-resolution
// session. It is never persisted as a reservation; it lives in the session
// repository until the caller resolves every day or abandons the attempt.
type ResolutionState struct {
	SessionID         string             `json:"session_id"`
	CustomerRef       string             `json:"customer_ref"`
	OccupantCount     int64              `json:"occupant_count"`
	OriginalSelection []int64            `json:"original_selection"`
	PerDateAssignment map[string][]int64 `json:"per_date_assignment"`
	SubstitutedDays   map[string]bool    `json:"substituted_days,omitempty"`
	PendingConflicts  []Conflict         `json:"pending_conflicts"`
	Phase             string             `json:"phase"`
	ReservationID     int64              `json:"reservation_id,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// MarkSubstituted records that the caller explicitly chose the day's
// resource set.
func (s *ResolutionState) MarkSubstituted(dayKey string) {
	if s.SubstitutedDays == nil {
		s.SubstitutedDays = make(map[string]bool)
	}
	s.SubstitutedDays[dayKey] = true
}

// ConflictedDayKeys lists the days that still carry pending conflicts.
func (s *ResolutionState) ConflictedDayKeys() []string {
	return ConflictedDays(s.PendingConflicts)
}

// Resolvable reports whether every conflicted day carries an explicit,
// non-empty substitute set, the precondition for a retry. Assignments
// default to the original selection, so the day must also be marked
// substituted; the defaulted set is what just conflicted.
func (s *ResolutionState) Resolvable() bool {
	for _, day := range s.ConflictedDayKeys() {
		if !s.SubstitutedDays[day] || len(s.PerDateAssignment[day]) == 0 {
			return false
		}
	}
	return true
}
