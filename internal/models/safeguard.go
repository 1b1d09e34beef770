package models

// RuleName identifies a safeguard in the fixed pipeline order.
type RuleName string

const (
	RulePastDate       RuleName = "past_date"
	RuleAdvanceHorizon RuleName = "advance_horizon"
	RuleStayWindow     RuleName = "stay_window"
	RuleCapacity       RuleName = "capacity"
	RuleAvailability   RuleName = "availability"
	RuleDuplicate      RuleName = "duplicate_booking"
	RuleContiguity     RuleName = "contiguity"
)

// Block is the typed result of a safeguard that refused a draft. Hard blocks
// terminate the attempt; soft blocks name the Override that clears them.
// RouteToResolution marks multi-date availability conflicts that should
// enter the resolution protocol instead of failing.
type Block struct {
	Rule              RuleName   `json:"rule"`
	Hard              bool       `json:"hard"`
	Override          Override   `json:"override,omitempty"`
	RouteToResolution bool       `json:"route_to_resolution,omitempty"`
	Dates             []string   `json:"dates,omitempty"`
	Conflicts         []Conflict `json:"conflicts,omitempty"`
	SelectionCapacity int64      `json:"selection_capacity,omitempty"`
	OccupantCount     int64      `json:"occupant_count,omitempty"`
	GapCount          int        `json:"gap_count,omitempty"`
	ViewReservationID int64      `json:"view_reservation_id,omitempty"`
}

// EvaluationOutcome is the pipeline verdict on a draft.
type EvaluationOutcome struct {
	Proceed           bool       `json:"proceed"`
	Block             *Block     `json:"block,omitempty"`
	RouteToResolution bool       `json:"route_to_resolution,omitempty"`
	Conflicts         []Conflict `json:"conflicts,omitempty"`
	ViewReservationID int64      `json:"view_reservation_id,omitempty"`
}
