package models

// AvailabilityReport is the full result of an availability matrix check.
// Conflicts holds one entry per violating (resource, day) pair.
type AvailabilityReport struct {
	AllAvailable bool       `json:"all_available"`
	Conflicts    []Conflict `json:"conflicts,omitempty"`
}

// ContiguityReport describes whether a selection leaves holes in its zone
// row. CrossZone is set when the selection spans more than one zone; such a
// selection is never contiguous.
type ContiguityReport struct {
	IsContiguous bool `json:"is_contiguous"`
	GapCount     int  `json:"gap_count"`
	CrossZone    bool `json:"cross_zone,omitempty"`
}

// CommitResult is the outcome of an atomic commit attempt. On failure the
// conflict list is complete and fresh, suitable for feeding the resolution
// loop.
type CommitResult struct {
	Success       bool       `json:"success"`
	ReservationID int64      `json:"reservation_id,omitempty"`
	Conflicts     []Conflict `json:"conflicts,omitempty"`
}
