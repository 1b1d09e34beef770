package models

// Override names a soft safeguard the caller has explicitly acknowledged.
type Override string

const (
	OverrideStayWindow       Override = "stay_window"
	OverrideCapacityShortage Override = "capacity_shortage"
	OverrideCapacityExcess   Override = "capacity_excess"
	OverrideDuplicate        Override = "duplicate_booking"
	OverrideContiguity       Override = "contiguity"
)

// BookingDraft is an in-progress, uncommitted booking attempt. The caller
// mutates it between safeguard runs; it is discarded after commit or abort.
type BookingDraft struct {
	CustomerRef   string            `json:"customer_ref"`
	ResourceIDs   []int64           `json:"resource_ids"`
	Dates         DateSet           `json:"dates"`
	OccupantCount int64             `json:"occupant_count"`
	Overrides     map[Override]bool `json:"overrides,omitempty"`
}

// Overridden reports whether the caller acknowledged the given safeguard.
func (d *BookingDraft) Overridden(o Override) bool {
	return d.Overrides[o]
}

// AddOverride records an acknowledged safeguard on the draft.
func (d *BookingDraft) AddOverride(o Override) {
	if d.Overrides == nil {
		d.Overrides = make(map[Override]bool)
	}
	d.Overrides[o] = true
}

// DefaultAssignment maps every draft day to the full requested selection.
// Resolution starts from this and substitutes per-day sets.
func (d *BookingDraft) DefaultAssignment() map[string][]int64 {
	assignment := make(map[string][]int64, len(d.Dates))
	for _, day := range d.Dates {
		ids := make([]int64, len(d.ResourceIDs))
		copy(ids, d.ResourceIDs)
		assignment[DayKey(day)] = ids
	}
	return assignment
}
