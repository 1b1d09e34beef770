package models

import "time"

// Resource is a bookable furniture item tied to a zone. SeqIndex is its
// position along the zone's ordering axis and drives contiguity analysis.
type Resource struct {
	ID            int64          `yaml:"id" json:"id"`
	ZoneID        string         `yaml:"zone_id" json:"zone_id"`
	Name          string         `yaml:"name" json:"name"`
	SeqIndex      int64          `yaml:"seq_index" json:"seq_index"`
	Capacity      int64          `yaml:"capacity" json:"capacity"`
	IsTemporary   bool           `yaml:"is_temporary" json:"is_temporary"`
	ValidFrom     string         `yaml:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidUntil    string         `yaml:"valid_until,omitempty" json:"valid_until,omitempty"`
	IsActive      bool           `yaml:"is_active" json:"is_active"`
	BlockedRanges []BlockedRange `yaml:"blocked_ranges,omitempty" json:"blocked_ranges,omitempty"`
}

// BlockedRange marks a maintenance or hold window, inclusive on both ends.
// Days use the YYYY-MM-DD form everywhere.
type BlockedRange struct {
	From   string `yaml:"from" json:"from"`
	Until  string `yaml:"until" json:"until"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// ValidOn reports whether the resource may be booked on the given day at all.
// Permanent resources are always inside their validity window.
func (r Resource) ValidOn(day time.Time) bool {
	if !r.IsTemporary {
		return true
	}
	key := DayKey(day)
	if r.ValidFrom != "" && key < r.ValidFrom {
		return false
	}
	if r.ValidUntil != "" && key > r.ValidUntil {
		return false
	}
	return true
}

// BlockedOn returns the blocking reason when the day falls inside a blocked
// range.
func (r Resource) BlockedOn(day time.Time) (string, bool) {
	key := DayKey(day)
	for _, br := range r.BlockedRanges {
		if key >= br.From && key <= br.Until {
			reason := br.Reason
			if reason == "" {
				reason = "maintenance"
			}
			return reason, true
		}
	}
	return "", false
}
