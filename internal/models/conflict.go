package models

import (
	"strconv"
	"time"
)

// ConflictReason classifies why a (resource, day) pair is unavailable.
type ConflictReason string

const (
	ReasonOccupied    ConflictReason = "occupied"
	ReasonBlocked     ConflictReason = "blocked"
	ReasonOutOfWindow ConflictReason = "out_of_window"
)

// Conflict is an immutable (resource, day) unavailability record.
type Conflict struct {
	ResourceID int64          `json:"resource_id"`
	Date       time.Time      `json:"date"`
	Reason     ConflictReason `json:"reason"`
}

// Key identifies a conflict for deduplication.
func (c Conflict) Key() string {
	return DayKey(c.Date) + ":" + string(c.Reason) + ":" + strconv.FormatInt(c.ResourceID, 10)
}

// MergeConflicts unions two conflict lists, dropping duplicates and keeping
// input order.
func MergeConflicts(existing, fresh []Conflict) []Conflict {
	seen := make(map[string]bool, len(existing)+len(fresh))
	out := make([]Conflict, 0, len(existing)+len(fresh))
	for _, list := range [][]Conflict{existing, fresh} {
		for _, c := range list {
			if seen[c.Key()] {
				continue
			}
			seen[c.Key()] = true
			out = append(out, c)
		}
	}
	return out
}

// ConflictedDays returns the distinct day keys present in the conflict list.
func ConflictedDays(conflicts []Conflict) []string {
	seen := make(map[string]bool, len(conflicts))
	var days []string
	for _, c := range conflicts {
		key := DayKey(c.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, key)
	}
	return days
}
