package models

import (
	"sort"
	"time"
)

// Reservation is the committed result of a booking attempt. PerDayAssignment
// maps canonical day keys to the resource set held on that day.
type Reservation struct {
	ID               int64              `json:"id"`
	CustomerRef      string             `json:"customer_ref"`
	OccupantCount    int64              `json:"occupant_count"`
	Status           string             `json:"status"` // active, cancelled, completed
	PerDayAssignment map[string][]int64 `json:"per_day_assignment"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Version          int64              `json:"version"`
}

// Days returns the reservation's day keys in ascending order.
func (r *Reservation) Days() []string {
	days := make([]string, 0, len(r.PerDayAssignment))
	for day := range r.PerDayAssignment {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// Occupancy is one active (resource, day) pair held by a reservation.
type Occupancy struct {
	ResourceID    int64     `json:"resource_id"`
	Date          time.Time `json:"date"`
	ReservationID int64     `json:"reservation_id"`
}
