package models

import "time"

// StayWindow is the inclusive [arrival, departure] range of a guest's stay.
type StayWindow struct {
	Arrival   time.Time `json:"arrival"`
	Departure time.Time `json:"departure"`
}

// Contains reports whether the day falls inside the window.
func (w StayWindow) Contains(day time.Time) bool {
	key := DayKey(day)
	return key >= DayKey(w.Arrival) && key <= DayKey(w.Departure)
}

// ActiveReservationRef points at one of the customer's active reservations
// and the days it covers, for duplicate-booking detection.
type ActiveReservationRef struct {
	ReservationID int64    `json:"reservation_id"`
	Days          []string `json:"days"`
}

// CustomerInfo is the resolved view of a customer reference. StayWindow is
// nil when the directory has no stay on file for the reference.
type CustomerInfo struct {
	Ref                string                 `json:"ref"`
	Name               string                 `json:"name"`
	StayWindow         *StayWindow            `json:"stay_window,omitempty"`
	ActiveReservations []ActiveReservationRef `json:"active_reservations,omitempty"`
}

// Guest is the stored backing record of the customer directory.
type Guest struct {
	Ref       string    `json:"ref"`
	Name      string    `json:"name"`
	Arrival   time.Time `json:"arrival"`
	Departure time.Time `json:"departure"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
