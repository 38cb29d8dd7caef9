// README: Appointment aggregate and status definitions.
package appointment

import (
	"time"

	"fieldops/internal/types"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

type Appointment struct {
	ID              string
	CalendarEventID string
	TechnicianID    *int64
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	ServiceType     string
	Address         string
	Location        *types.Point
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Status          Status
	Notes           string
	CreatedAt       time.Time
}

// AllowedTransitions represents the appointment lifecycle as code.
// Completed, cancelled, and no-show are terminal; only notes may change after.
var AllowedTransitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
