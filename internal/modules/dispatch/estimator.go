// README: Location estimator infers where a technician is expected to be at a
// given instant from their appointment itinerary for that day.
package dispatch

import (
	"context"
	"errors"
	"time"

	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/technician"
	"fieldops/internal/types"
)

var (
	// ErrUnknownTechnician signals the technician record could not be found.
	ErrUnknownTechnician = errors.New("unknown technician")
	// ErrNoEstimate signals the technician has no usable coordinates at all.
	ErrNoEstimate = errors.New("no location estimate available")
)

// TechnicianDirectory is the read-only slice of the technician store the
// dispatch engine needs.
type TechnicianDirectory interface {
	Get(ctx context.Context, id int64) (*technician.Technician, error)
	ListBySkill(ctx context.Context, serviceType string) ([]technician.Technician, error)
}

// ScheduleReader returns a technician's appointments for a UTC calendar day,
// sorted ascending by start time. The estimator relies on that ordering and
// does not enforce non-overlap.
type ScheduleReader interface {
	ListForTechnicianOnDate(ctx context.Context, techID int64, day time.Time) ([]appointment.Appointment, error)
}

type Estimator struct {
	techs    TechnicianDirectory
	schedule ScheduleReader
}

func NewEstimator(techs TechnicianDirectory, schedule ScheduleReader) *Estimator {
	return &Estimator{techs: techs, schedule: schedule}
}

// EstimateLocation predicts where a technician will be at the given instant.
// The instant is normalized to UTC before any comparison against stored
// schedule timestamps. The walk assumes a technician lingers at the last job
// site until departing for the next one:
//
//   - no appointments that day, or before the first start: home coordinates
//   - inside an appointment's [start, end]: that job's coordinates
//   - in a gap between appointments: the previous job's coordinates
//   - after the last appointment ends: the last job's coordinates
func (e *Estimator) EstimateLocation(ctx context.Context, techID int64, at time.Time) (types.Point, error) {
	tech, err := e.techs.Get(ctx, techID)
	if err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return types.Point{}, ErrUnknownTechnician
		}
		return types.Point{}, err
	}
	return e.estimate(ctx, tech, at)
}

// EstimateFor is EstimateLocation for an already-loaded technician record,
// so the matcher does not refetch every candidate.
func (e *Estimator) EstimateFor(ctx context.Context, tech *technician.Technician, at time.Time) (types.Point, error) {
	return e.estimate(ctx, tech, at)
}

func (e *Estimator) estimate(ctx context.Context, tech *technician.Technician, at time.Time) (types.Point, error) {
	if tech.Home == nil {
		return types.Point{}, ErrNoEstimate
	}
	home := *tech.Home

	at = at.UTC()
	appts, err := e.schedule.ListForTechnicianOnDate(ctx, tech.ID, at)
	if err != nil {
		return types.Point{}, err
	}

	// Appointments without job coordinates cannot anchor an estimate.
	located := appts[:0:0]
	for _, a := range appts {
		if a.Location != nil {
			located = append(located, a)
		}
	}
	if len(located) == 0 {
		return home, nil
	}

	for i, a := range located {
		if at.Before(a.StartTime) {
			if i == 0 {
				return home, nil
			}
			return *located[i-1].Location, nil
		}
		if !at.After(a.EndTime) {
			return *a.Location, nil
		}
	}
	return *located[len(located)-1].Location, nil
}
