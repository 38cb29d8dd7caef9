// README: Availability matcher scores and ranks technicians for a requested job.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"fieldops/internal/config"
	"fieldops/internal/metrics"
)

type Service struct {
	techs     TechnicianDirectory
	estimator *Estimator
	cfg       config.DispatchConfig
}

func NewService(techs TechnicianDirectory, estimator *Estimator, cfg config.DispatchConfig) *Service {
	return &Service{techs: techs, estimator: estimator, cfg: cfg}
}

// Match selects the technician best positioned to take a job. Failures while
// scoring a single candidate are isolated to that candidate; only pool-level
// failures (store unreachable) return a non-nil error.
//
// Every in-radius candidate is treated as calendar-available: the engine does
// not consult the technician's own schedule for conflicts at the requested
// instant. Alternative slots are proposals, not guarantees.
func (s *Service) Match(ctx context.Context, req Request) (Decision, error) {
	start := time.Now()
	defer func() {
		metrics.DispatchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	at := req.RequestedAt.UTC()

	techs, err := s.techs.ListBySkill(ctx, req.ServiceType)
	if err != nil {
		metrics.DispatchRequestsTotal.WithLabelValues("error").Inc()
		return Decision{}, fmt.Errorf("list technicians for %q: %w", req.ServiceType, err)
	}
	if len(techs) == 0 {
		metrics.DispatchRequestsTotal.WithLabelValues("no_technicians").Inc()
		return Decision{Available: false, Reason: ReasonNoTechnicians}, nil
	}
	metrics.CandidatesEvaluated.Observe(float64(len(techs)))

	candidates := make([]candidate, 0, len(techs))
	for i := range techs {
		t := &techs[i]
		if err := ctx.Err(); err != nil {
			metrics.DispatchRequestsTotal.WithLabelValues("error").Inc()
			return Decision{}, err
		}

		loc, err := s.estimator.EstimateFor(ctx, t, at)
		if err != nil {
			if t.Home == nil {
				// Cannot place this technician anywhere; skip rather than
				// abort the whole dispatch over one bad record.
				log.Printf("op=match tech=%d skipped=no_coordinates err=%v", t.ID, err)
				continue
			}
			log.Printf("op=match tech=%d estimate_err=%v fallback=home", t.ID, err)
			loc = *t.Home
		}

		radius := t.MaxRadiusMiles
		if radius <= 0 {
			radius = s.cfg.DefaultRadiusMiles
		}

		d := Miles(loc.Lat, loc.Lng, req.Job.Lat, req.Job.Lng)
		if d > radius {
			log.Printf("op=match tech=%d out_of_range distance_mi=%.2f radius_mi=%.0f", t.ID, d, radius)
			continue
		}

		candidates = append(candidates, candidate{
			id:        t.ID,
			name:      t.Name,
			distance:  d,
			available: true,
		})
	}

	if len(candidates) == 0 {
		metrics.DispatchRequestsTotal.WithLabelValues("out_of_range").Inc()
		return Decision{Available: false, Reason: ReasonOutOfRange}, nil
	}

	rankCandidates(candidates)
	best := candidates[0]

	chosen := &RankedTechnician{ID: best.id, Name: best.name, DistanceMiles: best.distance}
	if best.available {
		metrics.DispatchRequestsTotal.WithLabelValues("matched").Inc()
		return Decision{
			Available:  true,
			Technician: chosen,
			TimeSlot:   at,
		}, nil
	}

	slots := s.cfg.AlternativeSlots
	if slots <= 0 {
		slots = 3
	}
	alternatives := make([]time.Time, 0, slots)
	for i := 1; i <= slots; i++ {
		alternatives = append(alternatives, at.Add(time.Duration(i)*time.Hour))
	}
	metrics.DispatchRequestsTotal.WithLabelValues("alternatives").Inc()
	return Decision{
		Available:    false,
		Technician:   chosen,
		Alternatives: alternatives,
	}, nil
}
