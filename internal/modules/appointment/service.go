// README: Booking service implements appointment commits, cancellations, and status transitions.
package appointment

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"fieldops/internal/metrics"
	"fieldops/internal/modules/technician"
	"fieldops/internal/types"
)

var (
	ErrNotFound           = errors.New("appointment not found")
	ErrTechnicianNotFound = errors.New("technician not found")
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidStatus      = errors.New("invalid status transition")
	ErrConflict           = errors.New("appointment status conflict")
)

// Repository is the slice of the appointment store the service needs.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	Get(ctx context.Context, id string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	UpdateNotes(ctx context.Context, id string, notes string) (bool, error)
	UpdateCalendarEventID(ctx context.Context, id, eventID string) (bool, error)
	UpsertByCalendarEvent(ctx context.Context, a *Appointment) error
	DeleteByCalendarEvent(ctx context.Context, eventID string) error
}

// TechnicianDirectory resolves technician records at booking time.
type TechnicianDirectory interface {
	Get(ctx context.Context, id int64) (*technician.Technician, error)
}

// RouteCache is the write-side invalidation target for memoized itineraries.
// The cache contents are owned by an external layer; this service only
// deletes entries when a technician's schedule changes.
type RouteCache interface {
	Invalidate(ctx context.Context, techID int64, day time.Time) error
	InvalidateDay(ctx context.Context, day time.Time) error
}

// Notifier sends customer emails. Failures are logged and never fail the
// underlying booking or cancellation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, a *Appointment, technicianName string) error
	BookingCancelled(ctx context.Context, a *Appointment) error
}

// CalendarSync pushes committed appointments to an external calendar.
type CalendarSync interface {
	CreateEvent(ctx context.Context, a *Appointment) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type Service struct {
	store    Repository
	techs    TechnicianDirectory
	cache    RouteCache
	notifier Notifier
	calendar CalendarSync
}

// NewService wires the booking service. notifier and calendar may be nil;
// both are optional side channels.
func NewService(store Repository, techs TechnicianDirectory, cache RouteCache, notifier Notifier, calendar CalendarSync) *Service {
	return &Service{store: store, techs: techs, cache: cache, notifier: notifier, calendar: calendar}
}

type BookCommand struct {
	TechnicianID    int64
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	ServiceType     string
	Address         string
	Location        types.Point
	StartTime       time.Time
	DurationMinutes int
}

// BookingResult pairs the committed appointment with the technician record
// resolved during booking, so callers can answer without a second lookup.
type BookingResult struct {
	Appointment *Appointment
	Technician  *technician.Technician
}

// Book persists an accepted appointment and invalidates the route-cache entry
// for the technician's day so later dispatch calls recompute fresh itineraries.
func (s *Service) Book(ctx context.Context, cmd BookCommand) (*BookingResult, error) {
	if cmd.CustomerName == "" || cmd.ServiceType == "" || cmd.DurationMinutes <= 0 {
		return nil, ErrBadRequest
	}

	tech, err := s.techs.Get(ctx, cmd.TechnicianID)
	if err != nil {
		if errors.Is(err, technician.ErrNotFound) {
			return nil, ErrTechnicianNotFound
		}
		return nil, err
	}

	start := cmd.StartTime.UTC()
	a := &Appointment{
		ID:              uuid.NewString(),
		TechnicianID:    &tech.ID,
		CustomerName:    cmd.CustomerName,
		CustomerPhone:   cmd.CustomerPhone,
		CustomerEmail:   cmd.CustomerEmail,
		ServiceType:     cmd.ServiceType,
		Address:         cmd.Address,
		Location:        &types.Point{Lat: cmd.Location.Lat, Lng: cmd.Location.Lng},
		StartTime:       start,
		EndTime:         start.Add(time.Duration(cmd.DurationMinutes) * time.Minute),
		DurationMinutes: cmd.DurationMinutes,
		Status:          StatusScheduled,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	metrics.BookingsTotal.Inc()

	s.invalidateRoutes(ctx, tech.ID, start)

	if s.calendar != nil {
		if eventID, err := s.calendar.CreateEvent(ctx, a); err != nil {
			log.Printf("op=book appointment=%s calendar_sync_err=%v", a.ID, err)
		} else {
			a.CalendarEventID = eventID
			// The row was committed before the event existed; write the id
			// back so a later cancellation can find and delete the event.
			if ok, err := s.store.UpdateCalendarEventID(ctx, a.ID, eventID); err != nil || !ok {
				log.Printf("op=book appointment=%s calendar_event_id_persist_err=%v", a.ID, err)
			}
		}
	}
	if s.notifier != nil && a.CustomerEmail != "" {
		if err := s.notifier.BookingConfirmed(ctx, a, tech.Name); err != nil {
			log.Printf("op=book appointment=%s notify_err=%v", a.ID, err)
		}
	}

	return &BookingResult{Appointment: a, Technician: tech}, nil
}

// Cancel transitions an appointment to cancelled and invalidates the affected
// technician's route cache, since the itinerary the estimator walks has changed.
func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.transition(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	metrics.CancellationsTotal.Inc()

	if a.TechnicianID != nil {
		s.invalidateRoutes(ctx, *a.TechnicianID, a.StartTime)
	}
	if s.calendar != nil && a.CalendarEventID != "" {
		if err := s.calendar.DeleteEvent(ctx, a.CalendarEventID); err != nil {
			log.Printf("op=cancel appointment=%s calendar_sync_err=%v", a.ID, err)
		}
	}
	if s.notifier != nil && a.CustomerEmail != "" {
		if err := s.notifier.BookingCancelled(ctx, a); err != nil {
			log.Printf("op=cancel appointment=%s notify_err=%v", a.ID, err)
		}
	}
	return a, nil
}

func (s *Service) Complete(ctx context.Context, id string) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted)
}

// SetStatus applies an arbitrary guarded transition. Cancellations routed
// through here still perform the cancellation side effects.
func (s *Service) SetStatus(ctx context.Context, id string, to Status) (*Appointment, error) {
	if to == StatusCancelled {
		return s.Cancel(ctx, id)
	}
	return s.transition(ctx, id, to)
}

func (s *Service) SetNotes(ctx context.Context, id string, notes string) error {
	ok, err := s.store.UpdateNotes(ctx, id, notes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.store.Get(ctx, id)
}

// SyncExternalEvent mirrors an appointment created in an external calendar and
// drops any memoized routes for the affected technician and day.
func (s *Service) SyncExternalEvent(ctx context.Context, a *Appointment) error {
	if a.CalendarEventID == "" {
		return ErrBadRequest
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()

	if err := s.store.UpsertByCalendarEvent(ctx, a); err != nil {
		return err
	}
	if a.TechnicianID != nil {
		s.invalidateRoutes(ctx, *a.TechnicianID, a.StartTime)
	} else {
		s.invalidateRoutesDay(ctx, a.StartTime)
	}
	return nil
}

// DropExternalEvent removes a mirrored appointment after the external calendar
// deleted it. The event payload does not identify the technician, so the whole
// day's route cache is invalidated.
func (s *Service) DropExternalEvent(ctx context.Context, eventID string, start time.Time) error {
	if err := s.store.DeleteByCalendarEvent(ctx, eventID); err != nil {
		return err
	}
	s.invalidateRoutesDay(ctx, start.UTC())
	return nil
}

func (s *Service) transition(ctx context.Context, id string, to Status) (*Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, ErrInvalidStatus
	}
	ok, err := s.store.UpdateStatus(ctx, id, a.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	a.Status = to
	return a, nil
}

func (s *Service) invalidateRoutes(ctx context.Context, techID int64, day time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, techID, day); err != nil {
		log.Printf("op=routecache_invalidate tech=%d day=%s err=%v", techID, day.Format("2006-01-02"), err)
		return
	}
	metrics.RouteCacheInvalidations.Inc()
}

func (s *Service) invalidateRoutesDay(ctx context.Context, day time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDay(ctx, day); err != nil {
		log.Printf("op=routecache_invalidate_day day=%s err=%v", day.Format("2006-01-02"), err)
		return
	}
	metrics.RouteCacheInvalidations.Inc()
}
