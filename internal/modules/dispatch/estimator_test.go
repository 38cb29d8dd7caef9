package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/technician"
	"fieldops/internal/types"
)

// stubDirectory is an in-memory TechnicianDirectory preserving input order.
type stubDirectory struct {
	techs   []technician.Technician
	listErr error
}

func (d *stubDirectory) Get(_ context.Context, id int64) (*technician.Technician, error) {
	for i := range d.techs {
		if d.techs[i].ID == id {
			return &d.techs[i], nil
		}
	}
	return nil, technician.ErrNotFound
}

func (d *stubDirectory) ListBySkill(_ context.Context, serviceType string) ([]technician.Technician, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	var out []technician.Technician
	for _, t := range d.techs {
		if t.Status == technician.StatusActive && t.HasSkill(serviceType) {
			out = append(out, t)
		}
	}
	return out, nil
}

// stubSchedule is an in-memory ScheduleReader returning appointments whose
// start time falls on the queried UTC day, already sorted ascending.
type stubSchedule struct {
	appts map[int64][]appointment.Appointment
	errs  map[int64]error
}

func (s *stubSchedule) ListForTechnicianOnDate(_ context.Context, techID int64, day time.Time) ([]appointment.Appointment, error) {
	if err := s.errs[techID]; err != nil {
		return nil, err
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	var out []appointment.Appointment
	for _, a := range s.appts[techID] {
		if !a.StartTime.Before(dayStart) && a.StartTime.Before(dayEnd) {
			out = append(out, a)
		}
	}
	return out, nil
}

func utc(hour, min int) time.Time {
	return time.Date(2026, 2, 14, hour, min, 0, 0, time.UTC)
}

func appt(techID int64, startHour, endHour int, at types.Point) appointment.Appointment {
	id := techID
	return appointment.Appointment{
		TechnicianID: &id,
		Location:     &at,
		StartTime:    utc(startHour, 0),
		EndTime:      utc(endHour, 0),
		Status:       appointment.StatusScheduled,
	}
}

func newTestEstimator(dir *stubDirectory, sched *stubSchedule) *Estimator {
	return NewEstimator(dir, sched)
}

func TestEstimateLocation_UnknownTechnician(t *testing.T) {
	e := newTestEstimator(&stubDirectory{}, &stubSchedule{})
	_, err := e.EstimateLocation(context.Background(), 99, utc(10, 0))
	if !errors.Is(err, ErrUnknownTechnician) {
		t.Fatalf("want ErrUnknownTechnician, got %v", err)
	}
}

func TestEstimateLocation_NoHomeCoordinates(t *testing.T) {
	dir := &stubDirectory{techs: []technician.Technician{
		{ID: 1, Name: "No Home", Status: technician.StatusActive},
	}}
	e := newTestEstimator(dir, &stubSchedule{})
	_, err := e.EstimateLocation(context.Background(), 1, utc(10, 0))
	if !errors.Is(err, ErrNoEstimate) {
		t.Fatalf("want ErrNoEstimate, got %v", err)
	}
}

func TestEstimateLocation_Itinerary(t *testing.T) {
	home := types.Point{Lat: 35.2271, Lng: -80.8431}
	jobA := types.Point{Lat: 35.1000, Lng: -80.9000}
	jobB := types.Point{Lat: 35.3000, Lng: -80.7000}

	dir := &stubDirectory{techs: []technician.Technician{
		{ID: 7, Name: "Hank", Home: &home, Status: technician.StatusActive},
	}}
	sched := &stubSchedule{appts: map[int64][]appointment.Appointment{
		7: {
			appt(7, 9, 10, jobA),  // 09:00–10:00
			appt(7, 13, 14, jobB), // 13:00–14:00
		},
	}}
	e := newTestEstimator(dir, sched)

	tests := []struct {
		name string
		at   time.Time
		want types.Point
	}{
		{"before first appointment", utc(8, 0), home},
		{"at first appointment start", utc(9, 0), jobA},
		{"inside first appointment", utc(9, 30), jobA},
		{"at first appointment end", utc(10, 0), jobA},
		{"gap lingers at previous job", utc(11, 30), jobA},
		{"inside second appointment", utc(13, 30), jobB},
		{"after last appointment", utc(16, 0), jobB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EstimateLocation(context.Background(), 7, tt.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("EstimateLocation() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEstimateLocation_EmptyDay(t *testing.T) {
	home := types.Point{Lat: 35.2271, Lng: -80.8431}
	dir := &stubDirectory{techs: []technician.Technician{
		{ID: 7, Home: &home, Status: technician.StatusActive},
	}}
	e := newTestEstimator(dir, &stubSchedule{})

	got, err := e.EstimateLocation(context.Background(), 7, utc(10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != home {
		t.Errorf("empty day should return home, got %+v", got)
	}
}

// Aware and naive inputs describing the same instant must produce identical
// estimates: the estimator normalizes everything to UTC before comparing.
func TestEstimateLocation_AwareAndNaiveInputsAgree(t *testing.T) {
	home := types.Point{Lat: 35.2271, Lng: -80.8431}
	jobA := types.Point{Lat: 35.1000, Lng: -80.9000}
	dir := &stubDirectory{techs: []technician.Technician{
		{ID: 7, Home: &home, Status: technician.StatusActive},
	}}
	sched := &stubSchedule{appts: map[int64][]appointment.Appointment{
		7: {appt(7, 9, 10, jobA)},
	}}
	e := newTestEstimator(dir, sched)

	aware, err := ParseInstant("2026-02-14T04:30:00-05:00") // 09:30 UTC
	if err != nil {
		t.Fatalf("parse aware: %v", err)
	}
	naive, err := ParseInstant("2026-02-14T09:30:00")
	if err != nil {
		t.Fatalf("parse naive: %v", err)
	}
	if !aware.Equal(naive) {
		t.Fatalf("aware %v and naive %v should be the same instant", aware, naive)
	}

	fromAware, err := e.EstimateLocation(context.Background(), 7, aware)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromNaive, err := e.EstimateLocation(context.Background(), 7, naive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromAware != jobA || fromNaive != jobA {
		t.Errorf("aware=%+v naive=%+v, want both %+v", fromAware, fromNaive, jobA)
	}
}

func TestParseInstant_Invalid(t *testing.T) {
	if _, err := ParseInstant("not-a-time"); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := ParseInstant("2026-02-14"); err == nil {
		t.Error("expected error for date without time")
	}
}
