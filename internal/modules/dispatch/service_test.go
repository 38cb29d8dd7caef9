package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/config"
	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/technician"
	"fieldops/internal/types"
)

func newTestService(dir *stubDirectory, sched *stubSchedule) *Service {
	cfg := config.DispatchConfig{DefaultRadiusMiles: 50, AlternativeSlots: 3}
	return NewService(dir, NewEstimator(dir, sched), cfg)
}

func gutterTech(id int64, name string, home types.Point, radius float64) technician.Technician {
	return technician.Technician{
		ID:             id,
		Name:           name,
		Skills:         []string{"gutter"},
		Home:           &home,
		MaxRadiusMiles: radius,
		Status:         technician.StatusActive,
	}
}

func TestMatch_NoTechniciansForService(t *testing.T) {
	svc := newTestService(&stubDirectory{}, &stubSchedule{})

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	assert.False(t, decision.Available)
	assert.Equal(t, ReasonNoTechnicians, decision.Reason)
	assert.Nil(t, decision.Technician)
}

func TestMatch_OutOfRangeIsDistinctFromNoTechnicians(t *testing.T) {
	// Qualified technician exists, but the job is ~40 miles out with a 10
	// mile radius. The reason must differ from the empty-pool case.
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(1, "Hank", types.Point{Lat: 35.2271, Lng: -80.8431}, 10),
	}}
	svc := newTestService(dir, &stubSchedule{})

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.8053, Lng: -80.8431},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	assert.False(t, decision.Available)
	assert.Equal(t, ReasonOutOfRange, decision.Reason)
	assert.Nil(t, decision.Technician)
}

func TestMatch_NearbyTechnicianWins(t *testing.T) {
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(1, "Hank", types.Point{Lat: 35.2271, Lng: -80.8431}, 50),
	}}
	svc := newTestService(dir, &stubSchedule{})

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	assert.True(t, decision.Available)
	require.NotNil(t, decision.Technician)
	assert.Equal(t, int64(1), decision.Technician.ID)
	assert.InDelta(t, 1.1, decision.Technician.DistanceMiles, 0.4)
	assert.Equal(t, utc(10, 0), decision.TimeSlot)
	assert.Empty(t, decision.Alternatives)
}

func TestMatch_ClosestOfSeveralWins(t *testing.T) {
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(1, "Far", types.Point{Lat: 35.5000, Lng: -80.8431}, 50),
		gutterTech(2, "Near", types.Point{Lat: 35.2271, Lng: -80.8431}, 50),
	}}
	svc := newTestService(dir, &stubSchedule{})

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	require.NotNil(t, decision.Technician)
	assert.Equal(t, int64(2), decision.Technician.ID)
}

func TestMatch_DistanceTieKeepsInputOrder(t *testing.T) {
	same := types.Point{Lat: 35.2271, Lng: -80.8431}
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(10, "First", same, 50),
		gutterTech(20, "Second", same, 50),
	}}
	svc := newTestService(dir, &stubSchedule{})

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	require.NotNil(t, decision.Technician)
	assert.Equal(t, int64(10), decision.Technician.ID, "tie should go to the first technician in input order")
}

// A technician already out on jobs is scored from their estimated location,
// not from home.
func TestMatch_UsesEstimatedLocation(t *testing.T) {
	farHome := types.Point{Lat: 36.0000, Lng: -80.0000}
	jobSite := types.Point{Lat: 35.2200, Lng: -80.8500}
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(5, "OnSite", farHome, 20),
	}}
	sched := &stubSchedule{appts: map[int64][]appointment.Appointment{
		5: {appt(5, 9, 11, jobSite)},
	}}
	svc := newTestService(dir, sched)

	// From home the job is ~70 miles away (outside the 20 mile radius), but
	// at 10:00 the technician is on a job right next to it.
	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	assert.True(t, decision.Available)
	require.NotNil(t, decision.Technician)
	assert.Equal(t, int64(5), decision.Technician.ID)
	assert.Less(t, decision.Technician.DistanceMiles, 1.0)
}

func TestMatch_ScheduleErrorFallsBackToHome(t *testing.T) {
	home := types.Point{Lat: 35.2271, Lng: -80.8431}
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(1, "Hank", home, 50),
	}}
	sched := &stubSchedule{errs: map[int64]error{1: errors.New("schedule read failed")}}
	svc := newTestService(dir, sched)

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	assert.True(t, decision.Available, "one bad schedule read must not lose the candidate")
	require.NotNil(t, decision.Technician)
	assert.Equal(t, int64(1), decision.Technician.ID)
}

func TestMatch_TechnicianWithoutCoordinatesIsSkipped(t *testing.T) {
	home := types.Point{Lat: 35.2271, Lng: -80.8431}
	noHome := technician.Technician{
		ID: 2, Name: "Ghost", Skills: []string{"gutter"}, Status: technician.StatusActive,
	}
	dir := &stubDirectory{techs: []technician.Technician{
		noHome,
		gutterTech(1, "Hank", home, 50),
	}}
	svc := newTestService(dir, &stubSchedule{})

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	require.NotNil(t, decision.Technician)
	assert.Equal(t, int64(1), decision.Technician.ID)
}

func TestMatch_DefaultRadiusAppliesWhenUnset(t *testing.T) {
	// ~40 miles out, radius unset: the 50 mile default keeps the candidate.
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(1, "Hank", types.Point{Lat: 35.2271, Lng: -80.8431}, 0),
	}}
	svc := newTestService(dir, &stubSchedule{})

	decision, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.8053, Lng: -80.8431},
		RequestedAt: utc(10, 0),
	})
	require.NoError(t, err)
	assert.True(t, decision.Available)
}

func TestMatch_StoreFailurePropagates(t *testing.T) {
	dir := &stubDirectory{listErr: errors.New("connection refused")}
	svc := newTestService(dir, &stubSchedule{})

	_, err := svc.Match(context.Background(), Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: utc(10, 0),
	})
	require.Error(t, err)
}

func TestMatch_CancelledContextAborts(t *testing.T) {
	dir := &stubDirectory{techs: []technician.Technician{
		gutterTech(1, "Hank", types.Point{Lat: 35.2271, Lng: -80.8431}, 50),
	}}
	svc := newTestService(dir, &stubSchedule{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Match(ctx, Request{
		ServiceType: "gutter",
		Job:         types.Point{Lat: 35.2150, Lng: -80.8550},
		RequestedAt: time.Now(),
	})
	require.ErrorIs(t, err, context.Canceled)
}
