package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"fieldops/internal/modules/appointment"
)

// Service mirrors committed appointments into a Google Calendar so the office
// sees bookings next to everything else. All calls are fire-and-forget from
// the booking service's point of view.
type Service struct {
	svc        *gcal.Service
	calendarID string
}

// NewService builds a calendar client from a service-account credentials file.
func NewService(ctx context.Context, credentialsFile, calendarID string) (*Service, error) {
	svc, err := gcal.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return &Service{svc: svc, calendarID: calendarID}, nil
}

// CreateEvent pushes a booked appointment and returns the provider event id.
func (s *Service) CreateEvent(ctx context.Context, a *appointment.Appointment) (string, error) {
	event := &gcal.Event{
		Summary:     fmt.Sprintf("%s - %s", a.ServiceType, a.CustomerName),
		Location:    a.Address,
		Description: fmt.Sprintf("Customer: %s (%s)", a.CustomerName, a.CustomerPhone),
		Start:       &gcal.EventDateTime{DateTime: a.StartTime.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: a.EndTime.Format(time.RFC3339)},
	}
	created, err := s.svc.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes a previously pushed event after a cancellation.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	if err := s.svc.Events.Delete(s.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}
