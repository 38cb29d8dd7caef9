// README: Appointment store backed by PostgreSQL.
package appointment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops/internal/types"
)

// queryTimeout bounds every store call so a stalled database cannot hang a
// request indefinitely.
const queryTimeout = 5 * time.Second

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, a *Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments (
			id, calendar_event_id, technician_id,
			customer_name, customer_phone, customer_email,
			service_type, address, latitude, longitude,
			start_time, end_time, duration_minutes, status, notes, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16
		)`,
		a.ID,
		nullString(a.CalendarEventID),
		a.TechnicianID,
		a.CustomerName, a.CustomerPhone, a.CustomerEmail,
		a.ServiceType, a.Address,
		latPtr(a.Location), lngPtr(a.Location),
		a.StartTime, a.EndTime, a.DurationMinutes,
		string(a.Status), a.Notes, a.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		SELECT id, calendar_event_id, technician_id,
		       customer_name, customer_phone, customer_email,
		       service_type, address, latitude, longitude,
		       start_time, end_time, duration_minutes, status, notes, created_at
		FROM appointments
		WHERE id = $1`, id,
	)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListForTechnicianOnDate returns a technician's appointments whose start time
// falls on the given UTC calendar day, ordered ascending by start time. The
// ordering is the itinerary contract the location estimator depends on.
func (s *Store) ListForTechnicianOnDate(ctx context.Context, techID int64, day time.Time) ([]Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.db.Query(ctx, `
		SELECT id, calendar_event_id, technician_id,
		       customer_name, customer_phone, customer_email,
		       service_type, address, latitude, longitude,
		       start_time, end_time, duration_minutes, status, notes, created_at
		FROM appointments
		WHERE technician_id = $1
		  AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`,
		techID, dayStart, dayEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

// UpdateStatus moves an appointment from one status to another with a
// compare-and-swap on the current status, so concurrent transitions cannot
// both win.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpdateNotes(ctx context.Context, id string, notes string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET notes = $1, updated_at = NOW()
		WHERE id = $2`,
		notes, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateCalendarEventID records the provider event id created after the
// appointment row was committed, so cancellation can delete the event.
func (s *Store) UpdateCalendarEventID(ctx context.Context, id, eventID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET calendar_event_id = $1, updated_at = NOW()
		WHERE id = $2`,
		nullString(eventID), id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertByCalendarEvent mirrors an externally created calendar event into the
// appointment table, keyed by the provider's event id.
func (s *Store) UpsertByCalendarEvent(ctx context.Context, a *Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments (
			id, calendar_event_id, technician_id,
			customer_name, customer_phone, customer_email,
			service_type, address, latitude, longitude,
			start_time, end_time, duration_minutes, status, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		ON CONFLICT (calendar_event_id) DO UPDATE SET
			technician_id = EXCLUDED.technician_id,
			customer_name = EXCLUDED.customer_name,
			customer_phone = EXCLUDED.customer_phone,
			service_type = EXCLUDED.service_type,
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			status = EXCLUDED.status,
			updated_at = NOW()`,
		a.ID,
		a.CalendarEventID,
		a.TechnicianID,
		a.CustomerName, a.CustomerPhone, a.CustomerEmail,
		a.ServiceType, a.Address,
		latPtr(a.Location), lngPtr(a.Location),
		a.StartTime, a.EndTime, a.DurationMinutes,
		string(a.Status), a.Notes, a.CreatedAt,
	)
	return err
}

func (s *Store) DeleteByCalendarEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		DELETE FROM appointments WHERE calendar_event_id = $1`, eventID,
	)
	return err
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var eventID, phone, email, address, notes sql.NullString
	var techID sql.NullInt64
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&a.ID, &eventID, &techID,
		&a.CustomerName, &phone, &email,
		&a.ServiceType, &address, &lat, &lng,
		&a.StartTime, &a.EndTime, &a.DurationMinutes, &a.Status, &notes, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.CalendarEventID = eventID.String
	a.CustomerPhone = phone.String
	a.CustomerEmail = email.String
	a.Address = address.String
	a.Notes = notes.String
	if techID.Valid {
		v := techID.Int64
		a.TechnicianID = &v
	}
	if lat.Valid && lng.Valid {
		a.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	// Schedule comparisons happen in UTC everywhere in the engine.
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()
	return &a, nil
}

func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func latPtr(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lat
}

func lngPtr(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lng
}
