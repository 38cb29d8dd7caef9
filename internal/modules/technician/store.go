// README: Technician store backed by PostgreSQL.
package technician

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldops/internal/types"
)

var ErrNotFound = errors.New("technician not found")

// queryTimeout bounds every store read so a stalled database cannot hang a
// dispatch decision.
const queryTimeout = 5 * time.Second

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id int64) (*Technician, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, phone, skills,
		       home_latitude, home_longitude, max_radius_miles, status
		FROM technicians
		WHERE id = $1`, id,
	)
	t, err := scanTechnician(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListBySkill returns active technicians whose skill set contains serviceType.
// The JSONB containment predicate is the SQL counterpart of HasSkill; both
// must agree on what "has the skill" means (exact string match).
func (s *Store) ListBySkill(ctx context.Context, serviceType string) ([]Technician, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	needle, err := json.Marshal([]string{serviceType})
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, email, phone, skills,
		       home_latitude, home_longitude, max_radius_miles, status
		FROM technicians
		WHERE status = 'active'
		  AND skills @> $1::jsonb
		ORDER BY id`, string(needle),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		techs = append(techs, *t)
	}
	return techs, rows.Err()
}

func scanTechnician(row pgx.Row) (*Technician, error) {
	var t Technician
	var email, phone sql.NullString
	var skillsJSON []byte
	var homeLat, homeLng, radius sql.NullFloat64

	err := row.Scan(
		&t.ID, &t.Name, &email, &phone, &skillsJSON,
		&homeLat, &homeLng, &radius, &t.Status,
	)
	if err != nil {
		return nil, err
	}

	t.Email = email.String
	t.Phone = phone.String
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &t.Skills); err != nil {
			return nil, err
		}
	}
	if homeLat.Valid && homeLng.Valid {
		t.Home = &types.Point{Lat: homeLat.Float64, Lng: homeLng.Float64}
	}
	if radius.Valid {
		t.MaxRadiusMiles = radius.Float64
	}
	return &t, nil
}
