package settings

import (
	"context"
	"database/sql"
	"errors"

	"CipherGate-backend/internal/platform/db"
)

type Store struct{ db db.DBTX }

func NewStore(db db.DBTX) *Store { return &Store{db: db} }

// Get: 未設定なら nil, nil
func (s *Store) Get(ctx context.Context, tenant string) (*WorkLocation, error) {
	var (
		w        = WorkLocation{Tenant: tenant}
		lat, lon sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT latitude, longitude, radius_m, enabled
	FROM work_locations
	WHERE subdomain = ?`, tenant).Scan(&lat, &lon, &w.RadiusMeters, &w.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		w.Latitude = &lat.Float64
	}
	if lon.Valid {
		w.Longitude = &lon.Float64
	}
	return &w, nil
}

func (s *Store) Upsert(ctx context.Context, w WorkLocation) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO work_locations (subdomain, latitude, longitude, radius_m, enabled)
	VALUES (?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
	latitude  = VALUES(latitude),
	longitude = VALUES(longitude),
	radius_m  = VALUES(radius_m),
	enabled   = VALUES(enabled)`,
		w.Tenant, floatOrNil(w.Latitude), floatOrNil(w.Longitude), w.RadiusMeters, w.Enabled)
	return err
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
