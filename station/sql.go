package station

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("station not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetStations(ctx context.Context) ([]Station, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, getStations); err != nil {
		return nil, err
	}
	stations := make([]Station, 0, len(rows))
	for _, r := range rows {
		stations = append(stations, r.station())
	}
	return stations, nil
}

const stationColumns = `
SELECT s.id, s.nombre, s.direccion, s.location,
       count(b.id) FILTER (WHERE b.tipo = 'electric' AND b.estado = 'available' AND b.battery >= 40) AS disponibles_electricas,
       count(b.id) FILTER (WHERE b.tipo = 'manual' AND b.estado = 'available') AS disponibles_mecanicas
FROM stations s
LEFT JOIN bikes b ON b.station_id = s.id
`

const getStations = stationColumns + `GROUP BY s.id ORDER BY s.id`

func (r *Repository) GetStation(ctx context.Context, id int64) (Station, error) {
	var st row
	err := r.db.GetContext(ctx, &st, getStation, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, ErrNotFound
	}
	return st.station(), err
}

const getStation = stationColumns + `WHERE s.id = $1 GROUP BY s.id`

// CreateStation inserts a station, or updates the one with the same name,
// and sets its ID.
func (r *Repository) CreateStation(ctx context.Context, s *Station) error {
	loc := pgtype.Point{P: pgtype.Vec2{X: s.Longitud, Y: s.Latitud}, Valid: true}
	return r.db.GetContext(ctx, &s.ID, createStation, s.Nombre, s.Direccion, loc)
}

const createStation = `
INSERT INTO stations (nombre, direccion, location)
VALUES ($1, $2, $3)
ON CONFLICT (nombre) DO UPDATE SET direccion = $2, location = $3
RETURNING id
`
