package bike

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetBikesAtStation fetches the bikes currently docked at a station.
func (r *Repository) GetBikesAtStation(ctx context.Context, stationID int64) ([]Bike, error) {
	bikes := []Bike{}
	err := r.db.SelectContext(ctx, &bikes, getBikesAtStation, stationID)
	return bikes, err
}

const getBikesAtStation = `SELECT * FROM bikes WHERE station_id = $1 ORDER BY id`

// CreateBike registers a bike, or refreshes it when the serial is already known.
func (r *Repository) CreateBike(ctx context.Context, b *Bike) error {
	return r.db.GetContext(ctx, b, createBike, b.Serial, b.Tipo, b.Estado, b.StationID, b.Battery)
}

const createBike = `
INSERT INTO bikes (serial, tipo, estado, station_id, battery)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (serial) DO UPDATE SET tipo = $2, estado = $3, station_id = $4, battery = $5
RETURNING *
`
