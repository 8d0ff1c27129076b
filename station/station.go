package station

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Station is a pickup and return point together with the bikes it can
// currently hand out.
type Station struct {
	ID                    int64   `json:"id"`
	Nombre                string  `json:"nombre"`
	Direccion             string  `json:"direccion,omitempty"`
	Latitud               float64 `json:"latitud,omitempty"`
	Longitud              float64 `json:"longitud,omitempty"`
	DisponiblesElectricas int     `json:"disponibles_electricas"`
	DisponiblesMecanicas  int     `json:"disponibles_mecanicas"`
	TotalDisponibles      int     `json:"total_disponibles"`
}

// Selectable is false for stations with nothing to rent.
func (s Station) Selectable() bool {
	return s.TotalDisponibles > 0
}

// Consistent reports whether the total matches the per-type counts.
func (s Station) Consistent() bool {
	return s.TotalDisponibles == s.DisponiblesElectricas+s.DisponiblesMecanicas
}

// Label is the text shown for the station in the origin/destination
// pickers.
func (s Station) Label() string {
	l := fmt.Sprintf("%s — %d eléctricas / %d mecánicas", s.Nombre, s.DisponiblesElectricas, s.DisponiblesMecanicas)
	if !s.Selectable() {
		l += " (Agotada)"
	}
	return l
}

// row is a station as stored, with availability counted from the bikes table.
type row struct {
	ID         int64
	Nombre     string
	Direccion  string
	Location   pgtype.Point
	Electricas int `db:"disponibles_electricas"`
	Mecanicas  int `db:"disponibles_mecanicas"`
}

func (r row) station() Station {
	s := Station{
		ID:                    r.ID,
		Nombre:                r.Nombre,
		Direccion:             r.Direccion,
		DisponiblesElectricas: r.Electricas,
		DisponiblesMecanicas:  r.Mecanicas,
		TotalDisponibles:      r.Electricas + r.Mecanicas,
	}
	if r.Location.Valid {
		s.Longitud = r.Location.P.X
		s.Latitud = r.Location.P.Y
	}
	return s
}
