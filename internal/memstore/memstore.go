// Package memstore keeps the sandbox backend's stations, bikes, rentals and
// wallets in memory. It follows the same rules as the Postgres repositories
// and is used when no database is configured.
package memstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

type Store struct {
	now func() time.Time

	mu        sync.Mutex
	stations  []station.Station
	bikes     []bike.Bike
	rentals   []reservation.Rental
	customers map[string]*customer.Customer
	methods   map[string][]customer.PaymentMethod
	lastID    int64
}

func New() *Store {
	return &Store{
		now:       time.Now,
		customers: map[string]*customer.Customer{},
		methods:   map[string][]customer.PaymentMethod{},
	}
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

// CreateStation adds a station, or updates the one with the same name, and
// sets its ID.
func (s *Store) CreateStation(_ context.Context, st *station.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.stations {
		if s.stations[i].Nombre == st.Nombre {
			st.ID = s.stations[i].ID
			s.stations[i] = *st
			return nil
		}
	}
	st.ID = s.nextID()
	s.stations = append(s.stations, *st)
	return nil
}

func (s *Store) GetStations(_ context.Context) ([]station.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]station.Station, 0, len(s.stations))
	for _, st := range s.stations {
		out = append(out, s.withAvailability(st))
	}
	return out, nil
}

func (s *Store) GetStation(_ context.Context, id int64) (station.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.station(id)
	if !ok {
		return station.Station{}, station.ErrNotFound
	}
	return s.withAvailability(st), nil
}

func (s *Store) station(id int64) (station.Station, bool) {
	for _, st := range s.stations {
		if st.ID == id {
			return st, true
		}
	}
	return station.Station{}, false
}

func (s *Store) withAvailability(st station.Station) station.Station {
	st.DisponiblesElectricas, st.DisponiblesMecanicas = 0, 0
	for _, b := range s.bikes {
		if b.StationID != st.ID {
			continue
		}
		switch {
		case b.Assignable(bike.Electric):
			st.DisponiblesElectricas++
		case b.Assignable(bike.Manual):
			st.DisponiblesMecanicas++
		}
	}
	st.TotalDisponibles = st.DisponiblesElectricas + st.DisponiblesMecanicas
	return st
}

// CreateBike registers a bike, or refreshes it when the serial is already
// known.
func (s *Store) CreateBike(_ context.Context, b *bike.Bike) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bikes {
		if s.bikes[i].Serial == b.Serial {
			b.ID = s.bikes[i].ID
			s.bikes[i] = *b
			return nil
		}
	}
	b.ID = s.nextID()
	s.bikes = append(s.bikes, *b)
	return nil
}

func (s *Store) GetBikesAtStation(_ context.Context, stationID int64) ([]bike.Bike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []bike.Bike{}
	for _, b := range s.bikes {
		if b.StationID == stationID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) setBike(serial string, estado bike.Estado, stationID sql.NullInt64) {
	for i := range s.bikes {
		if s.bikes[i].Serial != serial {
			continue
		}
		s.bikes[i].Estado = estado
		if stationID.Valid {
			s.bikes[i].StationID = stationID.Int64
		}
	}
}
