package memstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/reservation"
)

// Open returns the user's reserved and active rentals, newest first.
func (s *Store) Open(_ context.Context, userID string) ([]reservation.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(r reservation.Rental) bool {
		return r.UserID == userID && r.Estado.Open()
	}), nil
}

// History returns every rental the user started or cancelled, newest first.
func (s *Store) History(_ context.Context, userID string) ([]reservation.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(r reservation.Rental) bool {
		return r.UserID == userID && (r.HoraInicio.Valid || r.Estado == reservation.EstadoCancelado)
	}), nil
}

func (s *Store) filter(keep func(reservation.Rental) bool) []reservation.Rental {
	out := []reservation.Rental{}
	for i := len(s.rentals) - 1; i >= 0; i-- {
		if keep(s.rentals[i]) {
			out = append(out, s.named(s.rentals[i]))
		}
	}
	return out
}

// named fills in the station names the SQL repository gets from its join.
func (s *Store) named(r reservation.Rental) reservation.Rental {
	if st, ok := s.station(r.EstacionOrigenID); ok {
		r.EstacionOrigen = st.Nombre
	}
	r.EstacionDestino = sql.NullString{}
	if r.EstacionDestinoID.Valid {
		if st, ok := s.station(r.EstacionDestinoID.Int64); ok {
			r.EstacionDestino = sql.NullString{String: st.Nombre, Valid: true}
		}
	}
	return r
}

func (s *Store) rental(userID string, id int64) (*reservation.Rental, bool) {
	for i := range s.rentals {
		if s.rentals[i].ID == id && s.rentals[i].UserID == userID {
			return &s.rentals[i], true
		}
	}
	return nil, false
}

// Reserve creates a rental, assigns a bike at the origin station and, for
// wallet payments, debits the estimated cost. Nothing changes when any check
// fails.
func (s *Store) Reserve(_ context.Context, p reservation.ReserveParams) (reservation.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[p.UserID]
	if !ok {
		return reservation.Rental{}, reservation.ErrBalance
	}
	for _, r := range s.rentals {
		if r.UserID == p.UserID && r.Estado.Open() {
			return reservation.Rental{}, reservation.ErrOpenRental
		}
	}
	_, okOrigen := s.station(p.EstacionOrigenID)
	_, okDestino := s.station(p.EstacionDestinoID)
	if !okOrigen || !okDestino {
		return reservation.Rental{}, reservation.ErrNoStation
	}

	picked := -1
	for i, b := range s.bikes {
		if b.StationID == p.EstacionOrigenID && b.Assignable(p.TipoBicicleta) {
			picked = i
			break
		}
	}
	if picked < 0 {
		return reservation.Rental{}, reservation.ErrNoBike
	}

	cost := reservation.EstimatedCost(p.TipoViaje)
	if p.MetodoPago == reservation.Wallet {
		if c.Balance < cost {
			return reservation.Rental{}, reservation.ErrBalance
		}
	} else if len(s.methods[p.UserID]) == 0 {
		return reservation.Rental{}, reservation.ErrNoCard
	}

	if p.MetodoPago == reservation.Wallet {
		c.Balance -= cost
	}
	s.bikes[picked].Estado = bike.Reserved

	r := reservation.Rental{
		ID:                s.nextID(),
		UserID:            p.UserID,
		Estado:            reservation.EstadoReservado,
		EstacionOrigenID:  p.EstacionOrigenID,
		EstacionDestinoID: sql.NullInt64{Int64: p.EstacionDestinoID, Valid: true},
		TipoViaje:         p.TipoViaje,
		TipoBicicleta:     p.TipoBicicleta,
		MetodoPago:        p.MetodoPago,
		BikeSerial:        s.bikes[picked].Serial,
		Codigo:            p.Codigo,
		FechaReserva:      p.FechaReserva,
		HoraReserva:       p.HoraReserva,
		CostoEstimado:     cost,
		CreatedAt:         s.now(),
	}
	s.rentals = append(s.rentals, r)
	return s.named(r), nil
}

// Start activates the user's reserved rental when codigo matches its unlock
// code or the bike serial.
func (s *Store) Start(_ context.Context, userID, codigo string, now time.Time) (reservation.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r *reservation.Rental
	for i := len(s.rentals) - 1; i >= 0; i-- {
		if s.rentals[i].UserID == userID && s.rentals[i].Estado == reservation.EstadoReservado {
			r = &s.rentals[i]
			break
		}
	}
	if r == nil {
		return reservation.Rental{}, reservation.ErrNoReserved
	}
	if !r.Unlocks(codigo) {
		return reservation.Rental{}, reservation.ErrInvalidCode
	}

	r.Estado = reservation.EstadoActivo
	r.HoraInicio = sql.NullTime{Time: now, Valid: true}
	s.setBike(r.BikeSerial, bike.InUse, sql.NullInt64{})
	return s.named(*r), nil
}

// End completes an active rental, prices it and charges the wallet the part
// of the total not already paid on reservation.
func (s *Store) End(_ context.Context, userID string, id int64, now time.Time) (reservation.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rental(userID, id)
	if !ok {
		return reservation.Rental{}, reservation.ErrNotFound
	}
	if r.Estado != reservation.EstadoActivo {
		return reservation.Rental{}, reservation.ErrNotActive
	}

	r.Finish(now)
	s.setBike(r.BikeSerial, bike.Blocked, r.EstacionDestinoID)
	if r.MetodoPago == reservation.Wallet {
		if c, ok := s.customers[userID]; ok {
			c.Balance += r.CostoEstimado - r.CostoTotal
		}
	}
	return s.named(*r), nil
}

// Cancel cancels a reserved rental and refunds wallet payments.
func (s *Store) Cancel(_ context.Context, userID string, id int64, reason string, now time.Time) (reservation.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rental(userID, id)
	if !ok {
		return reservation.Rental{}, reservation.ErrNotFound
	}
	if r.Estado != reservation.EstadoReservado {
		return reservation.Rental{}, reservation.ErrNotCancellable
	}

	r.Estado = reservation.EstadoCancelado
	r.HoraFin = sql.NullTime{Time: now, Valid: true}
	r.CancelReason = sql.NullString{String: reason, Valid: reason != ""}
	s.setBike(r.BikeSerial, bike.Available, sql.NullInt64{})
	if r.MetodoPago == reservation.Wallet {
		if c, ok := s.customers[userID]; ok {
			c.Balance += r.CostoEstimado
		}
	}
	return s.named(*r), nil
}
