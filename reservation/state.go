package reservation

import (
	"errors"
	"fmt"
)

var ErrInconsistentState = errors.New("more than one open reservation")

// State is the lifecycle position of a user as observed by the client.
type State int

const (
	NoReservation State = iota
	Reserved
	Active
	Completed
	Cancelled
)

func (s State) String() string {
	return [...]string{"no_reservation", "reserved", "active", "completed", "cancelled"}[s]
}

// AllowsNewReservation is true when nothing blocks creating a reservation.
func (s State) AllowsNewReservation() bool {
	return s == NoReservation || s == Completed || s == Cancelled
}

// Observe derives the client state from the user's reservation list. Only
// open reservations count; the backend guarantees at most one, so seeing
// more is reported as ErrInconsistentState.
func Observe(list []Reservation) (State, *Reservation, error) {
	var open *Reservation
	for i := range list {
		if !list[i].Estado.Open() {
			continue
		}
		if open != nil {
			return NoReservation, nil, fmt.Errorf("%w: #%d and #%d", ErrInconsistentState, open.ID, list[i].ID)
		}
		open = &list[i]
	}
	if open == nil {
		return NoReservation, nil, nil
	}
	if open.Estado == EstadoActivo {
		return Active, open, nil
	}
	return Reserved, open, nil
}

// StateOf maps a terminal estado to its state.
func StateOf(e Estado) State {
	switch e {
	case EstadoReservado:
		return Reserved
	case EstadoActivo:
		return Active
	case EstadoCompletado:
		return Completed
	case EstadoCancelado:
		return Cancelled
	}
	return NoReservation
}
