package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/semanticallynull/twomove-rider/client"
	"github.com/semanticallynull/twomove-rider/internal/money"
	"github.com/semanticallynull/twomove-rider/internal/notify"
	"github.com/semanticallynull/twomove-rider/reservation"
)

// Reserve validates form and, when it passes, asks the backend for a
// reservation. The unlock code of the new reservation is shown once and kept
// on the session.
func (s *Session) Reserve(ctx context.Context, form ReservationForm) (reservation.Reservation, error) {
	if v := form.Validate(s.now(), s.stations.All()); v != nil {
		return reservation.Reservation{}, s.warn(v)
	}

	btn := s.buttons[ActionReserve]
	if err := btn.acquire(); err != nil {
		return reservation.Reservation{}, err
	}
	defer btn.release()

	created, err := s.backend.Reserve(ctx, client.ReserveRequest{
		EstacionOrigenID:  form.Origen,
		EstacionDestinoID: form.Destino,
		TipoBicicleta:     form.TipoBicicleta,
		TipoViaje:         form.TipoViaje,
		MetodoPago:        form.MetodoPago,
		FechaReserva:      form.Fecha,
		HoraReserva:       form.Hora,
	})
	if err != nil {
		return reservation.Reservation{}, s.fail(ctx, "Failed to create reservation", err,
			"No se pudo completar la reserva.",
			"Error inesperado al crear la reserva. Por favor, intenta de nuevo.")
	}
	s.logger.InfoContext(ctx, "Reservation created", "rental", created.ID, "bike", created.BikeSerial)

	s.mu.Lock()
	s.created = &created
	s.mu.Unlock()

	fresh := s.settle(ctx, reservation.Reserved)
	if _, err := s.stations.Refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh stations", "error", err)
		fresh = false
	}

	s.succeed(fmt.Sprintf("✅ ¡Tu reserva está confirmada! Código de desbloqueo: %s", created.CodigoDesbloqueo), fresh)
	return created, nil
}

// StartTrip unlocks the reserved bike with codigo, sent upper-cased.
func (s *Session) StartTrip(ctx context.Context, codigo string) (client.StartResult, error) {
	code := NormalizeCode(codigo)
	if v := validateCode(code); v != nil {
		return client.StartResult{}, s.warn(v)
	}

	btn := s.buttons[ActionStart]
	if err := btn.acquire(); err != nil {
		return client.StartResult{}, err
	}
	defer btn.release()

	res, err := s.backend.StartTrip(ctx, code)
	if err != nil {
		return client.StartResult{}, s.fail(ctx, "Failed to start trip", err,
			"No se pudo iniciar el viaje.",
			"Error inesperado al iniciar el viaje. Por favor, intenta de nuevo.")
	}
	s.logger.InfoContext(ctx, "Trip started", "rental", res.RentalID)

	s.mu.Lock()
	s.startedAt = s.now()
	if res.HoraInicio != nil {
		s.startedAt = *res.HoraInicio
	}
	s.mu.Unlock()

	fresh := s.settle(ctx, reservation.Active)
	s.succeed("✅ ¡Viaje iniciado correctamente! Disfruta tu recorrido.", fresh)
	return res, nil
}

// EndTrip finishes the active trip found in the loaded reservation list.
func (s *Session) EndTrip(ctx context.Context) (client.EndResult, error) {
	active, ok := s.Active()
	if !ok || active.Estado != reservation.EstadoActivo {
		s.alerts.Show("No hay un viaje activo para finalizar.", notify.Warning)
		return client.EndResult{}, reservation.ErrNotActive
	}

	btn := s.buttons[ActionEnd]
	if err := btn.acquire(); err != nil {
		return client.EndResult{}, err
	}
	defer btn.release()

	res, err := s.backend.EndTrip(ctx, active.ID)
	if err != nil {
		return client.EndResult{}, s.fail(ctx, "Failed to end trip", err,
			"No se pudo finalizar el viaje.",
			"Error inesperado al finalizar el viaje. Por favor, intenta de nuevo.")
	}
	s.logger.InfoContext(ctx, "Trip ended", "rental", active.ID, "cost", res.CostoTotal.String())

	s.mu.Lock()
	s.lastEnd = &res
	s.startedAt = time.Time{}
	s.mu.Unlock()

	fresh := s.settle(ctx, reservation.Completed)
	msg := res.Mensaje
	if msg == "" {
		msg = "✅ ¡Viaje finalizado correctamente!"
	}
	s.succeed(fmt.Sprintf("%s Costo total: %s · Duración: %s", msg, money.COP(res.CostoTotal), money.Minutes(res.DuracionMinutos)), fresh)
	return res, nil
}

// Cancel cancels a reservation from the loaded list. reason is required.
func (s *Session) Cancel(ctx context.Context, rentalID int64, reason string) (client.CancelResult, error) {
	_, found := s.reservations.Find(rentalID)
	reason = strings.TrimSpace(reason)
	if v := validateCancel(found && rentalID != 0, reason); v != nil {
		return client.CancelResult{}, s.warn(v)
	}

	btn := s.buttons[ActionCancel]
	if err := btn.acquire(); err != nil {
		return client.CancelResult{}, err
	}
	defer btn.release()

	res, err := s.backend.Cancel(ctx, rentalID, reason)
	if err != nil {
		return client.CancelResult{}, s.fail(ctx, "Failed to cancel reservation", err,
			"No se pudo cancelar la reserva.",
			"Error inesperado al cancelar la reserva. Por favor, intenta de nuevo.")
	}
	s.logger.InfoContext(ctx, "Reservation cancelled", "rental", rentalID, "refunded", res.RefundedAmount.String())

	fresh := s.settle(ctx, reservation.Cancelled)
	s.succeed("✅ Reserva cancelada correctamente. El saldo ha sido devuelto a tu billetera.", fresh)
	return res, nil
}

// settle re-fetches the reservation list after a successful action. When the
// list shows an open reservation its state is taken; when it shows none, or
// cannot be read, the state becomes outcome. A failed re-fetch keeps the
// previous list and reports false.
func (s *Session) settle(ctx context.Context, outcome reservation.State) bool {
	list, err := s.reservations.Refresh(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh reservations", "error", err)
		s.setState(outcome)
		return false
	}
	state, _, err := reservation.Observe(list)
	if err != nil {
		s.logger.ErrorContext(ctx, "Inconsistent reservation list", "error", err)
		s.setState(outcome)
		return false
	}
	if state == reservation.NoReservation {
		state = outcome
	}
	s.setState(state)
	return true
}

// succeed shows msg for a completed action, asking the rider to reload when
// the lists could not be brought up to date afterwards.
func (s *Session) succeed(msg string, fresh bool) {
	if !fresh {
		s.alerts.Show(msg+" "+msgStale, notify.Warning)
		return
	}
	s.alerts.Show(msg, notify.Success)
}
