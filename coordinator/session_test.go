package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semanticallynull/twomove-rider/client"
	"github.com/semanticallynull/twomove-rider/history"
	"github.com/semanticallynull/twomove-rider/internal/notify"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

var errDown = errors.New("connection refused")

type fakeBackend struct {
	mu sync.Mutex

	stations        []station.Station
	stationsErr     error
	reservations    []reservation.Reservation
	reservationsErr error
	history         history.Response
	historyErr      error

	reserveFn  func(client.ReserveRequest) (reservation.Reservation, error)
	startFn    func(string) (client.StartResult, error)
	endFn      func(int64) (client.EndResult, error)
	cancelFn   func(int64, string) (client.CancelResult, error)
	rechargeFn func(client.RechargeRequest) (client.RechargeResult, error)
	saveCardFn func(string) (client.SaveCardResult, error)

	posts []string
	codes []string
	saved []string
}

func (f *fakeBackend) post(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, name)
}

func (f *fakeBackend) Posts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posts...)
}

func (f *fakeBackend) setReservations(list ...reservation.Reservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = list
}

func (f *fakeBackend) Stations(context.Context) ([]station.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]station.Station(nil), f.stations...), f.stationsErr
}

func (f *fakeBackend) Reservations(context.Context) ([]reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reservationsErr != nil {
		return nil, f.reservationsErr
	}
	return append([]reservation.Reservation(nil), f.reservations...), nil
}

func (f *fakeBackend) Reserve(_ context.Context, req client.ReserveRequest) (reservation.Reservation, error) {
	f.post("reserve")
	return f.reserveFn(req)
}

func (f *fakeBackend) StartTrip(_ context.Context, codigo string) (client.StartResult, error) {
	f.post("start")
	f.mu.Lock()
	f.codes = append(f.codes, codigo)
	f.mu.Unlock()
	return f.startFn(codigo)
}

func (f *fakeBackend) EndTrip(_ context.Context, id int64) (client.EndResult, error) {
	f.post("end")
	return f.endFn(id)
}

func (f *fakeBackend) Cancel(_ context.Context, id int64, reason string) (client.CancelResult, error) {
	f.post("cancel")
	return f.cancelFn(id, reason)
}

func (f *fakeBackend) History(context.Context) (history.Response, error) {
	return f.history, f.historyErr
}

func (f *fakeBackend) Dashboard(context.Context) (history.Dashboard, error) {
	return history.Dashboard{TotalViajes: 3, Saldo: reservation.Pesos(20000)}, nil
}

func (f *fakeBackend) Recharge(_ context.Context, req client.RechargeRequest) (client.RechargeResult, error) {
	f.post("recharge")
	return f.rechargeFn(req)
}

func (f *fakeBackend) SaveCard(_ context.Context, id string) (client.SaveCardResult, error) {
	f.post("save_card")
	f.mu.Lock()
	f.saved = append(f.saved, id)
	f.mu.Unlock()
	return f.saveCardFn(id)
}

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func twoStations() []station.Station {
	return []station.Station{
		{ID: 1, Nombre: "Station1", DisponiblesElectricas: 2, DisponiblesMecanicas: 1, TotalDisponibles: 3},
		{ID: 2, Nombre: "Station2", DisponiblesMecanicas: 4, TotalDisponibles: 4},
		{ID: 3, Nombre: "Station3"},
	}
}

type harness struct {
	backend *fakeBackend
	alerts  *notify.Recorder
	focused []Field
	session *Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{stations: twoStations()},
		alerts:  &notify.Recorder{},
	}
	h.session = New(h.backend, notify.NewPresenter(h.alerts, 0),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return testNow }),
		WithFocus(func(f Field) { h.focused = append(h.focused, f) }),
	)
	_, err := h.session.LoadStations(context.Background())
	require.NoError(t, err)
	return h
}

func validForm() ReservationForm {
	f := NewReservationForm(testNow)
	f.Origen = 1
	f.Destino = 2
	f.Hora = "10:00"
	return f
}

func TestNewReservationForm_Defaults(t *testing.T) {
	f := NewReservationForm(testNow)
	assert.Equal(t, "2026-03-10", f.Fecha)
	assert.Equal(t, "electric", string(f.TipoBicicleta))
	assert.Equal(t, reservation.UltimaMilla, f.TipoViaje)
	assert.Equal(t, reservation.Wallet, f.MetodoPago)
}

func TestReserve_SameStationRejectedWithoutRequest(t *testing.T) {
	h := newHarness(t)
	form := validForm()
	form.Destino = form.Origen

	_, err := h.session.Reserve(context.Background(), form)

	v, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, FieldDestino, v.Field)
	assert.Empty(t, h.backend.Posts())
	assert.Equal(t, notify.Alert{Message: "La estación de destino debe ser diferente a la de origen.", Kind: notify.Warning}, h.alerts.Last())
	assert.Equal(t, []Field{FieldDestino}, h.focused)
	assert.Equal(t, reservation.NoReservation, h.session.State())
}

func TestReserve_FirstFailingFieldReported(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*ReservationForm)
		field Field
		msg   string
	}{
		{"origin missing", func(f *ReservationForm) { f.Origen = 0; f.Destino = 0 }, FieldOrigen, "Por favor, selecciona una estación de origen."},
		{"destination missing", func(f *ReservationForm) { f.Destino = 0 }, FieldDestino, "Por favor, selecciona una estación de destino."},
		{"date missing", func(f *ReservationForm) { f.Fecha = ""; f.Hora = "" }, FieldFecha, "Por favor, selecciona una fecha."},
		{"date in the past", func(f *ReservationForm) { f.Fecha = "2026-03-09" }, FieldFecha, "La fecha de reserva no puede ser anterior a hoy."},
		{"date malformed", func(f *ReservationForm) { f.Fecha = "10/03/2026" }, FieldFecha, "La fecha seleccionada no es válida."},
		{"time missing", func(f *ReservationForm) { f.Hora = "" }, FieldHora, "Por favor, selecciona una hora."},
		{"time malformed", func(f *ReservationForm) { f.Hora = "25:00" }, FieldHora, "La hora seleccionada no es válida."},
		{"origin sold out", func(f *ReservationForm) { f.Origen = 3 }, FieldOrigen, "La estación de origen no tiene bicicletas disponibles."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			form := validForm()
			tt.edit(&form)

			_, err := h.session.Reserve(context.Background(), form)

			v, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, v.Field)
			assert.Equal(t, tt.msg, h.alerts.Last().Message)
			assert.Empty(t, h.backend.Posts())
		})
	}
}

func TestReserve_FutureDateAccepted(t *testing.T) {
	form := validForm()
	form.Fecha = "2026-03-11"
	assert.Nil(t, form.Validate(testNow, twoStations()))
}

func TestReserve_ConflictShowsServerDetail(t *testing.T) {
	h := newHarness(t)
	h.backend.reserveFn = func(client.ReserveRequest) (reservation.Reservation, error) {
		return reservation.Reservation{}, &client.APIError{Status: 409, Detail: "Ya tienes un viaje activo"}
	}

	_, err := h.session.Reserve(context.Background(), validForm())

	require.Error(t, err)
	assert.Equal(t, reservation.NoReservation, h.session.State())
	assert.Equal(t, notify.Alert{Message: "Ya tienes un viaje activo", Kind: notify.Danger}, h.alerts.Last())
	assert.False(t, h.session.Button(ActionReserve).Disabled())
	assert.Equal(t, []string{"reserve"}, h.backend.Posts())
}

func TestReserve_TransportErrorShowsGenericMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.reserveFn = func(client.ReserveRequest) (reservation.Reservation, error) {
		return reservation.Reservation{}, errDown
	}

	_, err := h.session.Reserve(context.Background(), validForm())

	require.ErrorIs(t, err, errDown)
	assert.Equal(t, "Error inesperado al crear la reserva. Por favor, intenta de nuevo.", h.alerts.Last().Message)
	assert.Equal(t, reservation.NoReservation, h.session.State())
}

func TestReserve_RejectedWithoutDetailShowsFallback(t *testing.T) {
	h := newHarness(t)
	h.backend.reserveFn = func(client.ReserveRequest) (reservation.Reservation, error) {
		return reservation.Reservation{}, &client.APIError{Status: 500}
	}

	_, _ = h.session.Reserve(context.Background(), validForm())

	assert.Equal(t, "No se pudo completar la reserva.", h.alerts.Last().Message)
}

func TestLifecycle_ReserveStartEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	open := reservation.Reservation{
		ID: 7, Estado: reservation.EstadoReservado, EstacionOrigen: "Station1", EstacionDestino: "Station2",
		TipoViaje: reservation.UltimaMilla, BikeSerial: "BK-001", CostoEstimado: reservation.Pesos(17500),
	}

	var sent client.ReserveRequest
	h.backend.reserveFn = func(req client.ReserveRequest) (reservation.Reservation, error) {
		sent = req
		h.backend.setReservations(open)
		created := open
		created.CodigoDesbloqueo = "XYZ123"
		return created, nil
	}
	h.backend.startFn = func(string) (client.StartResult, error) {
		started := open
		started.Estado = reservation.EstadoActivo
		h.backend.setReservations(started)
		at := testNow.Add(-90 * time.Second)
		return client.StartResult{RentalID: 7, Estado: reservation.EstadoActivo, HoraInicio: &at}, nil
	}
	var ended int64
	h.backend.endFn = func(id int64) (client.EndResult, error) {
		ended = id
		h.backend.setReservations()
		return client.EndResult{Mensaje: "Viaje finalizado", CostoTotal: reservation.Pesos(17500), DuracionMinutos: 12}, nil
	}

	created, err := h.session.Reserve(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "XYZ123", h.session.UnlockCode())
	assert.Contains(t, h.alerts.Last().Message, "XYZ123")
	assert.Equal(t, reservation.Reserved, h.session.State())
	assert.Equal(t, client.ReserveRequest{
		EstacionOrigenID: 1, EstacionDestinoID: 2, TipoBicicleta: "electric", TipoViaje: reservation.UltimaMilla,
		MetodoPago: reservation.Wallet, FechaReserva: "2026-03-10", HoraReserva: "10:00",
	}, sent)

	_, err = h.session.StartTrip(ctx, "xyz123")
	require.NoError(t, err)
	assert.Equal(t, []string{"XYZ123"}, h.backend.codes)
	assert.Equal(t, reservation.Active, h.session.State())
	assert.Equal(t, "✅ ¡Viaje iniciado correctamente! Disfruta tu recorrido.", h.alerts.Last().Message)

	timer, ok := h.session.TripTimer()
	require.True(t, ok)
	assert.Equal(t, "00:01:30", timer)

	res, err := h.session.EndTrip(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ended)
	assert.Equal(t, reservation.Completed, h.session.State())
	assert.True(t, h.session.State().AllowsNewReservation())
	assert.Equal(t, reservation.Pesos(17500), res.CostoTotal)
	assert.Equal(t, notify.Success, h.alerts.Last().Kind)
	assert.Contains(t, h.alerts.Last().Message, "Viaje finalizado")

	_, ok = h.session.TripTimer()
	assert.False(t, ok)
}

func TestReserve_StateKeptWhenRefreshFails(t *testing.T) {
	h := newHarness(t)
	h.backend.reservationsErr = errDown
	h.backend.reserveFn = func(client.ReserveRequest) (reservation.Reservation, error) {
		return reservation.Reservation{ID: 7, Estado: reservation.EstadoReservado, CodigoDesbloqueo: "XYZ123"}, nil
	}

	_, err := h.session.Reserve(context.Background(), validForm())

	require.NoError(t, err)
	assert.Equal(t, reservation.Reserved, h.session.State())
	assert.Equal(t, "XYZ123", h.session.UnlockCode())
}

func TestReserve_RefreshFailureKeepsListsAndAsksReload(t *testing.T) {
	h := newHarness(t)
	h.backend.reserveFn = func(client.ReserveRequest) (reservation.Reservation, error) {
		return reservation.Reservation{ID: 7, Estado: reservation.EstadoReservado, CodigoDesbloqueo: "XYZ123"}, nil
	}
	h.backend.stationsErr = errDown
	h.backend.reservationsErr = errDown

	_, err := h.session.Reserve(context.Background(), validForm())

	require.NoError(t, err)
	assert.Len(t, h.session.Stations(), 3)
	last := h.alerts.Last()
	assert.Equal(t, notify.Warning, last.Kind)
	assert.Contains(t, last.Message, "XYZ123")
	assert.Contains(t, last.Message, "recarga la página")
}

func TestStartTrip_RefreshFailureKeepsReservationForCancel(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(reservation.Reservation{ID: 7, Estado: reservation.EstadoReservado})
	_, err := h.session.LoadReservations(context.Background())
	require.NoError(t, err)
	h.backend.startFn = func(string) (client.StartResult, error) {
		return client.StartResult{RentalID: 7, Estado: reservation.EstadoActivo}, nil
	}
	h.backend.reservationsErr = errDown

	_, err = h.session.StartTrip(context.Background(), "xyz123")
	require.NoError(t, err)
	assert.Equal(t, reservation.Active, h.session.State())
	require.Len(t, h.session.Reservations(), 1)

	h.backend.cancelFn = func(int64, string) (client.CancelResult, error) {
		return client.CancelResult{Status: "cancelled", RentalID: 7}, nil
	}
	_, err = h.session.Cancel(context.Background(), 7, "Llanta pinchada")

	require.NoError(t, err)
	assert.Equal(t, []string{"start", "cancel"}, h.backend.Posts())
}

func TestStartTrip_ShortCodeRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.session.StartTrip(context.Background(), "AB1")

	v, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, FieldCodigo, v.Field)
	assert.Equal(t, notify.Alert{Message: "El código debe tener al menos 6 caracteres.", Kind: notify.Warning}, h.alerts.Last())
	assert.Empty(t, h.backend.Posts())
}

func TestStartTrip_EmptyCodeRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.session.StartTrip(context.Background(), "   ")

	require.Error(t, err)
	assert.Equal(t, "Por favor, ingresa el código de desbloqueo.", h.alerts.Last().Message)
	assert.Empty(t, h.backend.Posts())
}

func TestStartTrip_CodeNormalized(t *testing.T) {
	h := newHarness(t)
	h.backend.startFn = func(string) (client.StartResult, error) {
		return client.StartResult{}, &client.APIError{Status: 400, Detail: "Código inválido."}
	}

	_, err := h.session.StartTrip(context.Background(), " ab12cd ")

	require.Error(t, err)
	assert.Equal(t, []string{"AB12CD"}, h.backend.codes)
	assert.Equal(t, notify.Alert{Message: "Código inválido.", Kind: notify.Danger}, h.alerts.Last())
	assert.Equal(t, reservation.NoReservation, h.session.State())
}

func TestEndTrip_WithoutActiveTripWarns(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(reservation.Reservation{ID: 4, Estado: reservation.EstadoReservado})
	_, err := h.session.LoadReservations(context.Background())
	require.NoError(t, err)

	_, err = h.session.EndTrip(context.Background())

	require.ErrorIs(t, err, reservation.ErrNotActive)
	assert.Equal(t, notify.Alert{Message: "No hay un viaje activo para finalizar.", Kind: notify.Warning}, h.alerts.Last())
	assert.Empty(t, h.backend.Posts())
}

func TestCancel_EmptyReasonRejected(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(reservation.Reservation{ID: 7, Estado: reservation.EstadoReservado})
	_, err := h.session.LoadReservations(context.Background())
	require.NoError(t, err)

	_, err = h.session.Cancel(context.Background(), 7, "  ")

	v, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, FieldReason, v.Field)
	assert.Equal(t, "Por favor, indica el motivo de la cancelación.", h.alerts.Last().Message)
	assert.Empty(t, h.backend.Posts())
}

func TestCancel_UnknownReservationRejected(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(reservation.Reservation{ID: 7, Estado: reservation.EstadoReservado})
	_, err := h.session.LoadReservations(context.Background())
	require.NoError(t, err)

	_, err = h.session.Cancel(context.Background(), 8, "Cambio de planes")

	v, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, FieldReserva, v.Field)
	assert.Equal(t, "Por favor, selecciona una reserva válida.", h.alerts.Last().Message)
	assert.Empty(t, h.backend.Posts())
}

func TestCancel_Success(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(reservation.Reservation{ID: 7, Estado: reservation.EstadoReservado})
	_, err := h.session.LoadReservations(context.Background())
	require.NoError(t, err)
	require.Equal(t, reservation.Reserved, h.session.State())

	var reason string
	h.backend.cancelFn = func(_ int64, r string) (client.CancelResult, error) {
		reason = r
		h.backend.setReservations()
		return client.CancelResult{Status: "cancelled", RentalID: 7, RefundedAmount: reservation.Pesos(17500)}, nil
	}

	_, err = h.session.Cancel(context.Background(), 7, "  Cambio de planes ")

	require.NoError(t, err)
	assert.Equal(t, "Cambio de planes", reason)
	assert.Equal(t, reservation.Cancelled, h.session.State())
	assert.Equal(t, "✅ Reserva cancelada correctamente. El saldo ha sido devuelto a tu billetera.", h.alerts.Last().Message)
	assert.Empty(t, h.session.Reservations())
}

func TestCancel_FailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(reservation.Reservation{ID: 7, Estado: reservation.EstadoActivo})
	_, err := h.session.LoadReservations(context.Background())
	require.NoError(t, err)
	h.backend.cancelFn = func(int64, string) (client.CancelResult, error) {
		return client.CancelResult{}, &client.APIError{Status: 400, Detail: "Solo se pueden cancelar reservas pendientes."}
	}

	_, err = h.session.Cancel(context.Background(), 7, "No la necesito")

	require.Error(t, err)
	assert.Equal(t, reservation.Active, h.session.State())
	assert.Equal(t, "Solo se pueden cancelar reservas pendientes.", h.alerts.Last().Message)
}

func TestButton_DisabledForOneInFlightRequest(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.backend.reserveFn = func(client.ReserveRequest) (reservation.Reservation, error) {
		<-release
		return reservation.Reservation{}, &client.APIError{Status: 400, Detail: "no"}
	}

	done := make(chan error)
	go func() {
		_, err := h.session.Reserve(context.Background(), validForm())
		done <- err
	}()

	btn := h.session.Button(ActionReserve)
	require.Eventually(t, btn.Disabled, time.Second, time.Millisecond)
	assert.Equal(t, "Procesando...", btn.Label())

	_, err := h.session.Reserve(context.Background(), validForm())
	require.ErrorIs(t, err, ErrBusy)

	close(release)
	require.Error(t, <-done)
	assert.False(t, btn.Disabled())
	assert.Equal(t, "Confirmar Reserva", btn.Label())
	assert.Equal(t, []string{"reserve"}, h.backend.Posts())
}

func TestLoadReservations_MoreThanOneOpenIsInconsistent(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(
		reservation.Reservation{ID: 1, Estado: reservation.EstadoReservado},
		reservation.Reservation{ID: 2, Estado: reservation.EstadoActivo},
	)

	_, err := h.session.LoadReservations(context.Background())

	require.ErrorIs(t, err, reservation.ErrInconsistentState)
	assert.Equal(t, notify.Danger, h.alerts.Last().Kind)
	assert.Equal(t, reservation.NoReservation, h.session.State())
}

func TestLoadReservations_TerminalOnesDoNotBlock(t *testing.T) {
	h := newHarness(t)
	h.backend.setReservations(
		reservation.Reservation{ID: 1, Estado: reservation.EstadoCompletado},
		reservation.Reservation{ID: 2, Estado: reservation.EstadoCancelado},
	)

	_, err := h.session.LoadReservations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reservation.NoReservation, h.session.State())
}

func TestLoadStations_FailureEmptiesCache(t *testing.T) {
	h := newHarness(t)
	require.Len(t, h.session.Stations(), 3)
	h.backend.stationsErr = errDown

	_, err := h.session.LoadStations(context.Background())

	require.Error(t, err)
	assert.Empty(t, h.session.Stations())
	assert.Equal(t, notify.Alert{Message: "Error al cargar las estaciones. Por favor, recarga la página.", Kind: notify.Danger}, h.alerts.Last())
}

func TestLoadHistory_ResetsPager(t *testing.T) {
	h := newHarness(t)
	trips := make([]history.Trip, 23)
	for i := range trips {
		trips[i] = history.Trip{ID: int64(i + 1), Estado: reservation.EstadoCompletado}
	}
	h.backend.history = history.Response{Viajes: trips, Estadisticas: history.Statistics{TotalViajes: 23}}

	h.session.History().GoTo(2)
	_, err := h.session.LoadHistory(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, h.session.History().PageNumber())
	assert.Equal(t, 3, h.session.History().Pages())
	assert.Equal(t, 23, h.session.Statistics().TotalViajes)
}

func TestLoadHistory_Failure(t *testing.T) {
	h := newHarness(t)
	h.backend.historyErr = errDown

	_, err := h.session.LoadHistory(context.Background())

	require.Error(t, err)
	assert.Equal(t, notify.Danger, h.alerts.Last().Kind)
}

func TestLoadDashboard(t *testing.T) {
	h := newHarness(t)

	d, err := h.session.LoadDashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalViajes)
	assert.Equal(t, d, h.session.Dashboard())
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatElapsed(-time.Second))
	assert.Equal(t, "00:00:59", FormatElapsed(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "01:02:03", FormatElapsed(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "26:00:00", FormatElapsed(26*time.Hour))
}
