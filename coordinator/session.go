// Package coordinator drives a rider's rental lifecycle: reserving a bike,
// starting and ending the trip, cancelling, and the wallet and history pages
// around it. A Session lives for one page load and talks to the backend only
// through Backend.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/semanticallynull/twomove-rider/client"
	"github.com/semanticallynull/twomove-rider/history"
	"github.com/semanticallynull/twomove-rider/internal/cache"
	"github.com/semanticallynull/twomove-rider/internal/notify"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

// Backend is the set of endpoints a session calls. *client.Client
// implements it.
type Backend interface {
	Stations(ctx context.Context) ([]station.Station, error)
	Reservations(ctx context.Context) ([]reservation.Reservation, error)
	Reserve(ctx context.Context, req client.ReserveRequest) (reservation.Reservation, error)
	StartTrip(ctx context.Context, codigo string) (client.StartResult, error)
	EndTrip(ctx context.Context, rentalID int64) (client.EndResult, error)
	Cancel(ctx context.Context, rentalID int64, reason string) (client.CancelResult, error)
	History(ctx context.Context) (history.Response, error)
	Dashboard(ctx context.Context) (history.Dashboard, error)
	Recharge(ctx context.Context, req client.RechargeRequest) (client.RechargeResult, error)
	SaveCard(ctx context.Context, paymentMethodID string) (client.SaveCardResult, error)
}

// Notifier shows a status message to the rider. *notify.Presenter
// implements it.
type Notifier interface {
	Show(message string, kind notify.Kind)
}

const (
	msgStationsLoad     = "Error al cargar las estaciones. Por favor, recarga la página."
	msgReservationsLoad = "Error al obtener tus reservas. Por favor, recarga la página."
	msgTripLoad         = "Error al cargar la información del viaje. Por favor, recarga la página."
	msgHistoryLoad      = "Error al cargar el historial de viajes. Por favor, recarga la página."
	msgInconsistent     = "Tienes más de una reserva abierta. Por favor, contacta a soporte."
	msgStale            = "No se pudo actualizar la información. Por favor, recarga la página."
)

type Session struct {
	backend Backend
	alerts  Notifier
	logger  *slog.Logger
	now     func() time.Time
	focus   func(Field)

	stations     *cache.List[station.Station]
	reservations *cache.List[reservation.Reservation]
	buttons      map[Action]*Button

	mu        sync.Mutex
	state     reservation.State
	created   *reservation.Reservation
	lastEnd   *client.EndResult
	startedAt time.Time
	pager     *history.Pager
	stats     history.Statistics
	dashboard history.Dashboard
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock sets the clock used for the reservation date default and the trip
// timer.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithFocus registers a callback invoked with the first field that failed
// validation.
func WithFocus(fn func(Field)) Option {
	return func(s *Session) { s.focus = fn }
}

func New(backend Backend, alerts Notifier, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		alerts:  alerts,
		logger:  slog.Default(),
		now:     time.Now,
		focus:   func(Field) {},
		buttons: newButtons(),
		pager:   history.NewPager(nil, history.DefaultPageSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stations = cache.NewList(backend.Stations, func(st station.Station) int64 { return st.ID })
	s.reservations = cache.NewList(backend.Reservations, func(r reservation.Reservation) int64 { return r.ID })
	return s
}

// LoadStations fetches the station list. On failure the list is left empty
// and a danger alert asks the rider to reload.
func (s *Session) LoadStations(ctx context.Context) ([]station.Station, error) {
	list, err := s.stations.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load stations", "error", err)
		s.alerts.Show(msgStationsLoad, notify.Danger)
		return nil, err
	}
	for _, st := range list {
		if !st.Consistent() {
			s.logger.WarnContext(ctx, "Station availability does not add up", "station", st.ID,
				"total", st.TotalDisponibles, "electricas", st.DisponiblesElectricas, "mecanicas", st.DisponiblesMecanicas)
		}
	}
	return list, nil
}

// LoadReservations fetches the rider's reservations and derives the session
// state from them.
func (s *Session) LoadReservations(ctx context.Context) ([]reservation.Reservation, error) {
	list, err := s.refresh(ctx)
	if err != nil {
		if errors.Is(err, reservation.ErrInconsistentState) {
			s.alerts.Show(msgInconsistent, notify.Danger)
		} else {
			s.alerts.Show(msgReservationsLoad, notify.Danger)
		}
		return nil, err
	}
	return list, nil
}

// refresh re-fetches the reservation list and, when it yields a valid
// observation, moves the state to it.
func (s *Session) refresh(ctx context.Context) ([]reservation.Reservation, error) {
	list, err := s.reservations.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load reservations", "error", err)
		return nil, err
	}
	state, _, err := reservation.Observe(list)
	if err != nil {
		s.logger.ErrorContext(ctx, "Inconsistent reservation list", "error", err)
		return list, err
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return list, nil
}

func (s *Session) setState(state reservation.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Session) State() reservation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stations is the cached station list.
func (s *Session) Stations() []station.Station {
	return s.stations.All()
}

// Reservations is the cached reservation list.
func (s *Session) Reservations() []reservation.Reservation {
	return s.reservations.All()
}

// Active is the open reservation in the cache, if any.
func (s *Session) Active() (reservation.Reservation, bool) {
	_, open, err := reservation.Observe(s.reservations.All())
	if err != nil || open == nil {
		return reservation.Reservation{}, false
	}
	return *open, true
}

// UnlockCode is the code returned when the last reservation was created. It
// is only known to the session that created the reservation.
func (s *Session) UnlockCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created == nil {
		return ""
	}
	return s.created.CodigoDesbloqueo
}

// Created is the reservation returned by the last successful Reserve.
func (s *Session) Created() (reservation.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created == nil {
		return reservation.Reservation{}, false
	}
	return *s.created, true
}

// LastEnd is the pricing of the last trip ended in this session.
func (s *Session) LastEnd() (client.EndResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastEnd == nil {
		return client.EndResult{}, false
	}
	return *s.lastEnd, true
}

// Button returns the control bound to action.
func (s *Session) Button(action Action) *Button {
	return s.buttons[action]
}

func (s *Session) warn(v *ValidationError) error {
	s.alerts.Show(v.Message, notify.Warning)
	s.focus(v.Field)
	return v
}

// fail reports a failed request: the server's message when it sent one,
// otherwise fallback for a rejected request and transport for one that never
// got an answer.
func (s *Session) fail(ctx context.Context, msg string, err error, fallback, transport string) error {
	s.logger.ErrorContext(ctx, msg, "error", err)
	text := fallback
	if _, ok := client.AsAPIError(err); !ok {
		text = transport
	}
	s.alerts.Show(client.Message(err, text), notify.Danger)
	return err
}
