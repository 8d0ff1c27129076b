package reservation

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/semanticallynull/twomove-rider/bike"
)

var (
	ErrNotFound       = errors.New("reservation not found")
	ErrOpenRental     = errors.New("user already has an open reservation")
	ErrNotCancellable = errors.New("reservation cannot be cancelled")
	ErrNotActive      = errors.New("trip is not active")
	ErrInvalidCode    = errors.New("invalid unlock code")
	ErrNoReserved     = errors.New("no reservation waiting to start")
	ErrNoBike         = errors.New("no bike of the requested type available")
	ErrNoStation      = errors.New("station does not exist")
	ErrBalance        = errors.New("insufficient wallet balance")
	ErrNoCard         = errors.New("no card registered")
)

type Estado string

const (
	EstadoReservado  Estado = "reservado"
	EstadoActivo     Estado = "activo"
	EstadoCompletado Estado = "completado"
	EstadoCancelado  Estado = "cancelado"
)

// estadoFinalizado is the legacy name some backends store for completed
// rentals.
const estadoFinalizado = "finalizado"

// Open reports whether the reservation still blocks a new one.
func (e Estado) Open() bool {
	return e == EstadoReservado || e == EstadoActivo
}

func (e Estado) Terminal() bool {
	return e == EstadoCompletado || e == EstadoCancelado
}

// CanTransition reports whether the lifecycle allows moving from e to next.
func (e Estado) CanTransition(next Estado) bool {
	switch e {
	case EstadoReservado:
		return next == EstadoActivo || next == EstadoCancelado
	case EstadoActivo:
		return next == EstadoCompletado || next == EstadoCancelado
	}
	return false
}

func (e *Estado) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == estadoFinalizado {
		s = string(EstadoCompletado)
	}
	*e = Estado(s)
	return nil
}

func (e *Estado) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*e = Estado(v)
	case []byte:
		*e = Estado(v)
	default:
		return errors.New("invalid estado scan type")
	}
	if *e == estadoFinalizado {
		*e = EstadoCompletado
	}
	return nil
}

type TipoViaje string

const (
	UltimaMilla    TipoViaje = "ultima_milla"
	RecorridoLargo TipoViaje = "recorrido_largo"
)

func (t TipoViaje) Valid() bool {
	return t == UltimaMilla || t == RecorridoLargo
}

func (t TipoViaje) Label() string {
	if t == UltimaMilla {
		return "Última Milla"
	}
	return "Recorrido Largo"
}

// AllowedMinutes is the trip length included in the base price.
func (t TipoViaje) AllowedMinutes() int {
	if t == UltimaMilla {
		return 45
	}
	return 75
}

type MetodoPago string

const (
	Wallet MetodoPago = "wallet"
	Card   MetodoPago = "card"
)

func (m MetodoPago) Valid() bool {
	return m == Wallet || m == Card
}

func (m MetodoPago) Label() string {
	if m == Wallet {
		return "Saldo en App"
	}
	return "Tarjeta de Crédito"
}

// Reservation is the client view of a rental as served by the rentals API.
type Reservation struct {
	ID               int64      `json:"id"`
	Estado           Estado     `json:"estado"`
	EstacionOrigen   string     `json:"estacion_origen"`
	EstacionDestino  string     `json:"estacion_destino,omitempty"`
	TipoViaje        TipoViaje  `json:"tipo_viaje"`
	BikeSerial       string     `json:"bike_serial_reservada"`
	CodigoDesbloqueo string     `json:"codigo_desbloqueo,omitempty"`
	CostoEstimado    Amount     `json:"costo_estimado"`
	CostoTotal       Amount     `json:"costo_total"`
	FechaReserva     string     `json:"fecha_reserva"`
	HoraReserva      string     `json:"hora_reserva"`
	HoraInicio       *time.Time `json:"hora_inicio,omitempty"`
	MetodoPago       MetodoPago `json:"metodo_pago"`
}

// UnmarshalJSON accepts the create response, which names the id rental_id.
func (r *Reservation) UnmarshalJSON(b []byte) error {
	type plain Reservation
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var ids struct {
		RentalID int64 `json:"rental_id"`
	}
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*r = Reservation(p)
	if r.ID == 0 {
		r.ID = ids.RentalID
	}
	return nil
}

// Rental is the persisted form of a reservation kept by the sandbox backend.
type Rental struct {
	ID                int64          `db:"id"`
	UserID            string         `db:"user_id"`
	Estado            Estado         `db:"estado"`
	EstacionOrigenID  int64          `db:"estacion_origen_id"`
	EstacionOrigen    string         `db:"estacion_origen"`
	EstacionDestinoID sql.NullInt64  `db:"estacion_destino_id"`
	EstacionDestino   sql.NullString `db:"estacion_destino"`
	TipoViaje         TipoViaje      `db:"tipo_viaje"`
	TipoBicicleta     bike.Tipo      `db:"tipo_bicicleta"`
	MetodoPago        MetodoPago     `db:"metodo_pago"`
	BikeSerial        string         `db:"bike_serial"`
	Codigo            string         `db:"codigo_desbloqueo"`
	FechaReserva      string         `db:"fecha_reserva"`
	HoraReserva       string         `db:"hora_reserva"`
	HoraInicio        sql.NullTime   `db:"hora_inicio"`
	HoraFin           sql.NullTime   `db:"hora_fin"`
	DuracionMinutos   sql.NullInt32  `db:"duracion_minutos"`
	CostoEstimado     Amount         `db:"costo_estimado"`
	CostoTotal        Amount         `db:"costo_total"`
	CancelReason      sql.NullString `db:"cancel_reason"`
	CreatedAt         time.Time      `db:"created_at"`
}

// View converts the record into the client view. The unlock code is only
// included when withCode is set.
func (r Rental) View(withCode bool) Reservation {
	v := Reservation{
		ID:              r.ID,
		Estado:          r.Estado,
		EstacionOrigen:  r.EstacionOrigen,
		EstacionDestino: r.EstacionDestino.String,
		TipoViaje:       r.TipoViaje,
		BikeSerial:      r.BikeSerial,
		CostoEstimado:   r.CostoEstimado,
		CostoTotal:      r.CostoTotal,
		FechaReserva:    r.FechaReserva,
		HoraReserva:     r.HoraReserva,
		MetodoPago:      r.MetodoPago,
	}
	if r.HoraInicio.Valid {
		at := r.HoraInicio.Time
		v.HoraInicio = &at
	}
	if withCode {
		v.CodigoDesbloqueo = r.Codigo
	}
	return v
}

// Unlocks reports whether codigo starts this rental. The bike serial is
// accepted as well as the unlock code.
func (r Rental) Unlocks(codigo string) bool {
	c := strings.TrimSpace(codigo)
	if c == "" {
		return false
	}
	return c == r.Codigo || c == r.BikeSerial
}

// Finish completes an active rental at now and prices it.
func (r *Rental) Finish(now time.Time) {
	minutes := DurationMinutes(now.Sub(r.HoraInicio.Time))
	r.Estado = EstadoCompletado
	r.HoraFin = sql.NullTime{Time: now, Valid: true}
	r.DuracionMinutos = sql.NullInt32{Int32: int32(minutes), Valid: true}
	r.CostoTotal = TotalCost(r.TipoViaje, minutes, !r.EstacionDestinoID.Valid)
}

// ReserveParams is everything the backend needs to create a rental.
type ReserveParams struct {
	UserID            string
	EstacionOrigenID  int64
	EstacionDestinoID int64
	TipoBicicleta     bike.Tipo
	TipoViaje         TipoViaje
	MetodoPago        MetodoPago
	FechaReserva      string
	HoraReserva       string
	Codigo            string
}
