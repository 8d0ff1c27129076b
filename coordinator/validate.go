package coordinator

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

// Field names a form input that validation can point the rider to.
type Field string

const (
	FieldOrigen        Field = "estacionOrigen"
	FieldDestino       Field = "estacionDestino"
	FieldFecha         Field = "fechaReserva"
	FieldHora          Field = "horaReserva"
	FieldTipoBicicleta Field = "tipoBicicleta"
	FieldTipoViaje     Field = "tipoViaje"
	FieldMetodoPago    Field = "metodoPago"
	FieldCodigo        Field = "codigo"
	FieldReserva       Field = "reserva"
	FieldReason        Field = "reason"
	FieldAmount        Field = "amount"
	FieldPaymentMethod Field = "paymentMethod"
	FieldCard          Field = "card"
)

// ValidationError is a form problem caught before any request is sent.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

func invalid(field Field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// MinCodeLength is the shortest unlock code accepted.
const MinCodeLength = 6

const hourLayout = "15:04"

// ReservationForm is the content of the reservation page. Station ids are
// zero when nothing is selected.
type ReservationForm struct {
	Origen        int64
	Destino       int64
	TipoBicicleta bike.Tipo
	TipoViaje     reservation.TipoViaje
	MetodoPago    reservation.MetodoPago
	// Fecha is YYYY-MM-DD and Hora is HH:MM.
	Fecha string
	Hora  string
}

// NewReservationForm is the form as first shown: today's date, an electric
// bike, a last-mile trip paid from the wallet.
func NewReservationForm(now time.Time) ReservationForm {
	return ReservationForm{
		TipoBicicleta: bike.Electric,
		TipoViaje:     reservation.UltimaMilla,
		MetodoPago:    reservation.Wallet,
		Fecha:         now.Format(time.DateOnly),
	}
}

// Validate checks the form in field order and returns the first problem.
// stations is the loaded station list; when empty, availability is left to
// the backend.
func (f ReservationForm) Validate(today time.Time, stations []station.Station) *ValidationError {
	if f.Origen == 0 {
		return invalid(FieldOrigen, "Por favor, selecciona una estación de origen.")
	}
	if f.Destino == 0 {
		return invalid(FieldDestino, "Por favor, selecciona una estación de destino.")
	}
	if f.Origen == f.Destino {
		return invalid(FieldDestino, "La estación de destino debe ser diferente a la de origen.")
	}
	if f.Fecha == "" {
		return invalid(FieldFecha, "Por favor, selecciona una fecha.")
	}
	day, err := time.ParseInLocation(time.DateOnly, f.Fecha, today.Location())
	if err != nil {
		return invalid(FieldFecha, "La fecha seleccionada no es válida.")
	}
	y, m, d := today.Date()
	if day.Before(time.Date(y, m, d, 0, 0, 0, 0, today.Location())) {
		return invalid(FieldFecha, "La fecha de reserva no puede ser anterior a hoy.")
	}
	if f.Hora == "" {
		return invalid(FieldHora, "Por favor, selecciona una hora.")
	}
	if _, err := time.Parse(hourLayout, f.Hora); err != nil {
		return invalid(FieldHora, "La hora seleccionada no es válida.")
	}
	if !f.TipoBicicleta.Valid() {
		return invalid(FieldTipoBicicleta, "Por favor, selecciona un tipo de bicicleta.")
	}
	if !f.TipoViaje.Valid() {
		return invalid(FieldTipoViaje, "Por favor, selecciona un tipo de viaje.")
	}
	if !f.MetodoPago.Valid() {
		return invalid(FieldMetodoPago, "Por favor, selecciona un método de pago.")
	}
	for _, st := range stations {
		if st.ID == f.Origen && !st.Selectable() {
			return invalid(FieldOrigen, "La estación de origen no tiene bicicletas disponibles.")
		}
	}
	return nil
}

// NormalizeCode trims and upper-cases an unlock code as typed by the rider.
func NormalizeCode(codigo string) string {
	return strings.ToUpper(strings.TrimSpace(codigo))
}

func validateCode(codigo string) *ValidationError {
	if codigo == "" {
		return invalid(FieldCodigo, "Por favor, ingresa el código de desbloqueo.")
	}
	if utf8.RuneCountInString(codigo) < MinCodeLength {
		return invalid(FieldCodigo, "El código debe tener al menos 6 caracteres.")
	}
	return nil
}

func validateCancel(found bool, reason string) *ValidationError {
	if !found {
		return invalid(FieldReserva, "Por favor, selecciona una reserva válida.")
	}
	if reason == "" {
		return invalid(FieldReason, "Por favor, indica el motivo de la cancelación.")
	}
	return nil
}

func validateRecharge(amount reservation.Amount, paymentMethodID string) *ValidationError {
	if amount < reservation.Pesos(customer.MinRecharge) {
		return invalid(FieldAmount, "El monto mínimo de recarga es $1,000 COP")
	}
	if strings.TrimSpace(paymentMethodID) == "" {
		return invalid(FieldPaymentMethod, "Por favor, selecciona un método de pago.")
	}
	return nil
}
