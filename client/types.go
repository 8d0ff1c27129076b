package client

import (
	"time"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/reservation"
)

type ReserveRequest struct {
	EstacionOrigenID  int64                  `json:"estacion_origen_id"`
	EstacionDestinoID int64                  `json:"estacion_destino_id"`
	TipoBicicleta     bike.Tipo              `json:"tipo_bicicleta"`
	TipoViaje         reservation.TipoViaje  `json:"tipo_viaje"`
	MetodoPago        reservation.MetodoPago `json:"metodo_pago"`
	FechaReserva      string                 `json:"fecha_reserva"`
	HoraReserva       string                 `json:"hora_reserva"`
}

type StartRequest struct {
	Codigo string `json:"codigo"`
}

type StartResult struct {
	Mensaje    string             `json:"mensaje"`
	RentalID   int64              `json:"rental_id"`
	Estado     reservation.Estado `json:"estado"`
	HoraInicio *time.Time         `json:"hora_inicio,omitempty"`
}

type EndRequest struct {
	RentalID int64 `json:"rental_id"`
}

type EndResult struct {
	Mensaje         string             `json:"mensaje"`
	CostoTotal      reservation.Amount `json:"costo_total"`
	DuracionMinutos float64            `json:"duracion_minutos"`
	EstacionDestino string             `json:"estacion_destino"`
}

type CancelRequest struct {
	RentalID int64  `json:"rental_id"`
	Reason   string `json:"reason"`
}

type CancelResult struct {
	Status         string             `json:"status"`
	RentalID       int64              `json:"rental_id"`
	Estado         reservation.Estado `json:"estado"`
	PaymentMethod  string             `json:"payment_method"`
	RefundedAmount reservation.Amount `json:"refunded_amount"`
	CancelledAt    string             `json:"cancelled_at"`
	Reason         string             `json:"reason"`
}

type RechargeRequest struct {
	Amount          reservation.Amount `json:"amount"`
	PaymentMethodID string             `json:"payment_method_id"`
}

type RechargeResult struct {
	Mensaje string             `json:"mensaje"`
	Estado  string             `json:"estado"`
	Monto   reservation.Amount `json:"monto"`
	Saldo   reservation.Amount `json:"saldo"`
}

type SaveCardRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

type SaveCardResult struct {
	Mensaje string `json:"mensaje"`
}

type SetupIntentResult struct {
	SetupIntent string `json:"setupIntent"`
}
