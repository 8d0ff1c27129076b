// Package history filters and pages a rider's trip list. Everything here
// works on an already fetched snapshot and never touches the network.
package history

import (
	"time"

	"github.com/semanticallynull/twomove-rider/reservation"
)

// DefaultPageSize is the number of trips shown per history page.
const DefaultPageSize = 10

type Trip struct {
	ID              int64                 `json:"id"`
	Estado          reservation.Estado    `json:"estado"`
	EstacionOrigen  string                `json:"estacion_origen"`
	EstacionDestino string                `json:"estacion_destino"`
	TipoViaje       reservation.TipoViaje `json:"tipo_viaje"`
	DuracionMinutos float64               `json:"duracion_minutos"`
	CostoTotal      reservation.Amount    `json:"costo_total"`
	HoraInicio      *time.Time            `json:"hora_inicio"`
	HoraFin         *time.Time            `json:"hora_fin"`
}

// Day is the calendar day a trip is filed under: the UTC date of its end
// time, or of its start time while it has none.
func (t Trip) Day() string {
	at := t.HoraFin
	if at == nil {
		at = t.HoraInicio
	}
	if at == nil {
		return ""
	}
	return at.UTC().Format(time.DateOnly)
}

type Statistics struct {
	TotalViajes  int                `json:"total_viajes"`
	TotalGastado reservation.Amount `json:"total_gastado"`
}

// Response is the body of the history endpoint.
type Response struct {
	Viajes       []Trip     `json:"viajes"`
	Estadisticas Statistics `json:"estadisticas"`
}

// Dashboard is the summary shown on the rider's landing page.
type Dashboard struct {
	TotalViajes    int                `json:"total_viajes"`
	TotalGastado   reservation.Amount `json:"total_gastado"`
	ViajesMes      int                `json:"viajes_mes"`
	MinutosTotales float64            `json:"minutos_totales"`
	Saldo          reservation.Amount `json:"saldo"`
}

// FromRental converts a stored rental into a history entry.
func FromRental(r reservation.Rental) Trip {
	t := Trip{
		ID:              r.ID,
		Estado:          r.Estado,
		EstacionOrigen:  r.EstacionOrigen,
		EstacionDestino: r.EstacionDestino.String,
		TipoViaje:       r.TipoViaje,
		CostoTotal:      r.CostoTotal,
	}
	if r.DuracionMinutos.Valid {
		t.DuracionMinutos = float64(r.DuracionMinutos.Int32)
	}
	if r.HoraInicio.Valid {
		at := r.HoraInicio.Time
		t.HoraInicio = &at
	}
	if r.HoraFin.Valid {
		at := r.HoraFin.Time
		t.HoraFin = &at
	}
	return t
}

// Summarize counts completed trips and what they cost.
func Summarize(trips []Trip) Statistics {
	var s Statistics
	for _, t := range trips {
		if t.Estado != reservation.EstadoCompletado {
			continue
		}
		s.TotalViajes++
		s.TotalGastado += t.CostoTotal
	}
	return s
}

// Summary builds the dashboard figures for the month containing now.
func Summary(trips []Trip, balance reservation.Amount, now time.Time) Dashboard {
	st := Summarize(trips)
	d := Dashboard{TotalViajes: st.TotalViajes, TotalGastado: st.TotalGastado, Saldo: balance}
	y, m, _ := now.UTC().Date()
	for _, t := range trips {
		if t.Estado != reservation.EstadoCompletado {
			continue
		}
		d.MinutosTotales += t.DuracionMinutos
		if t.HoraFin == nil {
			continue
		}
		if ty, tm, _ := t.HoraFin.UTC().Date(); ty == y && tm == m {
			d.ViajesMes++
		}
	}
	return d
}
