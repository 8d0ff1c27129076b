package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/internal/middleware"
	"github.com/semanticallynull/twomove-rider/reservation"
)

// rentalErrors maps store errors to the status and message the rentals API
// answers with.
var rentalErrors = []struct {
	err    error
	status int
	detail string
}{
	{reservation.ErrOpenRental, http.StatusConflict, "Ya tienes una reserva o viaje activo."},
	{reservation.ErrNoStation, http.StatusBadRequest, "La estación seleccionada no existe."},
	{reservation.ErrNoBike, http.StatusBadRequest, "No hay bicicletas disponibles del tipo solicitado en esta estación."},
	{reservation.ErrBalance, http.StatusBadRequest, "Saldo insuficiente en tu billetera."},
	{reservation.ErrNoCard, http.StatusBadRequest, "No tienes una tarjeta registrada."},
	{reservation.ErrNoReserved, http.StatusBadRequest, "No existe ninguna reserva en estado 'reservado' para este usuario."},
	{reservation.ErrInvalidCode, http.StatusBadRequest, "Código incorrecto."},
	{reservation.ErrNotFound, http.StatusNotFound, "No se encontró la reserva o no pertenece a este usuario."},
	{reservation.ErrNotActive, http.StatusBadRequest, "El viaje no está activo."},
	{reservation.ErrNotCancellable, http.StatusBadRequest, "Esta reserva no puede ser cancelada porque ya fue iniciada o finalizada."},
}

func rentalError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	for _, e := range rentalErrors {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"detail": e.detail})
			return
		}
	}
	logger.Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
}

func (a *API) openRentalsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	rentals, err := a.rr.Open(c, userID)
	if err != nil {
		rentalError(c, logger, "Failed to get open rentals", err)
		return
	}

	resp := make([]reservation.Reservation, 0, len(rentals))
	for _, r := range rentals {
		resp = append(resp, r.View(false))
	}
	c.JSON(http.StatusOK, resp)
}

type reserveRequest struct {
	EstacionOrigenID  int64                  `json:"estacion_origen_id" binding:"required"`
	EstacionDestinoID int64                  `json:"estacion_destino_id" binding:"required"`
	TipoBicicleta     bike.Tipo              `json:"tipo_bicicleta" binding:"required,oneof=electric manual"`
	TipoViaje         reservation.TipoViaje  `json:"tipo_viaje" binding:"required,oneof=ultima_milla recorrido_largo"`
	MetodoPago        reservation.MetodoPago `json:"metodo_pago" binding:"required,oneof=wallet card"`
	FechaReserva      string                 `json:"fecha_reserva" binding:"required,datetime=2006-01-02"`
	HoraReserva       string                 `json:"hora_reserva" binding:"required,datetime=15:04"`
}

type reserveResponse struct {
	reservation.Reservation
	Status   string `json:"status"`
	RentalID int64  `json:"rental_id"`
}

func (a *API) reserveHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Datos de reserva inválidos.", "error": err.Error()})
		return
	}
	if req.EstacionOrigenID == req.EstacionDestinoID {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "La estación de destino debe ser diferente a la de origen."})
		return
	}

	if _, err := a.wr.CreateCustomer(c, userID); err != nil {
		logger.Error("Failed to create customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	code, err := reservation.NewCode()
	if err != nil {
		logger.Error("Failed to generate unlock code", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	r, err := a.rr.Reserve(c, reservation.ReserveParams{
		UserID:            userID,
		EstacionOrigenID:  req.EstacionOrigenID,
		EstacionDestinoID: req.EstacionDestinoID,
		TipoBicicleta:     req.TipoBicicleta,
		TipoViaje:         req.TipoViaje,
		MetodoPago:        req.MetodoPago,
		FechaReserva:      req.FechaReserva,
		HoraReserva:       req.HoraReserva,
		Codigo:            code,
	})
	if err != nil {
		rentalError(c, logger, "Failed to reserve", err)
		return
	}

	logger.Info("Reservation created", "rental", r.ID, "bike", r.BikeSerial)
	c.JSON(http.StatusCreated, reserveResponse{Reservation: r.View(true), Status: "ok", RentalID: r.ID})
}

type startRequest struct {
	Codigo string `json:"codigo"`
}

type startResponse struct {
	Mensaje    string             `json:"mensaje"`
	RentalID   int64              `json:"rental_id"`
	Estado     reservation.Estado `json:"estado"`
	HoraInicio time.Time          `json:"hora_inicio"`
}

func (a *API) startTripHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	codigo := strings.ToUpper(strings.TrimSpace(req.Codigo))
	if codigo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Debe enviar 'codigo'."})
		return
	}

	r, err := a.rr.Start(c, userID, codigo, a.now())
	if err != nil {
		rentalError(c, logger, "Failed to start trip", err)
		return
	}

	c.JSON(http.StatusOK, startResponse{
		Mensaje:    "Viaje iniciado correctamente.",
		RentalID:   r.ID,
		Estado:     r.Estado,
		HoraInicio: r.HoraInicio.Time,
	})
}

type endRequest struct {
	RentalID int64 `json:"rental_id"`
}

type endResponse struct {
	Mensaje         string             `json:"mensaje"`
	CostoTotal      reservation.Amount `json:"costo_total"`
	DuracionMinutos int32              `json:"duracion_minutos"`
	EstacionDestino string             `json:"estacion_destino"`
}

func (a *API) endTripHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req endRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RentalID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Debe enviar 'rental_id'."})
		return
	}

	r, err := a.rr.End(c, userID, req.RentalID, a.now())
	if err != nil {
		rentalError(c, logger, "Failed to end trip", err)
		return
	}

	c.JSON(http.StatusOK, endResponse{
		Mensaje:         "Viaje finalizado correctamente.",
		CostoTotal:      r.CostoTotal,
		DuracionMinutos: r.DuracionMinutos.Int32,
		EstacionDestino: r.EstacionDestino.String,
	})
}

type cancelRequest struct {
	RentalID int64  `json:"rental_id"`
	Reason   string `json:"reason"`
}

type cancelResponse struct {
	Status         string                 `json:"status"`
	RentalID       int64                  `json:"rental_id"`
	Estado         reservation.Estado     `json:"estado"`
	PaymentMethod  reservation.MetodoPago `json:"payment_method"`
	RefundedAmount reservation.Amount     `json:"refunded_amount"`
	CancelledAt    string                 `json:"cancelled_at"`
	Reason         string                 `json:"reason"`
}

func (a *API) cancelHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RentalID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Debe enviar 'rental_id'."})
		return
	}

	r, err := a.rr.Cancel(c, userID, req.RentalID, strings.TrimSpace(req.Reason), a.now())
	if err != nil {
		rentalError(c, logger, "Failed to cancel rental", err)
		return
	}

	c.JSON(http.StatusOK, toCancelResponse(r))
}

func toCancelResponse(r reservation.Rental) cancelResponse {
	resp := cancelResponse{
		Status:        "cancelled",
		RentalID:      r.ID,
		Estado:        r.Estado,
		PaymentMethod: r.MetodoPago,
		CancelledAt:   r.HoraFin.Time.Format(time.RFC3339),
		Reason:        r.CancelReason.String,
	}
	if r.MetodoPago == reservation.Wallet {
		resp.RefundedAmount = r.CostoEstimado
	}
	return resp
}
