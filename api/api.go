// Package api is the sandbox rentals backend: a gin server that speaks the
// same HTTP contract as the TwoMove backend so the rider client can be run
// end to end without it.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/internal/middleware"
	"github.com/semanticallynull/twomove-rider/internal/o11y"
	"github.com/semanticallynull/twomove-rider/reservation"
	"github.com/semanticallynull/twomove-rider/station"
)

type StationStore interface {
	GetStations(ctx context.Context) ([]station.Station, error)
	GetStation(ctx context.Context, id int64) (station.Station, error)
}

type BikeStore interface {
	GetBikesAtStation(ctx context.Context, stationID int64) ([]bike.Bike, error)
}

type RentalStore interface {
	Open(ctx context.Context, userID string) ([]reservation.Rental, error)
	History(ctx context.Context, userID string) ([]reservation.Rental, error)
	Reserve(ctx context.Context, p reservation.ReserveParams) (reservation.Rental, error)
	Start(ctx context.Context, userID, codigo string, now time.Time) (reservation.Rental, error)
	End(ctx context.Context, userID string, id int64, now time.Time) (reservation.Rental, error)
	Cancel(ctx context.Context, userID string, id int64, reason string, now time.Time) (reservation.Rental, error)
}

type WalletStore interface {
	GetCustomer(ctx context.Context, userID string) (*customer.Customer, error)
	CreateCustomer(ctx context.Context, userID string) (*customer.Customer, error)
	Recharge(ctx context.Context, userID string, amount reservation.Amount) (reservation.Amount, error)
	AddStripeIDToCustomer(ctx context.Context, userID, stripeID string) error
	SavePaymentMethod(ctx context.Context, userID, paymentMethodID string) error
	PaymentMethods(ctx context.Context, userID string) ([]customer.PaymentMethod, error)
}

type Config struct {
	MetricsUsername string
	MetricsPassword string
	AllowOrigins    []string
	// Payments enables the Stripe calls; stripe.Key must be set by the caller.
	Payments bool
	Now      func() time.Time
}

type API struct {
	r  *gin.Engine
	sr StationStore
	br BikeStore
	rr RentalStore
	wr WalletStore

	payments bool
	now      func() time.Time
}

func New(sr StationStore, br BikeStore, rr RentalStore, wr WalletStore, obs *o11y.Observability, cfg Config) *API {
	a := &API{
		r:        gin.New(),
		sr:       sr,
		br:       br,
		rr:       rr,
		wr:       wr,
		payments: cfg.Payments,
		now:      cfg.Now,
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.r.Use(
		gin.Recovery(),
		middleware.Tracing(),
		middleware.Logging(obs.Logger),
		middleware.Metrics(obs.Registry),
	)
	if len(cfg.AllowOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.AllowOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AddAllowHeaders(middleware.CSRFHeader, "X-Request-ID")
		a.r.Use(cors.New(corsCfg))
	}

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	metrics := promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})
	if cfg.MetricsUsername != "" {
		a.r.GET("/metrics", gin.BasicAuth(gin.Accounts{cfg.MetricsUsername: cfg.MetricsPassword}), gin.WrapH(metrics))
	} else {
		a.r.GET("/metrics", gin.WrapH(metrics))
	}

	a.r.POST("/auth/session/", a.sessionHandler)

	authed := a.r.Group("/",
		middleware.Session(middleware.SessionCookie),
		middleware.CSRF(middleware.CSRFCookie, middleware.CSRFHeader),
	)

	authed.GET("/estaciones/stations/", a.stationsHandler)
	authed.GET("/estaciones/stations/:id/", a.stationHandler)

	rentals := authed.Group("/alquileres/api/rentals")
	rentals.GET("/mis_reservas/", a.openRentalsHandler)
	rentals.GET("/historial/", a.historyHandler)
	rentals.GET("/estadisticas/", a.statisticsHandler)
	rentals.POST("/reserve/", a.reserveHandler)
	rentals.POST("/start_by_user/", a.startTripHandler)
	rentals.POST("/end_trip/", a.endTripHandler)
	rentals.POST("/cancel_general/", a.cancelHandler)

	payments := authed.Group("/payment")
	payments.POST("/api/recargar-saldo/", a.rechargeHandler)
	payments.POST("/api/setup-intent/", a.createSetupIntent)
	payments.POST("/guardar-tarjeta/", a.saveCardHandler)

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// sessionHandler issues a new rider identity together with its CSRF token.
// It stands in for the real backend's login page.
func (a *API) sessionHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	userID := uuid.NewString()
	token := uuid.NewString()
	if _, err := a.wr.CreateCustomer(c, userID); err != nil {
		logger.Error("Failed to create customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, userID, 0, "/", "", false, true)
	c.SetCookie(middleware.CSRFCookie, token, 0, "/", "", false, false)
	c.JSON(http.StatusCreated, gin.H{middleware.SessionCookie: userID, middleware.CSRFCookie: token})
}
