package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/twomove-rider/customer"
	"github.com/semanticallynull/twomove-rider/history"
	"github.com/semanticallynull/twomove-rider/internal/middleware"
	"github.com/semanticallynull/twomove-rider/reservation"
)

func (a *API) trips(c *gin.Context, userID string) ([]history.Trip, error) {
	rentals, err := a.rr.History(c, userID)
	if err != nil {
		return nil, err
	}
	trips := make([]history.Trip, 0, len(rentals))
	for _, r := range rentals {
		trips = append(trips, history.FromRental(r))
	}
	return trips, nil
}

func (a *API) historyHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	trips, err := a.trips(c, userID)
	if err != nil {
		logger.Error("Failed to get history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	c.JSON(http.StatusOK, history.Response{Viajes: trips, Estadisticas: history.Summarize(trips)})
}

func (a *API) statisticsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)
	userID, _ := middleware.GetUserID(c)

	trips, err := a.trips(c, userID)
	if err != nil {
		logger.Error("Failed to get history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	var balance reservation.Amount
	cust, err := a.wr.GetCustomer(c, userID)
	switch {
	case err == nil:
		balance = cust.Balance
	case !errors.Is(err, customer.ErrNotFound):
		logger.Error("Failed to get customer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error interno del servidor."})
		return
	}

	c.JSON(http.StatusOK, history.Summary(trips, balance, a.now()))
}
