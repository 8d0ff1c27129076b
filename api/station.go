package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/internal/middleware"
	"github.com/semanticallynull/twomove-rider/station"
)

func (a *API) stationsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	stations, err := a.sr.GetStations(c)
	if err != nil {
		logger.Error("Failed to get stations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stations)
}

func (a *API) stationHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Identificador de estación inválido."})
		return
	}

	st, err := a.sr.GetStation(c, id)
	if err != nil {
		if errors.Is(err, station.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Estación no encontrada."})
			return
		}
		logger.Error("Failed to get station", "error", err, "station", id)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	bikes, err := a.br.GetBikesAtStation(c, id)
	if err != nil {
		logger.Error("Failed to get bikes at station", "error", err, "station", id)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toStationDetailResponse(st, bikes))
}

type bikeResponse struct {
	Serial  string      `json:"serial"`
	Tipo    bike.Tipo   `json:"tipo"`
	Estado  bike.Estado `json:"estado"`
	Bateria *int        `json:"bateria,omitempty"`
}

type stationDetailResponse struct {
	station.Station
	Bicicletas []bikeResponse `json:"bicicletas"`
}

func toStationDetailResponse(st station.Station, bikes []bike.Bike) stationDetailResponse {
	resp := stationDetailResponse{Station: st, Bicicletas: make([]bikeResponse, 0, len(bikes))}
	for _, b := range bikes {
		br := bikeResponse{Serial: b.Serial, Tipo: b.Tipo, Estado: b.Estado}
		if b.Tipo == bike.Electric {
			battery := b.Battery
			br.Bateria = &battery
		}
		resp.Bicicletas = append(resp.Bicicletas, br)
	}
	return resp
}
