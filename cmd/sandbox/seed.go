package main

import (
	"context"
	"fmt"

	"github.com/semanticallynull/twomove-rider/bike"
	"github.com/semanticallynull/twomove-rider/station"
)

type seedStation struct {
	station station.Station
	bikes   []bike.Bike
}

var demo = []seedStation{
	{
		station: station.Station{Nombre: "Estación Central", Direccion: "Cra. 7 # 26-20", Latitud: 4.6133, Longitud: -74.0705},
		bikes: []bike.Bike{
			{Serial: "TM-E-001", Tipo: bike.Electric, Battery: 95},
			{Serial: "TM-E-002", Tipo: bike.Electric, Battery: 30},
			{Serial: "TM-M-001", Tipo: bike.Manual},
			{Serial: "TM-M-002", Tipo: bike.Manual},
		},
	},
	{
		station: station.Station{Nombre: "Parque de la 93", Direccion: "Cl. 93A # 13-24", Latitud: 4.6767, Longitud: -74.0483},
		bikes: []bike.Bike{
			{Serial: "TM-E-003", Tipo: bike.Electric, Battery: 72},
			{Serial: "TM-M-003", Tipo: bike.Manual},
		},
	},
	{
		station: station.Station{Nombre: "Universidad Nacional", Direccion: "Av. Cra. 30 # 45-03", Latitud: 4.6381, Longitud: -74.0840},
		bikes: []bike.Bike{
			{Serial: "TM-M-004", Tipo: bike.Manual},
		},
	},
	{
		station: station.Station{Nombre: "Usaquén", Direccion: "Cra. 6A # 119-24", Latitud: 4.6946, Longitud: -74.0309},
	},
}

func seed(ctx context.Context, st stores) error {
	for _, s := range demo {
		if err := st.stations.CreateStation(ctx, &s.station); err != nil {
			return fmt.Errorf("seed station %q: %w", s.station.Nombre, err)
		}
		for _, b := range s.bikes {
			b.StationID = s.station.ID
			b.Estado = bike.Available
			if err := st.bikes.CreateBike(ctx, &b); err != nil {
				return fmt.Errorf("seed bike %s: %w", b.Serial, err)
			}
		}
	}
	return nil
}
