package reservation

import (
	"math"
	"time"
)

const (
	extraMinuteCost   = 250
	offStationPenalty = 5000
)

// EstimatedCost is what a reservation of the given trip type is charged up
// front.
func EstimatedCost(t TipoViaje) Amount {
	if t == UltimaMilla {
		return Pesos(17500)
	}
	return Pesos(25000)
}

// DurationMinutes rounds a trip duration up to whole minutes.
func DurationMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// TotalCost prices a finished trip: the base price, every minute over the
// allowance, and a penalty when it did not end at a station.
func TotalCost(t TipoViaje, minutes int, offStation bool) Amount {
	cost := EstimatedCost(t)
	if extra := minutes - t.AllowedMinutes(); extra > 0 {
		cost += Pesos(int64(extra) * extraMinuteCost)
	}
	if offStation {
		cost += Pesos(offStationPenalty)
	}
	return cost
}
