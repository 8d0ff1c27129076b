package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalCost(t *testing.T) {
	tests := []struct {
		name       string
		tipo       TipoViaje
		minutes    int
		offStation bool
		want       Amount
	}{
		{"ultima milla within allowance", UltimaMilla, 45, false, Pesos(17500)},
		{"ultima milla overtime", UltimaMilla, 50, false, Pesos(17500 + 5*250)},
		{"recorrido largo within allowance", RecorridoLargo, 60, false, Pesos(25000)},
		{"recorrido largo overtime off station", RecorridoLargo, 80, true, Pesos(25000 + 5*250 + 5000)},
		{"off station penalty only", UltimaMilla, 10, true, Pesos(22500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalCost(tt.tipo, tt.minutes, tt.offStation))
		})
	}
}

func TestDurationMinutes_RoundsUp(t *testing.T) {
	assert.Equal(t, 0, DurationMinutes(0))
	assert.Equal(t, 1, DurationMinutes(time.Second))
	assert.Equal(t, 45, DurationMinutes(45*time.Minute))
	assert.Equal(t, 46, DurationMinutes(45*time.Minute+time.Millisecond))
}
