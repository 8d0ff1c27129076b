package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semanticallynull/twomove-rider/reservation"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleTrips() []Trip {
	return []Trip{
		{ID: 1, Estado: reservation.EstadoCompletado, TipoViaje: reservation.UltimaMilla, HoraInicio: at("2025-03-01T10:00:00Z"), HoraFin: at("2025-03-01T10:30:00Z"), CostoTotal: reservation.Pesos(17500)},
		{ID: 2, Estado: reservation.EstadoCancelado, TipoViaje: reservation.RecorridoLargo, HoraInicio: at("2025-03-02T09:00:00Z")},
		{ID: 3, Estado: reservation.EstadoCompletado, TipoViaje: reservation.RecorridoLargo, HoraInicio: at("2025-03-01T23:50:00Z"), HoraFin: at("2025-03-02T00:40:00Z"), CostoTotal: reservation.Pesos(25000)},
		{ID: 4, Estado: reservation.EstadoActivo, TipoViaje: reservation.UltimaMilla, HoraInicio: at("2025-03-02T08:00:00Z")},
		{ID: 5, Estado: reservation.EstadoCompletado, TipoViaje: reservation.UltimaMilla, HoraInicio: at("2025-03-02T12:00:00-05:00"), HoraFin: at("2025-03-02T21:30:00-05:00"), CostoTotal: reservation.Pesos(18000)},
	}
}

func ids(trips []Trip) []int64 {
	out := make([]int64, 0, len(trips))
	for _, t := range trips {
		out = append(out, t.ID)
	}
	return out
}

func TestApply_EmptyFilterReturnsListUnchanged(t *testing.T) {
	trips := sampleTrips()
	assert.Equal(t, trips, Apply(trips, Filter{}))
	assert.Empty(t, Apply(nil, Filter{}))
}

func TestApply_ResultIsSubsetMatchingEveryPredicate(t *testing.T) {
	trips := sampleTrips()
	filters := []Filter{
		{Estado: reservation.EstadoCompletado},
		{TipoViaje: reservation.UltimaMilla},
		{Fecha: "2025-03-02"},
		{Estado: reservation.EstadoCompletado, TipoViaje: reservation.RecorridoLargo},
		{Estado: reservation.EstadoCompletado, TipoViaje: reservation.UltimaMilla, Fecha: "2025-03-03"},
		{Estado: reservation.EstadoCancelado, Fecha: "2025-03-01"},
	}
	for _, f := range filters {
		got := Apply(trips, f)
		last := -1
		for _, g := range got {
			assert.True(t, f.Match(g), "trip %d does not match %+v", g.ID, f)
			idx := -1
			for i, tr := range trips {
				if tr.ID == g.ID {
					idx = i
				}
			}
			require.NotEqual(t, -1, idx, "trip %d is not in the input", g.ID)
			assert.Greater(t, idx, last, "order not preserved for %+v", f)
			last = idx
		}
	}
}

func TestApply_FechaUsesEndTimeThenStartTimeInUTC(t *testing.T) {
	trips := sampleTrips()

	assert.Equal(t, []int64{1}, ids(Apply(trips, Filter{Fecha: "2025-03-01"})))
	assert.Equal(t, []int64{2, 3, 4}, ids(Apply(trips, Filter{Fecha: "2025-03-02"})))
	// 21:30 in Bogotá is the next day in UTC.
	assert.Equal(t, []int64{5}, ids(Apply(trips, Filter{Fecha: "2025-03-03"})))
}

func TestApply_CombinesPredicates(t *testing.T) {
	got := Apply(sampleTrips(), Filter{Estado: reservation.EstadoCompletado, TipoViaje: reservation.UltimaMilla})
	assert.Equal(t, []int64{1, 5}, ids(got))
}

func TestPaginate(t *testing.T) {
	list := make([]int, 23)
	for i := range list {
		list[i] = i + 1
	}

	tests := []struct {
		name string
		page int
		want []int
	}{
		{"first page", 1, list[0:10]},
		{"middle page", 2, list[10:20]},
		{"last partial page", 3, list[20:23]},
		{"past the end clamps to last", 9, list[20:23]},
		{"zero clamps to first", 0, list[0:10]},
		{"negative clamps to first", -4, list[0:10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(list, 10, tt.page)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), 10)
		})
	}
}

func TestPaginate_EmptyList(t *testing.T) {
	assert.Empty(t, Paginate([]int{}, 10, 3))
	assert.Equal(t, 1, Pages(0, 10))
}

func TestPaginate_NeverExceedsPageSize(t *testing.T) {
	for n := 0; n < 40; n++ {
		list := make([]int, n)
		for size := 1; size < 12; size++ {
			for page := -1; page < n+3; page++ {
				got := Paginate(list, size, page)
				require.LessOrEqual(t, len(got), size)
				if n > 0 {
					require.NotEmpty(t, got, "n=%d size=%d page=%d", n, size, page)
				}
			}
		}
	}
}
