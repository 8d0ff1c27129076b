package reservation

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"", 0},
		{"17500", Pesos(17500)},
		{"17500.00", Pesos(17500)},
		{"17500.5", 1750050},
		{"17500.759", 1750075},
		{"-250.75", -25075},
		{"1.75e4", Pesos(17500)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAmount("doce mil")
	assert.Error(t, err)
}

func TestAmount_JSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":17500.5,"b":"25000.00","c":null}`), &v))
	assert.Equal(t, Amount(1750050), v.A)
	assert.Equal(t, Pesos(25000), v.B)
	assert.Zero(t, v.C)

	out, err := json.Marshal(Pesos(5000))
	require.NoError(t, err)
	assert.JSONEq(t, `"5000.00"`, string(out))
}

func TestAmount_Scan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan([]byte("42000.25")))
	assert.Equal(t, Amount(4200025), a)
	require.NoError(t, a.Scan(int64(1050)))
	assert.Equal(t, Amount(1050), a)
	assert.Equal(t, "10.50", a.String())
	require.NoError(t, a.Scan(nil))
	assert.Zero(t, a)
	assert.Error(t, a.Scan(true))
}

func TestAmount_ValueIsCents(t *testing.T) {
	v, err := Pesos(17500).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1750000), v)

	var back Amount
	require.NoError(t, back.Scan(v))
	assert.Equal(t, Pesos(17500), back)

	v, err = (-Pesos(250)).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(-25000), v)
}
