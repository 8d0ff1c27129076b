package reservation

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Amount is a COP amount with two decimal places, held in cents.
type Amount int64

// Pesos builds an Amount from a whole number of pesos.
func Pesos(p int64) Amount {
	return Amount(p * 100)
}

// ParseAmount accepts "17500", "17500.5", "17500.00" and "-250.75". An empty
// string is zero, matching what the rentals API sends for unknown costs.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	whole, frac, hasFrac := strings.Cut(digits, ".")
	if whole == "" || strings.ContainsAny(whole+frac, "eE+-") {
		return parseFloatAmount(s)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	var cents int64
	if hasFrac {
		frac = (frac + "00")[:2]
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	a := Amount(w*100 + cents)
	if neg {
		a = -a
	}
	return a, nil
}

func parseFloatAmount(s string) (Amount, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount(math.Round(f * 100)), nil
}

// Pesos returns the whole-peso part, truncating cents.
func (a Amount) Pesos() int64 {
	return int64(a) / 100
}

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case int64:
		*a = Amount(v)
		return nil
	case float64:
		*a = Amount(math.Round(v * 100))
		return nil
	case string:
		p, err := ParseAmount(v)
		*a = p
		return err
	case []byte:
		p, err := ParseAmount(string(v))
		*a = p
		return err
	}
	return fmt.Errorf("invalid amount scan type %T", src)
}

// Value stores the amount as integer cents.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}
