// Package payment wraps the card tokenization widget used to save cards.
// The widget is an external capability; this package only exposes the calls
// the rider flows need from it.
package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNotMounted     = errors.New("payment widget is not mounted")
	ErrClientSecret   = errors.New("malformed setup intent client secret")
	ErrIncompleteCard = errors.New("card details are incomplete")
)

// CardDetails is what the rider typed into the card form.
type CardDetails struct {
	Number     string
	ExpMonth   int
	ExpYear    int
	CVC        string
	HolderName string
}

// ChangeEvent is emitted whenever the card form content changes.
type ChangeEvent struct {
	Empty    bool
	Complete bool
	Brand    string
	Error    string
}

// SetupResult holds either the saved payment method id or the widget's
// error message.
type SetupResult struct {
	PaymentMethodID string
	Error           string
}

type Widget interface {
	Mount(element string) error
	OnChange(func(ChangeEvent))
	ConfirmSetup(ctx context.Context, clientSecret string, card CardDetails) (SetupResult, error)
}

// Inspect validates card locally the way the widget does while the rider
// types.
func Inspect(card CardDetails, now time.Time) ChangeEvent {
	number := digits(card.Number)
	if number == "" && card.CVC == "" && card.ExpMonth == 0 {
		return ChangeEvent{Empty: true}
	}
	ev := ChangeEvent{Brand: brand(number)}
	switch {
	case len(number) < 13 || len(number) > 19 || !luhn(number):
		ev.Error = "El número de tarjeta no es válido."
	case card.ExpMonth < 1 || card.ExpMonth > 12:
		ev.Error = "La fecha de vencimiento no es válida."
	case expired(card.ExpMonth, card.ExpYear, now):
		ev.Error = "La tarjeta está vencida."
	case len(digits(card.CVC)) < 3:
		ev.Error = "El código de seguridad está incompleto."
	default:
		ev.Complete = true
	}
	return ev
}

// SetupIntentID extracts "seti_x" from a "seti_x_secret_y" client secret.
func SetupIntentID(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || !strings.HasPrefix(id, "seti_") {
		return "", ErrClientSecret
	}
	return id, nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d, _ := strconv.Atoi(string(number[i]))
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func brand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	case len(number) >= 2 && number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return "mastercard"
	case len(number) >= 4 && number[:4] >= "2221" && number[:4] <= "2720":
		return "mastercard"
	}
	return "unknown"
}

func expired(month, year int, now time.Time) bool {
	if year < 100 {
		year += 2000
	}
	// Cards are valid through the end of their expiry month.
	end := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.Before(end)
}
