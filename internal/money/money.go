// Package money formats peso amounts for display.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/semanticallynull/twomove-rider/reservation"
)

var printer = message.NewPrinter(language.MustParse("es-CO"))

// COP renders an amount the way the app shows balances and costs, e.g.
// "$ 17.500".
func COP(a reservation.Amount) string {
	if int64(a)%100 == 0 {
		return printer.Sprintf("$ %v", number.Decimal(a.Pesos()))
	}
	return printer.Sprintf("$ %v", number.Decimal(float64(a)/100, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Minutes renders a trip length with one decimal, e.g. "12,5 min".
func Minutes(m float64) string {
	return printer.Sprintf("%v min", number.Decimal(m, number.MaxFractionDigits(1)))
}
