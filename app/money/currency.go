package money

import (
	"errors"
	"strings"

	"golang.org/x/text/currency"
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// Currency is an ISO 4217 currency together with its minor-unit exponent.
// Numeric is empty for currencies missing from the numeric code table.
type Currency struct {
	Code     string
	Exponent int32
	Numeric  string
}

// ISO 4217 numeric codes, used by the legacy redirect protocol.
var numericCodes = map[string]string{
	"AUD": "036",
	"BGN": "975",
	"BHD": "048",
	"BRL": "986",
	"CAD": "124",
	"CHF": "756",
	"CLP": "152",
	"CNY": "156",
	"CZK": "203",
	"DKK": "208",
	"EUR": "978",
	"GBP": "826",
	"HKD": "344",
	"HUF": "348",
	"INR": "356",
	"ISK": "352",
	"JPY": "392",
	"KRW": "410",
	"KWD": "414",
	"MXN": "484",
	"NOK": "578",
	"NZD": "554",
	"PLN": "985",
	"RON": "946",
	"RUB": "643",
	"SEK": "752",
	"SGD": "702",
	"THB": "764",
	"TRY": "949",
	"USD": "840",
	"ZAR": "710",
}

func Lookup(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return Currency{}, ErrUnsupportedCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Currency{}, ErrUnsupportedCurrency
	}
	scale, _ := currency.Standard.Rounding(unit)

	return Currency{
		Code:     unit.String(),
		Exponent: int32(scale),
		Numeric:  numericCodes[unit.String()],
	}, nil
}

// LookupNumeric resolves an ISO 4217 numeric code back to its currency.
func LookupNumeric(numeric string) (Currency, error) {
	numeric = strings.TrimSpace(numeric)
	for code, n := range numericCodes {
		if n == numeric {
			return Lookup(code)
		}
	}
	return Currency{}, ErrUnsupportedCurrency
}
