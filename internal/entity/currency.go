package entity

import (
	"strings"
	"time"
)

// CurrencyCode identifies one of the currencies the app can display.
type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
	JPY CurrencyCode = "JPY"
	INR CurrencyCode = "INR"
)

var currencySymbols = map[CurrencyCode]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	JPY: "¥",
	INR: "₹",
}

var supportedOrder = []CurrencyCode{USD, EUR, GBP, JPY, INR}

// SupportedCurrencies returns the supported set in a stable order.
func SupportedCurrencies() []CurrencyCode {
	out := make([]CurrencyCode, len(supportedOrder))
	copy(out, supportedOrder)
	return out
}

func (c CurrencyCode) Supported() bool {
	_, ok := currencySymbols[c]
	return ok
}

// Symbol returns the display symbol for the currency, ₹ for unknown codes.
func (c CurrencyCode) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return "₹"
}

// Normalize uppercases raw and reports whether it names a supported currency.
func Normalize(raw string) (CurrencyCode, bool) {
	code := CurrencyCode(strings.ToUpper(strings.TrimSpace(raw)))
	return code, code.Supported()
}

// ExchangeRate is one persisted rate for an ordered currency pair. The inverse
// pair is a separate record and is never derived from this one.
type ExchangeRate struct {
	BaseCurrency   CurrencyCode `db:"base_currency" json:"base_currency"`
	TargetCurrency CurrencyCode `db:"target_currency" json:"target_currency"`
	Rate           float64      `db:"rate" json:"rate"`
	LastUpdated    time.Time    `db:"last_updated" json:"last_updated"`
}

func (r ExchangeRate) Valid() bool {
	return r.Rate > 0
}
