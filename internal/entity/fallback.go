package entity

// staticFallbackRates is the last resort when both the stored rate and the
// provider are unavailable. Values are approximate, not authoritative: each
// cross rate is a pre-computed constant, so small inconsistencies between
// entries are tolerated. Version 1, snapshot of mid-2021 market rates.
var staticFallbackRates = map[CurrencyCode]map[CurrencyCode]float64{
	USD: {EUR: 0.85, GBP: 0.74, JPY: 110.5, INR: 74.5},
	EUR: {USD: 1.18, GBP: 0.87, JPY: 130.2, INR: 88.1},
	GBP: {USD: 1.36, EUR: 1.15, JPY: 150.1, INR: 100.8},
	JPY: {USD: 0.009, EUR: 0.0077, GBP: 0.0067, INR: 0.67},
	INR: {USD: 0.0134, EUR: 0.0114, GBP: 0.0099, JPY: 1.48},
}

// FallbackRate looks up the static table for the ordered pair (from, to).
func FallbackRate(from, to CurrencyCode) (float64, bool) {
	targets, ok := staticFallbackRates[from]
	if !ok {
		return 0, false
	}
	rate, ok := targets[to]
	return rate, ok
}
