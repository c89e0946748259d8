package handler

type ConvertResponse struct {
	Amount          float64 `json:"amount"`
	From            string  `json:"from"`
	DisplayCurrency string  `json:"display_currency"`
	Converted       float64 `json:"converted"`
	Symbol          string  `json:"symbol"`
}

type RateResponse struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

type CurrencyInfo struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Active bool   `json:"active"`
}

type SetDisplayRequest struct {
	Currency string `json:"currency" binding:"required"`
}
