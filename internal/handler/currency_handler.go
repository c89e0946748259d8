package handler

import (
	"net/http"
	"strconv"

	"family-budget-service/internal/entity"
	"family-budget-service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CurrencyHandler struct {
	usecase usecase.ConversionUsecase
	logger  *logrus.Logger
}

func NewCurrencyHandler(usecase usecase.ConversionUsecase, logger *logrus.Logger) *CurrencyHandler {
	return &CurrencyHandler{
		usecase: usecase,
		logger:  logger,
	}
}

// Convert converts an amount from its source currency into the session's
// display currency. The conversion itself never fails; only unparsable input
// is rejected.
func (h *CurrencyHandler) Convert(c *gin.Context) {
	amountStr := c.Query("amount")
	from := c.Query("from")

	if amountStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'amount'"})
		return
	}

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		h.logger.Debugf("Invalid amount parameter: %q", amountStr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'amount' parameter, must be a number"})
		return
	}

	converted := h.usecase.Convert(c.Request.Context(), amount, from)

	c.JSON(http.StatusOK, ConvertResponse{
		Amount:          amount,
		From:            from,
		DisplayCurrency: string(h.usecase.DisplayCurrency()),
		Converted:       converted,
		Symbol:          h.usecase.DisplaySymbol(),
	})
}

// GetRate returns the unit rate for an explicit ordered pair.
func (h *CurrencyHandler) GetRate(c *gin.Context) {
	from, okFrom := entity.Normalize(c.Query("from"))
	to, okTo := entity.Normalize(c.Query("to"))

	if !okFrom || !okTo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' and 'to' must be supported currency codes"})
		return
	}

	rate := h.usecase.Rate(c.Request.Context(), from, to)

	c.JSON(http.StatusOK, RateResponse{
		From: string(from),
		To:   string(to),
		Rate: rate,
	})
}

// ListCurrencies returns the supported set with display symbols.
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	display := h.usecase.DisplayCurrency()

	currencies := make([]CurrencyInfo, 0, len(entity.SupportedCurrencies()))
	for _, code := range entity.SupportedCurrencies() {
		currencies = append(currencies, CurrencyInfo{
			Code:   string(code),
			Symbol: code.Symbol(),
			Active: code == display,
		})
	}

	c.JSON(http.StatusOK, gin.H{"currencies": currencies, "display_currency": string(display)})
}

// SetDisplayCurrency switches the session display currency, invalidating the
// session rate cache.
func (h *CurrencyHandler) SetDisplayCurrency(c *gin.Context) {
	var req SetDisplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field 'currency'"})
		return
	}

	code, ok := entity.Normalize(req.Currency)
	if !ok {
		h.logger.Debugf("Rejected unsupported display currency %q", req.Currency)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported currency code"})
		return
	}

	h.usecase.SetDisplayCurrency(code)

	c.JSON(http.StatusOK, gin.H{
		"display_currency": string(code),
		"symbol":           code.Symbol(),
	})
}

// RefreshRates forces a provider fetch for every supported pair against the
// current display currency.
func (h *CurrencyHandler) RefreshRates(c *gin.Context) {
	if err := h.usecase.RefreshRates(c.Request.Context()); err != nil {
		h.logger.Errorf("Failed to refresh rates: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh rates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rates successfully updated"})
}
