package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"invoicegen/internal/common"
	"invoicegen/internal/models"
	"invoicegen/internal/services"

	"github.com/labstack/echo/v4"
)

// CurrencyHandlers handles exchange rate endpoints
type CurrencyHandlers struct {
	currencyService services.CurrencyService
}

// NewCurrencyHandlers creates a new currency handlers instance
func NewCurrencyHandlers(currencyService services.CurrencyService) *CurrencyHandlers {
	return &CurrencyHandlers{currencyService: currencyService}
}

// GetRates handles GET /currencies/rates?base=USD
func (h *CurrencyHandlers) GetRates(c echo.Context) error {
	ctx := c.Request().Context()

	base := strings.ToUpper(c.QueryParam("base"))
	if base == "" {
		base = "USD"
	}
	if !models.SupportedCurrencies[base] {
		return common.SendValidationError(c, "base", "unsupported currency")
	}

	rates, err := h.currencyService.GetExchangeRates(ctx, base)
	if err != nil {
		return common.SendServerError(c, "Failed to fetch exchange rates: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"base":  base,
		"rates": rates,
	})
}

// Convert handles GET /currencies/convert?amount=100&from=USD&to=EUR
func (h *CurrencyHandlers) Convert(c echo.Context) error {
	ctx := c.Request().Context()

	amount, err := strconv.ParseFloat(c.QueryParam("amount"), 64)
	if err != nil || amount < 0 {
		return common.SendValidationError(c, "amount", "must be a non-negative number")
	}

	from := strings.ToUpper(c.QueryParam("from"))
	to := strings.ToUpper(c.QueryParam("to"))
	if !models.SupportedCurrencies[from] {
		return common.SendValidationError(c, "from", "unsupported currency")
	}
	if !models.SupportedCurrencies[to] {
		return common.SendValidationError(c, "to", "unsupported currency")
	}

	converted, err := h.currencyService.Convert(ctx, amount, from, to)
	if err != nil {
		return common.SendServerError(c, "Failed to convert: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"converted": converted,
	})
}
