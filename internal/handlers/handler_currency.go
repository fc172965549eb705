package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portssvc "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/services"
	"github.com/EnesEfeTokta/fintrack-backend/internal/dto"
	"github.com/EnesEfeTokta/fintrack-backend/internal/middleware"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// lookupFunc is the shape shared by the single-currency lookup operations.
type lookupFunc func(ctx context.Context, value string) (*models.Currency, error)

// currencyHandler handles HTTP requests for currency reference data.
type currencyHandler struct {
	currencyService portssvc.CurrencySvcFacade
}

// newCurrencyHandler creates a new currencyHandler.
func newCurrencyHandler(cs portssvc.CurrencySvcFacade) *currencyHandler {
	return &currencyHandler{
		currencyService: cs,
	}
}

// RegisterCurrencyRoutes registers reference-data routes on the currencies group.
func RegisterCurrencyRoutes(currencies *gin.RouterGroup, currencyService portssvc.CurrencySvcFacade) {
	h := newCurrencyHandler(currencyService)

	currencies.GET("", h.listCurrencies)
	currencies.GET("/by-name/:name", h.getCurrencyByName)
	currencies.GET("/by-country-code/:countryCode", h.getCurrencyByCountryCode)
	currencies.GET("/by-country-name/:countryName", h.getCurrencyByCountryName)
}

// listCurrencies godoc
// @Summary List all currencies
// @Description Retrieves id, code, name and icon for every known currency
// @Tags currencies
// @Produce json
// @Success 200 {array} dto.CurrencySummaryResponse
// @Failure 404 {object} map[string]string "No currencies found"
// @Failure 500 {object} map[string]string "Failed to list currencies"
// @Security BearerAuth
// @Router /currencies [get]
func (h *currencyHandler) listCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currencies, err := h.currencyService.ListCurrencies(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list currencies from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list currencies"})
		return
	}
	if len(currencies) == 0 {
		logger.Warn("No currencies found in the database")
		c.JSON(http.StatusNotFound, gin.H{"error": "No currencies found"})
		return
	}

	logger.Info("Currencies listed successfully", slog.Int("count", len(currencies)))
	c.JSON(http.StatusOK, dto.ToListCurrencySummaryResponse(currencies))
}

// getCurrencyByName godoc
// @Summary Get a currency by display name
// @Tags currencies
// @Produce json
// @Param name path string true "Currency name"
// @Success 200 {object} dto.CurrencyResponse
// @Failure 404 {object} map[string]string "Currency not found"
// @Security BearerAuth
// @Router /currencies/by-name/{name} [get]
func (h *currencyHandler) getCurrencyByName(c *gin.Context) {
	h.lookup(c, "name", c.Param("name"), h.currencyService.GetCurrencyByName)
}

// getCurrencyByCountryCode godoc
// @Summary Get a currency by country code
// @Tags currencies
// @Produce json
// @Param countryCode path string true "Country code"
// @Success 200 {object} dto.CurrencyResponse
// @Failure 404 {object} map[string]string "Currency not found"
// @Security BearerAuth
// @Router /currencies/by-country-code/{countryCode} [get]
func (h *currencyHandler) getCurrencyByCountryCode(c *gin.Context) {
	h.lookup(c, "country code", c.Param("countryCode"), h.currencyService.GetCurrencyByCountryCode)
}

// getCurrencyByCountryName godoc
// @Summary Get a currency by country name
// @Tags currencies
// @Produce json
// @Param countryName path string true "Country name"
// @Success 200 {object} dto.CurrencyResponse
// @Failure 404 {object} map[string]string "Currency not found"
// @Security BearerAuth
// @Router /currencies/by-country-name/{countryName} [get]
func (h *currencyHandler) getCurrencyByCountryName(c *gin.Context) {
	h.lookup(c, "country name", c.Param("countryName"), h.currencyService.GetCurrencyByCountryName)
}

func (h *currencyHandler) lookup(c *gin.Context, field, value string, find lookupFunc) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currency, err := find(c.Request.Context(), value)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Currency not found", slog.String(field, value))
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Currency with %s '%s' not found", field, value)})
			return
		}
		logger.Error("Failed to get currency from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve currency"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrencyResponse(currency))
}
