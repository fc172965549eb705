package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portssvc "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/services"
	"github.com/EnesEfeTokta/fintrack-backend/internal/dto"
	"github.com/EnesEfeTokta/fintrack-backend/internal/metrics"
	"github.com/EnesEfeTokta/fintrack-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// rateHandler handles HTTP requests for exchange rate queries: cross rates,
// historical series, conversion and cached provider data.
type rateHandler struct {
	rateQueryService portssvc.RateQuerySvcFacade
	metrics          *metrics.Metrics
}

// newRateHandler creates a new rateHandler.
func newRateHandler(rs portssvc.RateQuerySvcFacade, m *metrics.Metrics) *rateHandler {
	return &rateHandler{
		rateQueryService: rs,
		metrics:          m,
	}
}

// RegisterRateRoutes registers rate-query routes on the currencies group.
func RegisterRateRoutes(currencies *gin.RouterGroup, rateQueryService portssvc.RateQuerySvcFacade, m *metrics.Metrics) {
	h := newRateHandler(rateQueryService, m)

	currencies.GET("/latest", h.getLatestRates)
	currencies.GET("/latest/:baseCurrencyCode", h.getLatestRates)
	currencies.GET("/convert", h.convertCurrency)
	currencies.GET("/cache/latest", h.getCachedRates)
	currencies.GET("/cache/rate/:code", h.getCachedRate)
	currencies.GET("/:code", h.getSpecificCurrency)
	currencies.GET("/:code/history/:targetCode", h.getCurrencyHistory)
}

// getSpecificCurrency godoc
// @Summary Get a currency with its cross-rate table
// @Description Returns reference attributes of the currency and, when a snapshot is available, rates of all other currencies expressed in it
// @Tags rates
// @Produce json
// @Param code path string true "Currency code (e.g. EUR)"
// @Success 200 {object} dto.SpecificCurrencyResponse
// @Failure 404 {object} map[string]string "Currency not found"
// @Failure 500 {object} map[string]string "Failed to retrieve currency"
// @Security BearerAuth
// @Router /currencies/{code} [get]
func (h *rateHandler) getSpecificCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := c.Param("code")
	h.metrics.RateQueriesTotal.Inc()

	resp, err := h.rateQueryService.GetSpecificCurrency(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Currency not found", slog.String("code", code))
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Currency with code '%s' not found", code)})
			return
		}
		logger.Error("Failed to get specific currency from service", slog.String("code", code), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve currency"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getCurrencyHistory godoc
// @Summary Get the historical cross-rate series for a currency pair
// @Description Reconstructs a daily forward-filled series of target rates expressed in the base currency and summarizes recent changes
// @Tags rates
// @Produce json
// @Param code path string true "Base currency code"
// @Param targetCode path string true "Target currency code"
// @Param period query string false "Window: 1D, 1W, 1M, 3M, 1Y or YTD" default(1M)
// @Success 200 {object} dto.CurrencyHistoryResponse
// @Failure 400 {object} map[string]string "Invalid period or identical pair"
// @Failure 404 {object} map[string]string "No historical data for the pair"
// @Failure 500 {object} map[string]string "Failed to compute history"
// @Security BearerAuth
// @Router /currencies/{code}/history/{targetCode} [get]
func (h *rateHandler) getCurrencyHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	baseCode := c.Param("code")
	targetCode := c.Param("targetCode")
	h.metrics.HistoryRequestsTotal.Inc()

	var req dto.CurrencyHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Failed to bind query for GetCurrencyHistory", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	period := req.Period

	resp, err := h.rateQueryService.GetCurrencyHistory(c.Request.Context(), baseCode, targetCode, period)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Invalid history request", slog.String("base", baseCode), slog.String("target", targetCode), slog.String("period", period), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoData):
			logger.Warn("No historical data found", slog.String("base", baseCode), slog.String("target", targetCode), slog.String("period", period))
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No historical data found for %s/%s", baseCode, targetCode)})
		default:
			logger.Error("Failed to compute currency history", slog.String("base", baseCode), slog.String("target", targetCode), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute currency history"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// convertCurrency godoc
// @Summary Convert an amount between two currencies
// @Description Uses the latest snapshot to cross-convert via the snapshot base
// @Tags rates
// @Produce json
// @Param from query string true "Source currency code"
// @Param to query string true "Target currency code"
// @Param amount query string true "Amount to convert"
// @Success 200 {object} dto.ConversionResult
// @Failure 400 {object} map[string]string "Missing or invalid parameters"
// @Failure 404 {object} map[string]string "Currency or rate data unavailable"
// @Failure 500 {object} map[string]string "Failed to convert"
// @Security BearerAuth
// @Router /currencies/convert [get]
func (h *rateHandler) convertCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	h.metrics.ConversionRequestsTotal.Inc()

	var req dto.ConvertCurrencyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Failed to bind query for ConvertCurrency", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid amount '%s'", req.Amount)})
		return
	}

	result, err := h.rateQueryService.ConvertCurrency(c.Request.Context(), req.From, req.To, amount)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoData):
			logger.Warn("Conversion data unavailable", slog.String("from", req.From), slog.String("to", req.To), slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to convert currency", slog.String("from", req.From), slog.String("to", req.To), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert currency"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// getLatestRates godoc
// @Summary Get the latest rates relative to a base currency
// @Description Re-expresses the most recent snapshot against the requested base (USD when omitted)
// @Tags rates
// @Produce json
// @Param baseCurrencyCode path string false "Base currency code"
// @Success 200 {object} dto.LatestRatesResponse
// @Failure 404 {object} map[string]string "Base currency or rate data unavailable"
// @Failure 500 {object} map[string]string "Failed to retrieve latest rates"
// @Security BearerAuth
// @Router /currencies/latest/{baseCurrencyCode} [get]
func (h *rateHandler) getLatestRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	base := c.Param("baseCurrencyCode")
	h.metrics.RateQueriesTotal.Inc()

	resp, err := h.rateQueryService.GetLatestRates(c.Request.Context(), base)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoData):
			logger.Warn("Latest rates unavailable", slog.String("base", base), slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to get latest rates", slog.String("base", base), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve latest rates"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getCachedRates godoc
// @Summary Get the raw cached provider snapshot
// @Tags rates
// @Produce json
// @Success 200 {object} models.RateSnapshot
// @Failure 404 {object} map[string]string "Cache is empty or expired"
// @Security BearerAuth
// @Router /currencies/cache/latest [get]
func (h *rateHandler) getCachedRates(c *gin.Context) {
	snapshot, err := h.rateQueryService.GetCachedRates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No cached rate data available"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// getCachedRate godoc
// @Summary Get a single cached rate by currency code
// @Tags rates
// @Produce json
// @Param code path string true "Currency code"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Rate not cached"
// @Security BearerAuth
// @Router /currencies/cache/rate/{code} [get]
func (h *rateHandler) getCachedRate(c *gin.Context) {
	code := c.Param("code")

	rate, err := h.rateQueryService.GetCachedRate(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No cached rate for '%s'", code)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"currency": code, "rate": rate})
}
