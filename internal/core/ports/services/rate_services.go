package services

import (
	"context"

	"github.com/EnesEfeTokta/fintrack-backend/internal/dto"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/shopspring/decimal"
)

// RateQuerySvcFacade is the computational query surface over snapshot data:
// cross rates, historical series, conversion and cached quick lookups.
type RateQuerySvcFacade interface {
	// GetSpecificCurrency returns a currency's reference attributes plus a
	// cross-rate table relative to it when the latest USD snapshot allows.
	GetSpecificCurrency(ctx context.Context, code string) (*dto.SpecificCurrencyResponse, error)
	// GetCurrencyHistory reconstructs a daily cross-rate series for the pair
	// over the named period and computes its change summary.
	GetCurrencyHistory(ctx context.Context, baseCode, targetCode, period string) (*dto.CurrencyHistoryResponse, error)
	// ConvertCurrency converts amount from one currency to another using the
	// latest USD snapshot.
	ConvertCurrency(ctx context.Context, from, to string, amount decimal.Decimal) (*dto.ConversionResult, error)
	// GetLatestRates returns every other currency's rate relative to the
	// given base (default USD), sorted by code.
	GetLatestRates(ctx context.Context, baseCurrencyCode string) (*dto.LatestRatesResponse, error)
	// GetCachedRates returns the raw provider response currently cached.
	GetCachedRates(ctx context.Context) (*models.RateSnapshot, error)
	// GetCachedRate returns a single cached rate by currency code.
	GetCachedRate(ctx context.Context, code string) (decimal.Decimal, error)
}

// ServiceContainer aggregates all service facades for dependency injection.
type ServiceContainer struct {
	Currency  CurrencySvcFacade
	RateQuery RateQuerySvcFacade
}
