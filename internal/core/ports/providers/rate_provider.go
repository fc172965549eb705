package providers

import (
	"context"

	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/shopspring/decimal"
)

// RateDataProvider fetches rate data from the external rate source. It is a
// pure I/O boundary: request, parse, error-map, nothing else.
type RateDataProvider interface {
	// FetchLatestRates returns the current USD-based rate map, or
	// apperrors.ErrProviderUnavailable (wrapped) on transport failure,
	// non-success status, or an empty rates payload.
	FetchLatestRates(ctx context.Context) (*models.RateSnapshot, error)
	// FetchSupportedCurrencies returns the provider's currency catalogue.
	FetchSupportedCurrencies(ctx context.Context) ([]models.SupportedCurrency, error)
}

// RateCache is a process-wide single-slot store for the most recent provider
// response. Implementations must be safe for concurrent use and must replace
// the slot atomically so readers never observe a half-updated rate map.
type RateCache interface {
	SetLatest(snapshot models.RateSnapshot)
	// GetLatest returns the cached snapshot, or false if the slot is empty
	// or expired.
	GetLatest() (*models.RateSnapshot, bool)
	// GetRate looks up a single rate by currency code, case-insensitively.
	GetRate(code string) (decimal.Decimal, bool)
}
