package repositories

import (
	"context"

	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
)

// CurrencyRepository defines persistence operations for currency reference data.
type CurrencyRepository interface {
	// UpsertCurrencies inserts or updates reference rows from the provider's
	// supported-currency catalogue. Returns the number of rows written.
	UpsertCurrencies(ctx context.Context, currencies []models.SupportedCurrency) (int, error)
	// FindCurrencyByCode retrieves a currency by its uppercase code.
	FindCurrencyByCode(ctx context.Context, code string) (*models.Currency, error)
	FindCurrencyByName(ctx context.Context, name string) (*models.Currency, error)
	FindCurrencyByCountryCode(ctx context.Context, countryCode string) (*models.Currency, error)
	FindCurrencyByCountryName(ctx context.Context, countryName string) (*models.Currency, error)
	// ListCurrencies retrieves all currencies ordered by code.
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
}
