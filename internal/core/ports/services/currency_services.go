package services

import (
	"context"

	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
)

// CurrencySvcFacade defines the business operations over currency reference data.
type CurrencySvcFacade interface {
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
	GetCurrencyByCode(ctx context.Context, code string) (*models.Currency, error)
	GetCurrencyByName(ctx context.Context, name string) (*models.Currency, error)
	GetCurrencyByCountryCode(ctx context.Context, countryCode string) (*models.Currency, error)
	GetCurrencyByCountryName(ctx context.Context, countryName string) (*models.Currency, error)
	// SyncSupportedCurrencies upserts the provider's currency catalogue into
	// the reference table and returns the number of rows written.
	SyncSupportedCurrencies(ctx context.Context, currencies []models.SupportedCurrency) (int, error)
}
