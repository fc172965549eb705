package services

import (
	"context"
	"fmt"
	"strings"

	portsrepo "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/repositories"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
)

// CurrencyService provides read access and catalogue sync for currency
// reference data. Codes and country codes are uppercase-normalized at this
// boundary.
type CurrencyService struct {
	currencyRepo portsrepo.CurrencyRepository
}

// NewCurrencyService creates a new CurrencyService.
func NewCurrencyService(currencyRepo portsrepo.CurrencyRepository) *CurrencyService {
	return &CurrencyService{currencyRepo: currencyRepo}
}

func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	currencies, err := s.currencyRepo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies in service: %w", err)
	}
	if currencies == nil {
		return []models.Currency{}, nil
	}
	return currencies, nil
}

func (s *CurrencyService) GetCurrencyByCode(ctx context.Context, code string) (*models.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get currency by code in service: %w", err)
	}
	return currency, nil
}

func (s *CurrencyService) GetCurrencyByName(ctx context.Context, name string) (*models.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get currency by name in service: %w", err)
	}
	return currency, nil
}

func (s *CurrencyService) GetCurrencyByCountryCode(ctx context.Context, countryCode string) (*models.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCountryCode(ctx, strings.ToUpper(countryCode))
	if err != nil {
		return nil, fmt.Errorf("failed to get currency by country code in service: %w", err)
	}
	return currency, nil
}

func (s *CurrencyService) GetCurrencyByCountryName(ctx context.Context, countryName string) (*models.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCountryName(ctx, countryName)
	if err != nil {
		return nil, fmt.Errorf("failed to get currency by country name in service: %w", err)
	}
	return currency, nil
}

// SyncSupportedCurrencies upserts the provider's currency catalogue into the
// reference table.
func (s *CurrencyService) SyncSupportedCurrencies(ctx context.Context, currencies []models.SupportedCurrency) (int, error) {
	normalized := make([]models.SupportedCurrency, 0, len(currencies))
	for _, curr := range currencies {
		if curr.Code == "" || curr.Name == "" {
			continue
		}
		curr.Code = strings.ToUpper(curr.Code)
		normalized = append(normalized, curr)
	}

	written, err := s.currencyRepo.UpsertCurrencies(ctx, normalized)
	if err != nil {
		return written, fmt.Errorf("failed to sync supported currencies in service: %w", err)
	}
	return written, nil
}
