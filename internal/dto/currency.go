package dto

import (
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
)

// CurrencySummaryResponse is the list-view projection of a currency.
type CurrencySummaryResponse struct {
	ID      int64   `json:"id"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	IconURL *string `json:"iconUrl,omitempty"`
}

// CurrencyResponse is the full reference-data view of a currency.
type CurrencyResponse struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	CountryCode    *string    `json:"countryCode,omitempty"`
	CountryName    *string    `json:"countryName,omitempty"`
	Status         *string    `json:"status,omitempty"`
	AvailableFrom  *time.Time `json:"availableFrom,omitempty"`
	AvailableUntil *time.Time `json:"availableUntil,omitempty"`
	IconURL        *string    `json:"iconUrl,omitempty"`
	LastUpdatedAt  time.Time  `json:"lastUpdatedAt"`
}

// ToCurrencySummaryResponse converts a models.Currency to its list projection.
func ToCurrencySummaryResponse(curr *models.Currency) CurrencySummaryResponse {
	return CurrencySummaryResponse{
		ID:      curr.CurrencyID,
		Code:    curr.Code,
		Name:    curr.Name,
		IconURL: curr.IconURL,
	}
}

// ToListCurrencySummaryResponse converts a slice of currencies to list projections.
func ToListCurrencySummaryResponse(currencies []models.Currency) []CurrencySummaryResponse {
	res := make([]CurrencySummaryResponse, len(currencies))
	for i, curr := range currencies {
		res[i] = ToCurrencySummaryResponse(&curr)
	}
	return res
}

// ToCurrencyResponse converts a models.Currency to CurrencyResponse.
func ToCurrencyResponse(curr *models.Currency) CurrencyResponse {
	return CurrencyResponse{
		ID:             curr.CurrencyID,
		Code:           curr.Code,
		Name:           curr.Name,
		CountryCode:    curr.CountryCode,
		CountryName:    curr.CountryName,
		Status:         curr.Status,
		AvailableFrom:  curr.AvailableFrom,
		AvailableUntil: curr.AvailableUntil,
		IconURL:        curr.IconURL,
		LastUpdatedAt:  curr.LastUpdatedAt,
	}
}
