package models

import "time"

// Currency is reference data describing a single currency known to the
// system. Rows are created and refreshed by the supported-currency sync;
// everything else only reads them. Code is unique and stored uppercase.
type Currency struct {
	CurrencyID     int64      `json:"currencyID"`
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
