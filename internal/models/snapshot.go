package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySnapshot records the set of exchange rates observed for one base
// currency at one fetch instant. Snapshots are append-only: created once per
// successful provider fetch, never mutated, never deleted.
type CurrencySnapshot struct {
	SnapshotID     int64     `json:"snapshotID"`
	FetchTimestamp time.Time `json:"fetchTimestamp"` // always UTC
	BaseCurrency   string    `json:"baseCurrency"`
	// HasChanges is true when at least one rate in this snapshot differs from
	// the previous snapshot for the same base after rounding to 6 fractional
	// digits. Historical queries only consider flagged snapshots.
	HasChanges bool           `json:"hasChanges"`
	Rates      []ExchangeRate `json:"rates,omitempty"`
}

// ExchangeRate is one (snapshot, currency) rate observation: how many units
// of the currency one unit of the snapshot's base buys. Unique per
// (SnapshotID, CurrencyID).
type ExchangeRate struct {
	ExchangeRateID int64           `json:"exchangeRateID"`
	SnapshotID     int64           `json:"snapshotID"`
	CurrencyID     int64           `json:"currencyID"`
	CurrencyCode   string          `json:"currencyCode"` // joined from currencies
	Rate           decimal.Decimal `json:"rate"`
}

// RateObservation is a flattened (timestamp, currency, rate) tuple from the
// change history, ordered ascending by timestamp.
type RateObservation struct {
	Timestamp    time.Time
	CurrencyCode string
	Rate         decimal.Decimal
}

// RateSnapshot is the raw provider response: the flat USD-based rate map for
// one fetch. It is what the cache holds; it is not a durable entity.
type RateSnapshot struct {
	Date  time.Time                  `json:"date"`
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// SupportedCurrency is one entry of the provider's currency catalogue, used
// to refresh the Currency reference table.
type SupportedCurrency struct {
	Code           string
	Name           string
	CountryCode    *string
	CountryName    *string
	Status         *string
	AvailableFrom  *time.Time
	AvailableUntil *time.Time
	IconURL        *string
}
