package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateDetail is one currency's rate relative to a requested base.
type RateDetail struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// LatestRatesResponse carries every known rate relative to a base currency,
// sorted by currency code ascending. The base itself is excluded.
type LatestRatesResponse struct {
	BaseCurrency      string       `json:"baseCurrency"`
	SnapshotTimestamp time.Time    `json:"snapshotTimestamp"`
	Rates             []RateDetail `json:"rates"`
}

// ConvertCurrencyRequest defines the query parameters of a conversion. The
// amount stays a string so it can be parsed into a decimal without float
// round-tripping.
type ConvertCurrencyRequest struct {
	From   string `form:"from" binding:"required"`
	To     string `form:"to" binding:"required"`
	Amount string `form:"amount" binding:"required"`
}

// CurrencyHistoryRequest defines the query parameters of a history lookup.
// Period keywords are validated by the query service.
type CurrencyHistoryRequest struct {
	Period string `form:"period,default=1M"`
}

// ConversionResult is the outcome of a direct currency conversion.
type ConversionResult struct {
	FromCurrency    string          `json:"fromCurrency"`
	ToCurrency      string          `json:"toCurrency"`
	Amount          decimal.Decimal `json:"amount"`
	Rate            decimal.Decimal `json:"rate"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
}

// CalculatedRates is a cross-rate table relative to one currency, derived
// from the latest USD snapshot.
type CalculatedRates struct {
	SnapshotTimestamp time.Time                  `json:"snapshotTimestamp"`
	BaseCurrency      string                     `json:"baseCurrency"`
	CrossRates        map[string]decimal.Decimal `json:"crossRates"`
}

// SpecificCurrencyResponse is a currency's reference attributes plus, when a
// usable snapshot exists, its cross-rate table. RatesInfo is nil when the
// snapshot is absent or the currency has no non-zero rate in it; that is a
// degraded but valid response, not an error.
type SpecificCurrencyResponse struct {
	CurrencyResponse
	RatesInfo *CalculatedRates `json:"ratesInfo,omitempty"`
}
