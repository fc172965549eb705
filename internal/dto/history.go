package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalRatePoint is one day of a reconstructed cross-rate series.
type HistoricalRatePoint struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// ChangeSummary describes how a cross rate moved over the series. Every
// field is optional: a comparison point that does not exist (series too
// short, zero denominator, no observations in the 24h window) leaves the
// corresponding fields absent rather than zero.
type ChangeSummary struct {
	DailyChangeValue        *decimal.Decimal `json:"dailyChangeValue,omitempty"`
	DailyChangePercentage   *decimal.Decimal `json:"dailyChangePercentage,omitempty"`
	WeeklyChangeValue       *decimal.Decimal `json:"weeklyChangeValue,omitempty"`
	WeeklyChangePercentage  *decimal.Decimal `json:"weeklyChangePercentage,omitempty"`
	MonthlyChangeValue      *decimal.Decimal `json:"monthlyChangeValue,omitempty"`
	MonthlyChangePercentage *decimal.Decimal `json:"monthlyChangePercentage,omitempty"`
	DailyHigh               *decimal.Decimal `json:"dailyHigh,omitempty"`
	DailyLow                *decimal.Decimal `json:"dailyLow,omitempty"`
}

// CurrencyHistoryResponse is the reconstructed daily cross-rate series for a
// currency pair plus its change summary.
type CurrencyHistoryResponse struct {
	BaseCurrency    string                `json:"baseCurrency"`
	TargetCurrency  string                `json:"targetCurrency"`
	Period          string                `json:"period"`
	StartDate       time.Time             `json:"startDate"`
	EndDate         time.Time             `json:"endDate"`
	HistoricalRates []HistoricalRatePoint `json:"historicalRates"`
	ChangeSummary   ChangeSummary         `json:"changeSummary"`
}
