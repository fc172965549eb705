// Package currencyfreaks implements the rate provider port against a
// CurrencyFreaks-compatible HTTP API.
package currencyfreaks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portsprov "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/providers"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/shopspring/decimal"
)

// Provider fetches rate data from a CurrencyFreaks-compatible API. All
// failures map to apperrors.ErrProviderUnavailable so the refresh loop can
// treat them uniformly as "no update available".
type Provider struct {
	baseURL                string
	apiKey                 string
	supportedCurrenciesURL string
	httpClient             *http.Client
	logger                 *slog.Logger
}

// latestRatesResponse mirrors the provider's latest-rates payload. Rate
// values arrive as JSON numbers or strings; decimal.Decimal accepts both.
type latestRatesResponse struct {
	Date  string                     `json:"date"`
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type supportedCurrencyDetail struct {
	CurrencyCode         string `json:"currencyCode"`
	CurrencyName         string `json:"currencyName"`
	CountryCode          string `json:"countryCode"`
	CountryName          string `json:"countryName"`
	Status               string `json:"status"`
	AvailableFromString  string `json:"availableFrom"`
	AvailableUntilString string `json:"availableUntil"`
	Icon                 string `json:"icon"`
}

type supportedCurrenciesResponse struct {
	SupportedCurrenciesMap map[string]supportedCurrencyDetail `json:"supportedCurrenciesMap"`
}

// NewProvider creates a Provider. supportedCurrenciesURL may be empty, in
// which case FetchSupportedCurrencies reports the provider as unavailable.
func NewProvider(baseURL, apiKey, supportedCurrenciesURL string, timeout time.Duration, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:                strings.TrimRight(baseURL, "/"),
		apiKey:                 apiKey,
		supportedCurrenciesURL: supportedCurrenciesURL,
		httpClient:             &http.Client{Timeout: timeout},
		logger:                 logger,
	}
}

var _ portsprov.RateDataProvider = (*Provider)(nil)

// FetchLatestRates fetches the current USD-based rate map.
func (p *Provider) FetchLatestRates(ctx context.Context) (*models.RateSnapshot, error) {
	requestURL := fmt.Sprintf("%s/rates/latest?apikey=%s", p.baseURL, url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", apperrors.ErrProviderUnavailable, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch latest rates: %v", apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: rate source returned status %d", apperrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var payload latestRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode rates response: %v", apperrors.ErrProviderUnavailable, err)
	}

	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: rates payload is empty", apperrors.ErrProviderUnavailable)
	}

	snapshot := &models.RateSnapshot{
		Date:  parseFetchDate(payload.Date),
		Base:  strings.ToUpper(payload.Base),
		Rates: make(map[string]decimal.Decimal, len(payload.Rates)),
	}
	if snapshot.Base == "" {
		snapshot.Base = "USD"
	}
	for code, rate := range payload.Rates {
		snapshot.Rates[strings.ToUpper(code)] = rate
	}

	p.logger.Info("Fetched latest currency rates", slog.Int("rate_count", len(snapshot.Rates)), slog.String("base", snapshot.Base))
	return snapshot, nil
}

// FetchSupportedCurrencies fetches the provider's currency catalogue.
func (p *Provider) FetchSupportedCurrencies(ctx context.Context) ([]models.SupportedCurrency, error) {
	if p.supportedCurrenciesURL == "" {
		return nil, fmt.Errorf("%w: supported currencies URL not configured", apperrors.ErrProviderUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.supportedCurrenciesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", apperrors.ErrProviderUnavailable, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch supported currencies: %v", apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: supported currencies endpoint returned status %d", apperrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var payload supportedCurrenciesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode supported currencies response: %v", apperrors.ErrProviderUnavailable, err)
	}

	currencies := make([]models.SupportedCurrency, 0, len(payload.SupportedCurrenciesMap))
	for code, detail := range payload.SupportedCurrenciesMap {
		if code == "" || detail.CurrencyName == "" {
			continue
		}
		currencies = append(currencies, models.SupportedCurrency{
			Code:           strings.ToUpper(code),
			Name:           detail.CurrencyName,
			CountryCode:    optionalString(detail.CountryCode),
			CountryName:    optionalString(detail.CountryName),
			Status:         optionalString(detail.Status),
			AvailableFrom:  parseOptionalDate(detail.AvailableFromString),
			AvailableUntil: parseOptionalDate(detail.AvailableUntilString),
			IconURL:        optionalString(detail.Icon),
		})
	}

	p.logger.Info("Fetched supported currencies", slog.Int("count", len(currencies)))
	return currencies, nil
}

// parseFetchDate parses the provider's fetch timestamp. The API has been
// observed emitting both "2006-01-02 15:04:05-07" and RFC3339; anything
// unparseable falls back to the current time.
func parseFetchDate(value string) time.Time {
	layouts := []string{
		"2006-01-02 15:04:05-07",
		"2006-01-02 15:04:05+00",
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}

func parseOptionalDate(value string) *time.Time {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
