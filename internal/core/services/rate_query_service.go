package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portsprov "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/providers"
	portsrepo "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/repositories"
	"github.com/EnesEfeTokta/fintrack-backend/internal/dto"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/shopspring/decimal"
)

// pivotCurrency is the base all raw snapshots are stored against. Any cross
// rate A/B is derived as rate(B in USD) / rate(A in USD), with USD's own
// rate defined as exactly 1 rather than looked up.
const pivotCurrency = "USD"

// RateQueryService derives cross rates, conversions and historical series
// from persisted USD snapshots. The cache is only used for the quick-lookup
// endpoints; every analytical query reads the durable store.
type RateQueryService struct {
	snapshotRepo portsrepo.SnapshotRepository
	currencyRepo portsrepo.CurrencyRepository
	rateCache    portsprov.RateCache
}

// NewRateQueryService creates a new RateQueryService.
func NewRateQueryService(
	snapshotRepo portsrepo.SnapshotRepository,
	currencyRepo portsrepo.CurrencyRepository,
	rateCache portsprov.RateCache,
) *RateQueryService {
	return &RateQueryService{
		snapshotRepo: snapshotRepo,
		currencyRepo: currencyRepo,
		rateCache:    rateCache,
	}
}

// rateInUSD resolves a currency's rate against the USD pivot. USD itself is
// always exactly 1 and never read from the rate map.
func rateInUSD(code string, rates map[string]decimal.Decimal) (decimal.Decimal, bool) {
	if code == pivotCurrency {
		return decimal.NewFromInt(1), true
	}
	rate, ok := rates[code]
	return rate, ok
}

func ratesByCode(rates []models.ExchangeRate) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(rates))
	for _, rate := range rates {
		m[rate.CurrencyCode] = rate.Rate
	}
	return m
}

// GetSpecificCurrency returns the currency's reference attributes plus a
// cross-rate table relative to it. A missing snapshot or an unusable rate
// for the requested currency degrades the response to reference data only.
func (s *RateQueryService) GetSpecificCurrency(ctx context.Context, code string) (*dto.SpecificCurrencyResponse, error) {
	code = strings.ToUpper(code)

	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get currency %s: %w", code, err)
	}

	resp := &dto.SpecificCurrencyResponse{CurrencyResponse: dto.ToCurrencyResponse(currency)}

	snapshot, err := s.snapshotRepo.FindLatestSnapshot(ctx, pivotCurrency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	rates := ratesByCode(snapshot.Rates)
	selfRate, ok := rateInUSD(code, rates)
	if !ok || selfRate.IsZero() {
		return resp, nil
	}

	crossRates := make(map[string]decimal.Decimal, len(snapshot.Rates))
	for _, rate := range snapshot.Rates {
		if rate.CurrencyCode == "" {
			continue
		}
		crossRates[rate.CurrencyCode] = rate.Rate.Div(selfRate)
	}

	resp.RatesInfo = &dto.CalculatedRates{
		SnapshotTimestamp: snapshot.FetchTimestamp,
		BaseCurrency:      code,
		CrossRates:        crossRates,
	}
	return resp, nil
}

// ConvertCurrency converts amount between two currencies via the USD pivot.
// Equal from/to short-circuits to rate 1 without touching snapshot data.
func (s *RateQueryService) ConvertCurrency(ctx context.Context, from, to string, amount decimal.Decimal) (*dto.ConversionResult, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return &dto.ConversionResult{
			FromCurrency:    from,
			ToCurrency:      to,
			Amount:          amount,
			Rate:            decimal.NewFromInt(1),
			ConvertedAmount: amount,
		}, nil
	}

	snapshot, err := s.snapshotRepo.FindLatestSnapshot(ctx, pivotCurrency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no rate snapshot available", apperrors.ErrNoData)
		}
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if len(snapshot.Rates) == 0 {
		return nil, fmt.Errorf("%w: latest snapshot has no rates", apperrors.ErrNoData)
	}

	rates := ratesByCode(snapshot.Rates)

	fromRate, ok := rateInUSD(from, rates)
	if !ok || fromRate.IsZero() {
		return nil, fmt.Errorf("%w: rate for source currency '%s' is unavailable", apperrors.ErrNotFound, from)
	}

	toRate, ok := rateInUSD(to, rates)
	if !ok {
		return nil, fmt.Errorf("%w: target currency '%s' not found", apperrors.ErrNotFound, to)
	}

	crossRate := toRate.Div(fromRate)
	return &dto.ConversionResult{
		FromCurrency:    from,
		ToCurrency:      to,
		Amount:          amount,
		Rate:            crossRate,
		ConvertedAmount: amount.Mul(crossRate),
	}, nil
}

// GetLatestRates returns every other currency's rate relative to the given
// base, sorted by code. The base itself is excluded from the list.
func (s *RateQueryService) GetLatestRates(ctx context.Context, baseCurrencyCode string) (*dto.LatestRatesResponse, error) {
	base := strings.ToUpper(baseCurrencyCode)
	if base == "" {
		base = pivotCurrency
	}

	snapshot, err := s.snapshotRepo.FindLatestSnapshot(ctx, pivotCurrency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no rate snapshot available", apperrors.ErrNoData)
		}
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if len(snapshot.Rates) == 0 {
		return nil, fmt.Errorf("%w: latest snapshot has no rates", apperrors.ErrNoData)
	}

	rates := ratesByCode(snapshot.Rates)
	baseRate, ok := rateInUSD(base, rates)
	if !ok || baseRate.IsZero() {
		return nil, fmt.Errorf("%w: base currency '%s' not found", apperrors.ErrNotFound, base)
	}

	details := make([]dto.RateDetail, 0, len(snapshot.Rates))
	for _, rate := range snapshot.Rates {
		if rate.CurrencyCode == base {
			continue
		}
		details = append(details, dto.RateDetail{
			Code: rate.CurrencyCode,
			Rate: rate.Rate.Div(baseRate),
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Code < details[j].Code })

	return &dto.LatestRatesResponse{
		BaseCurrency:      base,
		SnapshotTimestamp: snapshot.FetchTimestamp,
		Rates:             details,
	}, nil
}

// GetCurrencyHistory reconstructs one cross-rate point per calendar day for
// the pair over the period and computes the change summary.
func (s *RateQueryService) GetCurrencyHistory(ctx context.Context, baseCode, targetCode, period string) (*dto.CurrencyHistoryResponse, error) {
	baseCode = strings.ToUpper(baseCode)
	targetCode = strings.ToUpper(targetCode)
	if baseCode == targetCode {
		return nil, fmt.Errorf("%w: base and target currencies must differ", apperrors.ErrValidation)
	}

	endDate := time.Now().UTC()
	startDate, periodLabel, err := resolvePeriod(period, endDate)
	if err != nil {
		return nil, err
	}

	// The full history is loaded, not just the requested window: the first
	// days of the window inherit their rates from whatever snapshot precedes
	// them.
	observations, err := s.snapshotRepo.FindChangeHistory(ctx, pivotCurrency, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load change history: %w", err)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: no historical data found for the period", apperrors.ErrNotFound)
	}

	points := buildDailySeries(observations, baseCode, targetCode, startDate, endDate)
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: could not calculate cross-rates for %s/%s", apperrors.ErrNotFound, baseCode, targetCode)
	}

	summary := buildChangeSummary(observations, points, baseCode, targetCode, endDate)

	return &dto.CurrencyHistoryResponse{
		BaseCurrency:    baseCode,
		TargetCurrency:  targetCode,
		Period:          periodLabel,
		StartDate:       points[0].Date,
		EndDate:         points[len(points)-1].Date,
		HistoricalRates: points,
		ChangeSummary:   summary,
	}, nil
}

// GetCachedRates returns the raw provider response currently cached.
func (s *RateQueryService) GetCachedRates(ctx context.Context) (*models.RateSnapshot, error) {
	snapshot, ok := s.rateCache.GetLatest()
	if !ok {
		return nil, fmt.Errorf("%w: no rates cached", apperrors.ErrNoData)
	}
	return snapshot, nil
}

// GetCachedRate returns a single cached rate by currency code.
func (s *RateQueryService) GetCachedRate(ctx context.Context, code string) (decimal.Decimal, error) {
	rate, ok := s.rateCache.GetRate(strings.ToUpper(code))
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: rate for '%s' not found in cache", apperrors.ErrNotFound, strings.ToUpper(code))
	}
	return rate, nil
}

// resolvePeriod maps a period keyword to the window start. Empty means the
// one month default; anything else unknown is a validation error.
func resolvePeriod(period string, end time.Time) (time.Time, string, error) {
	label := strings.ToUpper(strings.TrimSpace(period))
	if label == "" {
		label = "1M"
	}
	switch label {
	case "1D":
		return end.AddDate(0, 0, -1), label, nil
	case "1W":
		return end.AddDate(0, 0, -7), label, nil
	case "1M":
		return end.AddDate(0, -1, 0), label, nil
	case "3M":
		return end.AddDate(0, -3, 0), label, nil
	case "1Y":
		return end.AddDate(-1, 0, 0), label, nil
	case "YTD":
		return time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), label, nil
	default:
		return time.Time{}, "", fmt.Errorf("%w: unknown period '%s'", apperrors.ErrValidation, period)
	}
}

func toDate(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// buildDailySeries walks each calendar day of the window, carrying the last
// known rate map forward across days without snapshot activity. Days before
// the first observation produce no point. Within one day the last
// observation per currency wins.
func buildDailySeries(observations []models.RateObservation, baseCode, targetCode string, startDate, endDate time.Time) []dto.HistoricalRatePoint {
	grouped := make(map[time.Time]map[string]decimal.Decimal)
	for _, obs := range observations {
		day := toDate(obs.Timestamp)
		if grouped[day] == nil {
			grouped[day] = make(map[string]decimal.Decimal)
		}
		// observations are ascending, so later ones override
		grouped[day][obs.CurrencyCode] = obs.Rate
	}

	days := make([]time.Time, 0, len(grouped))
	for day := range grouped {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	lastKnown := make(map[string]decimal.Decimal)
	points := make([]dto.HistoricalRatePoint, 0)
	idx := 0
	for day := toDate(startDate); !day.After(toDate(endDate)); day = day.AddDate(0, 0, 1) {
		for idx < len(days) && !days[idx].After(day) {
			for code, rate := range grouped[days[idx]] {
				lastKnown[code] = rate
			}
			idx++
		}
		if len(lastKnown) == 0 {
			continue
		}

		baseRate, okBase := rateInUSD(baseCode, lastKnown)
		targetRate, okTarget := rateInUSD(targetCode, lastKnown)
		if !okBase || !okTarget || baseRate.IsZero() {
			continue
		}

		points = append(points, dto.HistoricalRatePoint{
			Date: day,
			Rate: targetRate.Div(baseRate),
		})
	}
	return points
}

// buildChangeSummary computes daily/weekly/monthly deltas from the series
// and a rolling 24-hour high/low from the raw observations. Missing
// comparison points leave their fields absent, never zero.
func buildChangeSummary(observations []models.RateObservation, points []dto.HistoricalRatePoint, baseCode, targetCode string, now time.Time) dto.ChangeSummary {
	summary := dto.ChangeSummary{}
	last := points[len(points)-1]

	if len(points) >= 2 {
		prev := points[len(points)-2]
		setChange(&summary.DailyChangeValue, &summary.DailyChangePercentage, last.Rate, prev.Rate)
	}
	if prev, ok := latestPointAtOrBefore(points, last.Date.AddDate(0, 0, -7)); ok {
		setChange(&summary.WeeklyChangeValue, &summary.WeeklyChangePercentage, last.Rate, prev.Rate)
	}
	if prev, ok := latestPointAtOrBefore(points, last.Date.AddDate(0, -1, 0)); ok {
		setChange(&summary.MonthlyChangeValue, &summary.MonthlyChangePercentage, last.Rate, prev.Rate)
	}

	high, low, ok := dailyHighLow(observations, baseCode, targetCode, last.Rate, now)
	if ok {
		summary.DailyHigh = &high
		summary.DailyLow = &low
	}

	return summary
}

func setChange(value, percentage **decimal.Decimal, latest, previous decimal.Decimal) {
	delta := latest.Sub(previous)
	*value = &delta
	if !previous.IsZero() {
		pct := delta.Div(previous).Mul(decimal.NewFromInt(100))
		*percentage = &pct
	}
}

func latestPointAtOrBefore(points []dto.HistoricalRatePoint, cutoff time.Time) (dto.HistoricalRatePoint, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Date.After(cutoff) {
			return points[i], true
		}
	}
	return dto.HistoricalRatePoint{}, false
}

// dailyHighLow resolves the pair's cross rate at every distinct observation
// timestamp in the last 24 hours, using the latest observation at or before
// each timestamp for each side (raw timestamps, deliberately not the
// day-grouped series), appends the series' final rate, and takes min/max.
func dailyHighLow(observations []models.RateObservation, baseCode, targetCode string, finalRate decimal.Decimal, now time.Time) (decimal.Decimal, decimal.Decimal, bool) {
	windowStart := now.Add(-24 * time.Hour)

	timestampSet := make(map[time.Time]struct{})
	for _, obs := range observations {
		if obs.Timestamp.After(windowStart) && !obs.Timestamp.After(now) {
			timestampSet[obs.Timestamp] = struct{}{}
		}
	}
	if len(timestampSet) == 0 {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}

	timestamps := make([]time.Time, 0, len(timestampSet))
	for ts := range timestampSet {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	candidates := make([]decimal.Decimal, 0, len(timestamps)+1)
	for _, ts := range timestamps {
		baseRate, okBase := rateAsOf(observations, baseCode, ts)
		targetRate, okTarget := rateAsOf(observations, targetCode, ts)
		if !okBase || !okTarget || baseRate.IsZero() {
			continue
		}
		candidates = append(candidates, targetRate.Div(baseRate))
	}
	candidates = append(candidates, finalRate)

	high := candidates[0]
	low := candidates[0]
	for _, rate := range candidates[1:] {
		if rate.GreaterThan(high) {
			high = rate
		}
		if rate.LessThan(low) {
			low = rate
		}
	}
	return high, low, true
}

// rateAsOf returns the latest observed USD rate for code at or before ts.
func rateAsOf(observations []models.RateObservation, code string, ts time.Time) (decimal.Decimal, bool) {
	if code == pivotCurrency {
		return decimal.NewFromInt(1), true
	}
	var rate decimal.Decimal
	found := false
	for _, obs := range observations {
		if obs.Timestamp.After(ts) {
			break
		}
		if obs.CurrencyCode == code {
			rate = obs.Rate
			found = true
		}
	}
	return rate, found
}
