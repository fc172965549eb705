package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portsprov "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/providers"
	portsrepo "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/repositories"
	portssvc "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/services"
	"github.com/EnesEfeTokta/fintrack-backend/internal/metrics"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/shopspring/decimal"
)

// ratePrecision is the number of fractional digits rates are stored with and
// compared at during change detection.
const ratePrecision = 6

// RateRefreshService is the background loop that keeps the cache and the
// snapshot history fed. Each cycle is isolated: any failure is logged and
// the loop continues at the next tick, serving whatever was last cached or
// persisted in the meantime.
type RateRefreshService struct {
	provider        portsprov.RateDataProvider
	rateCache       portsprov.RateCache
	snapshotRepo    portsrepo.SnapshotRepository
	currencyService portssvc.CurrencySvcFacade
	interval        time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics // optional
}

// NewRateRefreshService creates a new RateRefreshService. m may be nil when
// metrics are not wired (tests).
func NewRateRefreshService(
	provider portsprov.RateDataProvider,
	rateCache portsprov.RateCache,
	snapshotRepo portsrepo.SnapshotRepository,
	currencyService portssvc.CurrencySvcFacade,
	interval time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *RateRefreshService {
	return &RateRefreshService{
		provider:        provider,
		rateCache:       rateCache,
		snapshotRepo:    snapshotRepo,
		currencyService: currencyService,
		interval:        interval,
		logger:          logger,
		metrics:         m,
	}
}

// Run executes one immediate refresh attempt and then ticks at the
// configured interval until ctx is cancelled. It blocks; start it on its own
// goroutine.
func (s *RateRefreshService) Run(ctx context.Context) {
	s.logger.Info("Rate refresh service started", slog.Duration("interval", s.interval))

	s.RefreshOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Rate refresh service stopping")
			return
		case <-ticker.C:
			s.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce performs a single fetch-and-publish cycle. It never returns an
// error and never panics out: cycle failures must not take the loop down.
func (s *RateRefreshService) RefreshOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in refresh cycle", slog.Any("panic", r))
		}
	}()

	if s.metrics != nil {
		s.metrics.RefreshCyclesTotal.Inc()
	}

	s.syncSupportedCurrencies(ctx)

	snapshot, err := s.provider.FetchLatestRates(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ProviderFailuresTotal.Inc()
		}
		s.logger.Warn("Failed to fetch latest rates; continuing with stale data", slog.String("error", err.Error()))
		return
	}

	s.rateCache.SetLatest(*snapshot)

	if err := s.persistSnapshot(ctx, snapshot); err != nil {
		s.logger.Error("Failed to persist rate snapshot", slog.String("error", err.Error()))
	}
}

func (s *RateRefreshService) syncSupportedCurrencies(ctx context.Context) {
	currencies, err := s.provider.FetchSupportedCurrencies(ctx)
	if err != nil {
		s.logger.Debug("Skipping supported currency sync", slog.String("error", err.Error()))
		return
	}

	written, err := s.currencyService.SyncSupportedCurrencies(ctx, currencies)
	if err != nil {
		s.logger.Error("Failed to sync supported currencies", slog.String("error", err.Error()))
		return
	}
	if written > 0 {
		s.logger.Info("Supported currencies synced", slog.Int("written", written))
	}
}

// persistSnapshot writes the fetched rate set as a new snapshot, flagging it
// HasChanges when any rate differs from the previous snapshot for the same
// base after rounding both sides to the storage precision.
func (s *RateRefreshService) persistSnapshot(ctx context.Context, snapshot *models.RateSnapshot) error {
	fetchTimestamp := snapshot.Date.UTC()

	previous, err := s.snapshotRepo.FindLatestSnapshot(ctx, snapshot.Base)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	previousRates := make(map[string]decimal.Decimal)
	if previous != nil {
		if previous.FetchTimestamp.Equal(fetchTimestamp) {
			s.logger.Info("Snapshot for this fetch timestamp already exists; skipping persist",
				slog.Time("fetch_timestamp", fetchTimestamp))
			return nil
		}
		for _, rate := range previous.Rates {
			previousRates[rate.CurrencyCode] = rate.Rate.Round(ratePrecision)
		}
	}

	hasChanges := false
	rates := make([]models.ExchangeRate, 0, len(snapshot.Rates))
	for code, rate := range snapshot.Rates {
		rounded := rate.Round(ratePrecision)
		rates = append(rates, models.ExchangeRate{CurrencyCode: code, Rate: rounded})

		previousRate, ok := previousRates[code]
		if !ok || !previousRate.Equal(rounded) {
			hasChanges = true
		}
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].CurrencyCode < rates[j].CurrencyCode })

	snapshotID, err := s.snapshotRepo.SaveSnapshot(ctx, models.CurrencySnapshot{
		FetchTimestamp: fetchTimestamp,
		BaseCurrency:   snapshot.Base,
		HasChanges:     hasChanges,
		Rates:          rates,
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SnapshotsPersistedTotal.Inc()
	}
	if hasChanges {
		s.logger.Info("Persisted snapshot with rate changes",
			slog.Int64("snapshot_id", snapshotID), slog.Int("rate_count", len(rates)))
	} else {
		s.logger.Info("Persisted control snapshot without changes", slog.Int64("snapshot_id", snapshotID))
	}
	return nil
}
