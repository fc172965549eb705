package repositories

import (
	"context"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
)

// SnapshotRepository is the durable query surface over rate snapshots.
// Snapshots are append-only; there are no update or delete operations.
type SnapshotRepository interface {
	// SaveSnapshot persists a snapshot and its rate rows in one transaction
	// and returns the new snapshot ID. Rates reference currencies by code;
	// codes unknown to the currencies table are skipped.
	SaveSnapshot(ctx context.Context, snapshot models.CurrencySnapshot) (int64, error)
	// FindLatestSnapshot returns the most recent snapshot for the base
	// currency with its rates and currency codes joined, or
	// apperrors.ErrNotFound if none exists.
	FindLatestSnapshot(ctx context.Context, baseCurrency string) (*models.CurrencySnapshot, error)
	// FindChangeHistory returns (timestamp, currency, rate) tuples from
	// snapshots flagged HasChanges, ascending by timestamp. A nil from loads
	// the full history.
	FindChangeHistory(ctx context.Context, baseCurrency string, from *time.Time) ([]models.RateObservation, error)
}

// RepositoryProvider aggregates all repositories for dependency injection.
type RepositoryProvider struct {
	CurrencyRepo CurrencyRepository
	SnapshotRepo SnapshotRepository
}
