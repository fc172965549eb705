package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/apperrors"
	portsrepo "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/repositories"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSnapshotRepository implements repositories.SnapshotRepository using pgxpool.
type PgxSnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewPgxSnapshotRepository creates a new repository for rate snapshot data.
func NewPgxSnapshotRepository(pool *pgxpool.Pool) portsrepo.SnapshotRepository {
	return &PgxSnapshotRepository{pool: pool}
}

// SaveSnapshot persists a snapshot and its rate rows atomically. Rate rows
// referencing currency codes that are not in the currencies table are
// skipped; the (snapshot_id, currency_id) uniqueness constraint holds for
// everything that is written.
func (r *PgxSnapshotRepository) SaveSnapshot(ctx context.Context, snapshot models.CurrencySnapshot) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore rollback error
	}()

	// Resolve currency codes to ids inside the transaction.
	codeToID := make(map[string]int64)
	rows, err := tx.Query(ctx, `SELECT code, currency_id FROM currencies;`)
	if err != nil {
		return 0, fmt.Errorf("failed to load currency ids: %w", err)
	}
	for rows.Next() {
		var code string
		var id int64
		if err := rows.Scan(&code, &id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan currency id: %w", err)
		}
		codeToID[code] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read currency ids: %w", err)
	}

	var snapshotID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO currency_snapshots (fetch_timestamp, base_currency, has_changes)
		VALUES ($1, $2, $3)
		RETURNING snapshot_id;
	`, snapshot.FetchTimestamp, snapshot.BaseCurrency, snapshot.HasChanges).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	rateQuery := `
		INSERT INTO exchange_rates (snapshot_id, currency_id, rate)
		VALUES ($1, $2, $3);
	`
	for _, rate := range snapshot.Rates {
		currencyID, ok := codeToID[rate.CurrencyCode]
		if !ok {
			continue
		}
		batch.Queue(rateQuery, snapshotID, currencyID, rate.Rate)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to insert rates for snapshot %d: %w", snapshotID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot %d: %w", snapshotID, err)
	}

	return snapshotID, nil
}

// FindLatestSnapshot returns the most recent snapshot for the base currency
// with its rates and currency codes joined.
func (r *PgxSnapshotRepository) FindLatestSnapshot(ctx context.Context, baseCurrency string) (*models.CurrencySnapshot, error) {
	var snapshot models.CurrencySnapshot
	err := r.pool.QueryRow(ctx, `
		SELECT snapshot_id, fetch_timestamp, base_currency, has_changes
		FROM currency_snapshots
		WHERE base_currency = $1
		ORDER BY fetch_timestamp DESC
		LIMIT 1;
	`, baseCurrency).Scan(
		&snapshot.SnapshotID,
		&snapshot.FetchTimestamp,
		&snapshot.BaseCurrency,
		&snapshot.HasChanges,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest snapshot for %s: %w", baseCurrency, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT er.exchange_rate_id, er.snapshot_id, er.currency_id, c.code, er.rate
		FROM exchange_rates er
		JOIN currencies c ON c.currency_id = er.currency_id
		WHERE er.snapshot_id = $1
		ORDER BY c.code;
	`, snapshot.SnapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for snapshot %d: %w", snapshot.SnapshotID, err)
	}
	defer rows.Close()

	rates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ExchangeRate, error) {
		var rate models.ExchangeRate
		err := row.Scan(&rate.ExchangeRateID, &rate.SnapshotID, &rate.CurrencyID, &rate.CurrencyCode, &rate.Rate)
		return rate, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rates for snapshot %d: %w", snapshot.SnapshotID, err)
	}

	snapshot.Rates = rates
	return &snapshot, nil
}

// FindChangeHistory returns observation tuples from snapshots flagged
// HasChanges, ascending by fetch timestamp.
func (r *PgxSnapshotRepository) FindChangeHistory(ctx context.Context, baseCurrency string, from *time.Time) ([]models.RateObservation, error) {
	query := `
		SELECT s.fetch_timestamp, c.code, er.rate
		FROM exchange_rates er
		JOIN currency_snapshots s ON s.snapshot_id = er.snapshot_id
		JOIN currencies c ON c.currency_id = er.currency_id
		WHERE s.base_currency = $1 AND s.has_changes = TRUE
	`
	args := []any{baseCurrency}
	if from != nil {
		query += ` AND s.fetch_timestamp >= $2`
		args = append(args, *from)
	}
	query += ` ORDER BY s.fetch_timestamp ASC, c.code ASC;`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query change history for %s: %w", baseCurrency, err)
	}
	defer rows.Close()

	observations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RateObservation, error) {
		var obs models.RateObservation
		err := row.Scan(&obs.Timestamp, &obs.CurrencyCode, &obs.Rate)
		return obs, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan change history for %s: %w", baseCurrency, err)
	}

	return observations, nil
}
