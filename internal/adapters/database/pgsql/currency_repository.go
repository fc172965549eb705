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

// PgxCurrencyRepository implements repositories.CurrencyRepository using pgxpool.
type PgxCurrencyRepository struct {
	pool *pgxpool.Pool
}

// NewPgxCurrencyRepository creates a new repository for currency reference data.
func NewPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepository {
	return &PgxCurrencyRepository{pool: pool}
}

const currencyColumns = `currency_id, code, name, country_code, country_name, status, available_from, available_until, icon_url, last_updated_at`

// UpsertCurrencies inserts or updates reference rows from the provider's
// supported-currency catalogue, keyed on the uppercase code.
func (r *PgxCurrencyRepository) UpsertCurrencies(ctx context.Context, currencies []models.SupportedCurrency) (int, error) {
	if len(currencies) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO currencies (code, name, country_code, country_name, status, available_from, available_until, icon_url, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			country_code = EXCLUDED.country_code,
			country_name = EXCLUDED.country_name,
			status = EXCLUDED.status,
			available_from = EXCLUDED.available_from,
			available_until = EXCLUDED.available_until,
			icon_url = EXCLUDED.icon_url,
			last_updated_at = EXCLUDED.last_updated_at
		WHERE (currencies.name, currencies.country_code, currencies.country_name, currencies.status,
		       currencies.available_from, currencies.available_until, currencies.icon_url)
		   IS DISTINCT FROM
		      (EXCLUDED.name, EXCLUDED.country_code, EXCLUDED.country_name, EXCLUDED.status,
		       EXCLUDED.available_from, EXCLUDED.available_until, EXCLUDED.icon_url);
	`

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, curr := range currencies {
		if curr.Code == "" || curr.Name == "" {
			continue
		}
		batch.Queue(query,
			curr.Code,
			curr.Name,
			curr.CountryCode,
			curr.CountryName,
			curr.Status,
			curr.AvailableFrom,
			curr.AvailableUntil,
			curr.IconURL,
			now,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	written := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			return written, fmt.Errorf("failed to upsert currency batch entry %d: %w", i, err)
		}
		written += int(tag.RowsAffected())
	}
	return written, nil
}

// FindCurrencyByCode retrieves a currency by its uppercase code.
func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE code = $1;`
	return r.findOne(ctx, query, code)
}

// FindCurrencyByName retrieves a currency by its display name.
func (r *PgxCurrencyRepository) FindCurrencyByName(ctx context.Context, name string) (*models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE name = $1;`
	return r.findOne(ctx, query, name)
}

// FindCurrencyByCountryCode retrieves a currency by its country code.
func (r *PgxCurrencyRepository) FindCurrencyByCountryCode(ctx context.Context, countryCode string) (*models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE country_code = $1;`
	return r.findOne(ctx, query, countryCode)
}

// FindCurrencyByCountryName retrieves a currency by country name, case-insensitively.
func (r *PgxCurrencyRepository) FindCurrencyByCountryName(ctx context.Context, countryName string) (*models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE UPPER(country_name) = UPPER($1);`
	return r.findOne(ctx, query, countryName)
}

func (r *PgxCurrencyRepository) findOne(ctx context.Context, query string, arg any) (*models.Currency, error) {
	var currency models.Currency
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&currency.CurrencyID,
		&currency.Code,
		&currency.Name,
		&currency.CountryCode,
		&currency.CountryName,
		&currency.Status,
		&currency.AvailableFrom,
		&currency.AvailableUntil,
		&currency.IconURL,
		&currency.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Map db not found error to application specific error
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find currency: %w", err)
	}
	return &currency, nil
}

// ListCurrencies retrieves all currencies ordered by code.
func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies ORDER BY code;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	currencies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Currency, error) {
		var currency models.Currency
		err := row.Scan(
			&currency.CurrencyID,
			&currency.Code,
			&currency.Name,
			&currency.CountryCode,
			&currency.CountryName,
			&currency.Status,
			&currency.AvailableFrom,
			&currency.AvailableUntil,
			&currency.IconURL,
			&currency.LastUpdatedAt,
		)
		return currency, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan currencies: %w", err)
	}

	return currencies, nil
}
