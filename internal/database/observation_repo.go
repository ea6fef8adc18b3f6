package database

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	errx "github.com/foxxcyber/deal-finder/internal/core/error"
	"github.com/foxxcyber/deal-finder/internal/models"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertObservation(ctx context.Context, exec execer, obs models.PriceObservation) error {
	query, args, err := psql.Insert("price_observations").
		Columns("product_id", "price", "observed_at").
		Values(obs.ProductID, obs.Price, obs.ObservedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = exec.Exec(ctx, query, args...)
	return err
}

func latestObservationQuery(productID string) squirrel.SelectBuilder {
	return psql.Select("MAX(observed_at)").
		From("price_observations").
		Where(squirrel.Eq{"product_id": productID})
}

// RecordObservation appends a price reading to a product's history
func (db *DB) RecordObservation(ctx context.Context, obs models.PriceObservation) error {
	return errx.WrapDatabase(insertObservation(ctx, db.Pool, obs))
}

// ListObservations returns the most recent readings for a product, newest first
func (db *DB) ListObservations(ctx context.Context, productID string, limit int) ([]models.PriceObservation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query, args, err := psql.Select("product_id", "price", "observed_at").
		From("price_observations").
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("observed_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PriceObservation{}
	for rows.Next() {
		var obs models.PriceObservation
		if err := rows.Scan(&obs.ProductID, &obs.Price, &obs.ObservedAt); err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}
