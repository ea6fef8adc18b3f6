package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/deal-finder/internal/alerts"
	errx "github.com/foxxcyber/deal-finder/internal/core/error"
	"github.com/foxxcyber/deal-finder/internal/models"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

var notificationColumns = []string{
	"n.id", "n.user_id", "n.product_id", "n.threshold", "n.direction", "n.is_active",
	"n.last_evaluated_price", "n.last_observed_at", "n.created_at", "n.updated_at",
}

func notificationDest(n *models.PriceNotification) []any {
	return []any{
		&n.ID, &n.UserID, &n.ProductID, &n.Threshold, &n.Direction, &n.IsActive,
		&n.LastEvaluatedPrice, &n.LastObservedAt, &n.CreatedAt, &n.UpdatedAt,
	}
}

// ListNotificationsByUser returns a user's price watches, newest first
func (db *DB) ListNotificationsByUser(ctx context.Context, userID string) ([]models.PriceNotificationWithProduct, error) {
	query, args, err := psql.Select(append(notificationColumns, "p.name", "p.slug", "p.price")...).
		From("price_notifications n").
		Join("products p ON p.id = n.product_id").
		Where(squirrel.Eq{"n.user_id": userID}).
		OrderBy("n.created_at DESC", "n.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PriceNotificationWithProduct{}
	for rows.Next() {
		var n models.PriceNotificationWithProduct
		dest := append(notificationDest(&n.PriceNotification), &n.ProductName, &n.ProductSlug, &n.CurrentPrice)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetNotification retrieves one of a user's price watches
func (db *DB) GetNotification(ctx context.Context, id, userID string) (models.PriceNotification, error) {
	query, args, err := psql.Select(notificationColumns...).
		From("price_notifications n").
		Where(squirrel.Eq{"n.id": id, "n.user_id": userID}).
		ToSql()
	if err != nil {
		return models.PriceNotification{}, err
	}

	var n models.PriceNotification
	if err := db.Pool.QueryRow(ctx, query, args...).Scan(notificationDest(&n)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PriceNotification{}, ErrNotificationNotFound
		}
		return models.PriceNotification{}, err
	}
	return n, nil
}

// CreateNotification registers a price watch for userID
func (db *DB) CreateNotification(ctx context.Context, userID string, req models.CreateNotificationRequest) (models.PriceNotification, error) {
	if err := alerts.Validate(req); err != nil {
		return models.PriceNotification{}, err
	}

	n := models.PriceNotification{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: req.ProductID,
		Threshold: req.Threshold,
		Direction: req.Direction,
		IsActive:  true,
	}

	query, args, err := psql.Insert("price_notifications").
		Columns("id", "user_id", "product_id", "threshold", "direction", "is_active").
		Values(n.ID, n.UserID, n.ProductID, n.Threshold, n.Direction, n.IsActive).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return models.PriceNotification{}, err
	}

	if err := db.Pool.QueryRow(ctx, query, args...).Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.PriceNotification{}, ErrProductNotFound
		}
		return models.PriceNotification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// SetNotificationActive pauses or resumes a watch. The last evaluated price is
// kept so a resumed watch compares against the price it last saw.
func (db *DB) SetNotificationActive(ctx context.Context, id, userID string, active bool) (models.PriceNotification, error) {
	query, args, err := psql.Update("price_notifications n").
		Set("is_active", active).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"n.id": id, "n.user_id": userID}).
		Suffix("RETURNING " + strings.Join(notificationColumns, ", ")).
		ToSql()
	if err != nil {
		return models.PriceNotification{}, err
	}

	var n models.PriceNotification
	if err := db.Pool.QueryRow(ctx, query, args...).Scan(notificationDest(&n)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PriceNotification{}, ErrNotificationNotFound
		}
		return models.PriceNotification{}, err
	}
	return n, nil
}

// DeleteNotification removes one of a user's price watches
func (db *DB) DeleteNotification(ctx context.Context, id, userID string) error {
	query, args, err := psql.Delete("price_notifications").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// ActiveForProduct implements alerts.Registry
func (db *DB) ActiveForProduct(ctx context.Context, productID string) ([]models.PriceNotification, error) {
	query, args, err := psql.Select(notificationColumns...).
		From("price_notifications n").
		Where(squirrel.Eq{"n.product_id": productID, "n.is_active": true}).
		OrderBy("n.created_at", "n.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errx.WrapDatabase(err)
	}
	defer rows.Close()

	var out []models.PriceNotification
	for rows.Next() {
		var n models.PriceNotification
		if err := rows.Scan(notificationDest(&n)...); err != nil {
			return nil, errx.WrapDatabase(err)
		}
		out = append(out, n)
	}
	return out, errx.WrapDatabase(rows.Err())
}

// SaveEvaluation implements alerts.Registry. Only the evaluation columns are
// written so a concurrent pause by the owner is not undone.
func (db *DB) SaveEvaluation(ctx context.Context, n models.PriceNotification) error {
	query, args, err := psql.Update("price_notifications").
		Set("last_evaluated_price", n.LastEvaluatedPrice).
		Set("last_observed_at", n.LastObservedAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": n.ID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx, query, args...)
	return errx.WrapDatabase(err)
}
