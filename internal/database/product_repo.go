package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/deal-finder/internal/catalog"
	errx "github.com/foxxcyber/deal-finder/internal/core/error"
	"github.com/foxxcyber/deal-finder/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrStalePrice      = errors.New("price is older than the latest recorded observation")
)

var productColumns = []string{
	"id", "name", "description", "price", "original_price", "rating", "review_count",
	"category", "brand", "tags", "in_stock", "featured", "affiliate_url", "image_url",
	"slug", "created_at",
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Rating, &p.ReviewCount,
		&p.Category, &p.Brand, &p.Tags, &p.InStock, &p.Featured, &p.AffiliateURL, &p.ImageURL,
		&p.Slug, &p.CreatedAt,
	)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, err
}

// ListProducts returns the whole catalog in insertion order. Filtering,
// sorting and paging happen in catalog.Query over this snapshot.
func (db *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	query, args, err := psql.Select(productColumns...).From("products").OrderBy("position ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (db *DB) getProduct(ctx context.Context, where squirrel.Eq) (models.Product, error) {
	query, args, err := psql.Select(productColumns...).From("products").Where(where).ToSql()
	if err != nil {
		return models.Product{}, err
	}

	p, err := scanProduct(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}
	return p, nil
}

// GetProductByID retrieves a product by ID
func (db *DB) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	return db.getProduct(ctx, squirrel.Eq{"id": id})
}

// GetProductBySlug retrieves a product by its URL slug
func (db *DB) GetProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	return db.getProduct(ctx, squirrel.Eq{"slug": slug})
}

// CreateProduct inserts a product. The slug is derived from the name once and
// never changes afterwards; a clash gets a short suffix.
func (db *DB) CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.Product, error) {
	if err := catalog.ValidateProduct(req); err != nil {
		return models.Product{}, err
	}

	id := uuid.NewString()
	base := catalog.Slugify(req.Name)
	if base == "" {
		base = "product"
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	slug := base
	for attempt := 0; attempt < 3; attempt++ {
		query, args, err := psql.Insert("products").
			Columns("id", "name", "description", "price", "original_price", "rating", "review_count",
				"category", "category_slug", "brand", "tags", "in_stock", "featured", "affiliate_url",
				"image_url", "slug").
			Values(id, req.Name, req.Description, req.Price, req.OriginalPrice, req.Rating, req.ReviewCount,
				req.Category, catalog.NormalizeLabel(req.Category), req.Brand, tags, req.InStock, req.Featured,
				req.AffiliateURL, req.ImageURL, slug).
			Suffix("RETURNING " + strings.Join(productColumns, ", ")).
			ToSql()
		if err != nil {
			return models.Product{}, err
		}

		p, err := scanProduct(db.Pool.QueryRow(ctx, query, args...))
		if err == nil {
			return p, nil
		}
		if !isUniqueViolation(err, "products_slug_key") {
			return models.Product{}, fmt.Errorf("insert product: %w", err)
		}
		slug = base + "-" + uuid.NewString()[:8]
	}
	return models.Product{}, fmt.Errorf("insert product: no free slug for %q", base)
}

// UpdateProductPrice sets a product's current price and records the reading in
// the observation history. observedAt defaults to now. A reading older than the
// product's latest observation changes nothing and returns ErrStalePrice.
func (db *DB) UpdateProductPrice(ctx context.Context, id string, price float64, observedAt time.Time) (models.PriceObservation, error) {
	if !catalog.ValidPrice(price) {
		return models.PriceObservation{}, fmt.Errorf("%w: price must be a non-negative number", catalog.ErrInvalidProduct)
	}
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}
	defer tx.Rollback(ctx)

	query, args, err := psql.Select("id").From("products").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}
	var locked string
	if err := tx.QueryRow(ctx, query, args...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PriceObservation{}, ErrProductNotFound
		}
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}

	query, args, err = latestObservationQuery(id).ToSql()
	if err != nil {
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}
	var latest *time.Time
	if err := tx.QueryRow(ctx, query, args...).Scan(&latest); err != nil {
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}
	if latest != nil && observedAt.Before(*latest) {
		return models.PriceObservation{}, fmt.Errorf("%w: %s before %s", ErrStalePrice,
			observedAt.UTC().Format(time.RFC3339), latest.UTC().Format(time.RFC3339))
	}

	query, args, err = psql.Update("products").Set("price", price).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}

	obs := models.PriceObservation{ProductID: id, Price: price, ObservedAt: observedAt}
	if err := insertObservation(ctx, tx, obs); err != nil {
		return models.PriceObservation{}, errx.WrapDatabase(err)
	}

	return obs, errx.WrapDatabase(tx.Commit(ctx))
}

// ListCategories returns one entry per normalized category, named after the
// first product filed under it.
func (db *DB) ListCategories(ctx context.Context) ([]models.CategorySummary, error) {
	query, args, err := psql.Select("category_slug", "category", "COUNT(*) OVER (PARTITION BY category_slug)").
		Options("DISTINCT ON (category_slug)").
		From("products").
		OrderBy("category_slug", "position").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.CategorySummary{}
	for rows.Next() {
		var c models.CategorySummary
		if err := rows.Scan(&c.Slug, &c.Name, &c.ProductCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
