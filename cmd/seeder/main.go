package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/deal-finder/internal/catalog"
	"github.com/foxxcyber/deal-finder/internal/config"
	"github.com/foxxcyber/deal-finder/internal/database"
	"github.com/foxxcyber/deal-finder/internal/models"
	logx "github.com/foxxcyber/deal-finder/pkg/logger"
)

// catalogFile is the layout of a seed file
type catalogFile struct {
	Products []models.CreateProductRequest `yaml:"products"`
}

func main() {
	file := flag.String("file", "catalog.yaml", "YAML catalog to import")
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to database")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load configuration")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})

	f, err := os.Open(*file)
	if err != nil {
		logx.Fatal().Err(err).Str("file", *file).Msg("failed to open catalog")
	}
	defer f.Close()

	products, err := loadCatalog(f)
	if err != nil {
		logx.Fatal().Err(err).Str("file", *file).Msg("invalid catalog")
	}
	logx.Info().Int("products", len(products)).Str("file", *file).Msg("catalog loaded")

	if *dryRun {
		for _, p := range products {
			logx.Info().Str("slug", catalog.Slugify(p.Name)).Str("category", p.Category).Float64("price", p.Price).Msg("would insert")
		}
		return
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		logx.Fatal().Err(err).Msg("failed to run migrations")
	}

	inserted, skipped, err := seed(ctx, db, products)
	if err != nil {
		logx.Fatal().Err(err).Int("inserted", inserted).Msg("seeding failed")
	}
	logx.Info().Int("inserted", inserted).Int("skipped", skipped).Msg("seeding complete")
}

// loadCatalog parses and validates a seed file
func loadCatalog(r io.Reader) ([]models.CreateProductRequest, error) {
	var cf catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]int, len(cf.Products))
	for i, p := range cf.Products {
		if err := catalog.ValidateProduct(p); err != nil {
			return nil, fmt.Errorf("product %d (%q): %w", i+1, p.Name, err)
		}
		slug := catalog.Slugify(p.Name)
		if prev, ok := seen[slug]; ok {
			return nil, fmt.Errorf("product %d (%q) duplicates product %d", i+1, p.Name, prev+1)
		}
		seen[slug] = i
	}
	return cf.Products, nil
}

type productWriter interface {
	GetProductBySlug(ctx context.Context, slug string) (models.Product, error)
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (models.Product, error)
}

// seed inserts products that are not in the catalog yet, matched by slug
func seed(ctx context.Context, db productWriter, products []models.CreateProductRequest) (inserted, skipped int, err error) {
	for _, p := range products {
		slug := catalog.Slugify(p.Name)
		_, err := db.GetProductBySlug(ctx, slug)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, database.ErrProductNotFound) {
			return inserted, skipped, fmt.Errorf("look up %s: %w", slug, err)
		}

		created, err := db.CreateProduct(ctx, p)
		if err != nil {
			return inserted, skipped, fmt.Errorf("insert %s: %w", slug, err)
		}
		logx.Debug().Str("id", created.ID).Str("slug", created.Slug).Msg("product inserted")
		inserted++
	}
	return inserted, skipped, nil
}
