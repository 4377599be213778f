// Package indexer loads product catalogs into the configured search backend.
package indexer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/elastic"
	"github.com/hyperjump/tansaku/internal/keyword"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/storage"
	"go.uber.org/zap"
)

// Seeder replaces the contents of a backend with a product catalog.
type Seeder struct {
	config *config.Config
	logger *zap.Logger
}

// SeederOption configures a Seeder.
type SeederOption func(*Seeder)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) SeederOption {
	return func(s *Seeder) { s.logger = l }
}

// NewSeeder creates a seeder that reaches backends through cfg.
func NewSeeder(cfg *config.Config, opts ...SeederOption) *Seeder {
	s := &Seeder{config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed loads products into the backend named engine, replacing what it held.
// Unknown names fall back to postgres, the same way engine selection does.
func (s *Seeder) Seed(ctx context.Context, engine string, products []models.Product) error {
	name, ok := config.ResolveEngine(engine)
	if !ok {
		s.logger.Warn("Unknown search engine, using postgres", zap.String("engine", engine))
	}
	s.logger.Info("Seeding products", zap.String("engine", name), zap.Int("count", len(products)))

	var (
		stored int64
		err    error
	)
	switch name {
	case config.EngineSQLite:
		stored, err = s.seedSQLite(ctx, products)
	case config.EngineElastic:
		stored, err = s.seedElastic(ctx, products)
	case config.EngineBleve:
		stored, err = s.seedBleve(ctx, products)
	default:
		stored, err = s.seedPostgres(ctx, products)
	}
	if err != nil {
		return fmt.Errorf("seed %s: %w", name, err)
	}
	s.logger.Info("Seeding complete", zap.String("engine", name), zap.Int64("documents", stored))
	return nil
}

// seedPostgres, like every seed function, returns the number of documents the backend
// holds afterwards.
func (s *Seeder) seedPostgres(ctx context.Context, products []models.Product) (int64, error) {
	db, err := storage.OpenPostgres(s.config.Postgres.DSN(), s.config.Postgres.MaxConns)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return replaceAll(ctx, storage.NewProductStore(db, storage.KindPostgres), products)
}

func (s *Seeder) seedSQLite(ctx context.Context, products []models.Product) (int64, error) {
	db, err := storage.OpenSQLite(s.config.SQLite.Path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return replaceAll(ctx, storage.NewProductStore(db, storage.KindSQLite), products)
}

func replaceAll(ctx context.Context, store *storage.ProductStore, products []models.Product) (int64, error) {
	if err := store.InitSchema(ctx); err != nil {
		return 0, err
	}
	if err := store.ReplaceAll(ctx, products); err != nil {
		return 0, err
	}
	return store.Count(ctx)
}

// seedElastic reports len(products): BulkIndex fails unless every document was accepted.
func (s *Seeder) seedElastic(ctx context.Context, products []models.Product) (int64, error) {
	client, err := elastic.NewClient(elastic.Config{
		URL:      s.config.Elastic.URL,
		Index:    s.config.Elastic.Index,
		Username: s.config.Elastic.Username,
		Password: s.config.Elastic.Password,
	})
	if err != nil {
		return 0, err
	}
	if err := client.RecreateIndex(ctx); err != nil {
		return 0, err
	}
	s.logger.Debug("Index recreated", zap.String("index", client.Index()))
	if err := client.BulkIndex(ctx, products); err != nil {
		return 0, err
	}
	return int64(len(products)), nil
}

func (s *Seeder) seedBleve(ctx context.Context, products []models.Product) (int64, error) {
	if keyword.InMemory(s.config.Bleve.Path) {
		return 0, fmt.Errorf("bleve path is required to seed a persistent index")
	}
	idx, err := keyword.RecreateBleveIndex(s.config.Bleve.Path)
	if err != nil {
		return 0, err
	}
	defer idx.Close()
	if err := idx.IndexBatch(ctx, withIDs(products)); err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return int64(n), nil
}

// withIDs returns a copy of products where every product without an ID gets a random one.
func withIDs(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	for i, p := range products {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		out[i] = p
	}
	return out
}

// SampleCatalog returns the built-in demo catalog used when no file is given.
func SampleCatalog() []models.Product {
	return []models.Product{
		{Title: "iPhone 15 Pro", Description: "Apple smartphone with A17 chip", Brand: "Apple", Category: "phones"},
		{Title: "iPhone 15", Description: "Apple smartphone with A16 chip", Brand: "Apple", Category: "phones"},
		{Title: "iPhone 14", Description: "Apple smartphone previous generation", Brand: "Apple", Category: "phones"},
		{Title: "Samsung Galaxy S24 Ultra", Description: "Android flagship phone", Brand: "Samsung", Category: "phones"},
		{Title: "Samsung Galaxy S23", Description: "Previous Samsung flagship", Brand: "Samsung", Category: "phones"},
		{Title: "MacBook Pro 16", Description: "Apple laptop with M2 Pro", Brand: "Apple", Category: "laptops"},
		{Title: "MacBook Air M2", Description: "Apple light laptop", Brand: "Apple", Category: "laptops"},
	}
}
