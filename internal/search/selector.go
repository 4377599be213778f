package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/internal/elastic"
	"github.com/hyperjump/tansaku/internal/fuzzy"
	"github.com/hyperjump/tansaku/internal/keyword"
	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/relational"
	"github.com/hyperjump/tansaku/internal/storage"
	"go.uber.org/zap"
)

var (
	_ Engine    = (*relational.Strategy)(nil)
	_ Engine    = (*fuzzy.Strategy)(nil)
	_ Engine    = Unimplemented{}
	_ io.Closer = (*closingEngine)(nil)
	_ io.Closer = (*lazyBleve)(nil)
	_ io.Closer = (*failingEngine)(nil)

	_ fuzzy.Index = (*elastic.Client)(nil)
	_ fuzzy.Index = (*keyword.BleveIndex)(nil)
)

// NewEngine builds the engine named by cfg.Search.Engine, wrapped with Instrument.
// Unknown names fall back to postgres. It never fails: when a backend client cannot
// be constructed, every search returns the construction error. The result also
// implements io.Closer.
func NewEngine(cfg *config.Config, logger *zap.Logger) Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	name, ok := config.ResolveEngine(cfg.Search.Engine)
	if !ok {
		logger.Warn("Unknown search engine, using postgres", zap.String("engine", cfg.Search.Engine))
	}

	var engine Engine
	switch name {
	case config.EngineSQLite:
		engine = newSQLiteEngine(cfg)
	case config.EngineElastic:
		engine = newElasticEngine(cfg)
	case config.EngineBleve:
		engine = &lazyBleve{path: cfg.Bleve.Path, pageSize: cfg.Search.PageSize}
	default:
		engine = newPostgresEngine(cfg)
	}
	if f, ok := engine.(*failingEngine); ok {
		logger.Error("Search engine unavailable", zap.String("engine", name), zap.Error(f.err))
	} else {
		logger.Info("Search engine running", zap.String("engine", name))
	}
	return Instrument(engine, name, logger)
}

func newPostgresEngine(cfg *config.Config) Engine {
	db, err := storage.OpenPostgres(cfg.Postgres.DSN(), cfg.Postgres.MaxConns)
	if err != nil {
		return &failingEngine{err: err}
	}
	strategy := relational.New(db,
		relational.Postgres{TextSearchConfig: cfg.Postgres.TextSearchConfig},
		relational.WithMinSimilarity(cfg.Search.MinSimilarity),
	)
	return &closingEngine{Engine: strategy, closer: db}
}

func newSQLiteEngine(cfg *config.Config) Engine {
	db, err := storage.OpenSQLite(cfg.SQLite.Path)
	if err != nil {
		return &failingEngine{err: err}
	}
	if err := storage.NewProductStore(db, storage.KindSQLite).InitSchema(context.Background()); err != nil {
		_ = db.Close()
		return &failingEngine{err: err}
	}
	strategy := relational.New(db, relational.SQLite{},
		relational.WithMinSimilarity(cfg.Search.MinSimilarity),
	)
	return &closingEngine{Engine: strategy, closer: db}
}

func newElasticEngine(cfg *config.Config) Engine {
	client, err := elastic.NewClient(elastic.Config{
		URL:      cfg.Elastic.URL,
		Index:    cfg.Elastic.Index,
		Username: cfg.Elastic.Username,
		Password: cfg.Elastic.Password,
	})
	if err != nil {
		return &failingEngine{err: err}
	}
	return fuzzy.New(client, fuzzy.WithPageSize(cfg.Search.PageSize))
}

// closingEngine releases closer when the engine is closed.
type closingEngine struct {
	Engine
	closer io.Closer
}

func (e *closingEngine) Close() error {
	return e.closer.Close()
}

// failingEngine returns err from every search.
type failingEngine struct {
	err error
}

func (e *failingEngine) Search(context.Context, string) (*models.SearchResult, error) {
	return nil, e.err
}

func (e *failingEngine) Close() error { return nil }

// lazyBleve opens the bleve index on the first search so that selection does not
// touch the filesystem. Searches hold the read lock, so Close waits for them.
type lazyBleve struct {
	path     string
	pageSize int

	mu       sync.RWMutex
	opened   bool
	index    *keyword.BleveIndex
	strategy *fuzzy.Strategy
	err      error
}

// open must be called with the write lock held.
func (l *lazyBleve) open() {
	l.opened = true
	l.index, l.err = keyword.NewBleveIndex(l.path)
	if l.err != nil {
		l.err = fmt.Errorf("open bleve index: %w", l.err)
		return
	}
	l.strategy = fuzzy.New(l.index, fuzzy.WithPageSize(l.pageSize))
}

func (l *lazyBleve) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	l.mu.RLock()
	if !l.opened {
		l.mu.RUnlock()
		l.mu.Lock()
		if !l.opened {
			l.open()
		}
		l.mu.Unlock()
		l.mu.RLock()
	}
	defer l.mu.RUnlock()
	if l.err != nil {
		return nil, l.err
	}
	return l.strategy.Search(ctx, q)
}

// Close closes the index if it was opened. A later search fails.
func (l *lazyBleve) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var err error
	if l.index != nil {
		err = l.index.Close()
	}
	l.opened = true
	l.index = nil
	l.strategy = nil
	l.err = errClosed
	return err
}

var errClosed = errors.New("search engine closed")

// Close releases the resources held by engine if it holds any.
func Close(engine Engine) error {
	if c, ok := engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
