// Package bootstrap wires stores, catalog sources and services from config.
// The api, worker and adminctl binaries share it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"imagecompare/internal/catalog"
	"imagecompare/internal/config"
	"imagecompare/internal/database"
	"imagecompare/internal/handlers"
	"imagecompare/internal/repository"
	"imagecompare/internal/repository/sqlite"
	"imagecompare/internal/service"
	"imagecompare/internal/storage"
)

type Stores struct {
	Comparisons service.ComparisonStore
	Users       service.UserStore
	Votes       service.VoteStore
	Admins      service.AdminStore

	ping  func(ctx context.Context) error
	close func()
}

func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Stores) Close() {
	s.close()
}

// OpenStores connects to the configured database and applies the schema.
func OpenStores(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Stores{
			Comparisons: repository.NewComparisonRepository(pool),
			Users:       repository.NewUserRepository(pool),
			Votes:       repository.NewVoteRepository(pool),
			Admins:      repository.NewAdminRepository(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return sqliteStores(db), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func sqliteStores(db *sql.DB) *Stores {
	return &Stores{
		Comparisons: sqlite.NewComparisonRepository(db),
		Users:       sqlite.NewUserRepository(db),
		Votes:       sqlite.NewVoteRepository(db),
		Admins:      sqlite.NewAdminRepository(db),
		ping:        db.PingContext,
		close:       func() { db.Close() },
	}
}

// Catalog is the configured image tree: where generation scans and how
// images are delivered to clients.
type Catalog struct {
	Source catalog.Source
	Images handlers.ImageServer
}

func OpenCatalog(ctx context.Context, cfg *config.AppConfig) (Catalog, error) {
	switch cfg.Catalog.Source {
	case config.SourceFilesystem:
		return Catalog{
			Source: catalog.NewDirSource(cfg.Catalog.Root),
			Images: handlers.FileImages{Root: cfg.Catalog.Root},
		}, nil

	case config.SourceBucket:
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			return Catalog{}, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return Catalog{}, err
		}
		source := catalog.NewBucketSource(store, cfg.Storage.Prefix)
		return Catalog{
			Source: source,
			Images: handlers.BucketImages{Store: store, Source: source},
		}, nil

	default:
		return Catalog{}, fmt.Errorf("unsupported catalog source %q", cfg.Catalog.Source)
	}
}

type Services struct {
	Users       *service.UserService
	Comparisons *service.ComparisonService
	Generation  *service.GenerationService
	Votes       *service.VoteService
	Admins      *service.AdminService
}

func NewServices(cfg *config.AppConfig, stores *Stores, source catalog.Source, log zerolog.Logger) (*Services, error) {
	policy, err := service.ParseVotePolicy(cfg.Votes.Policy)
	if err != nil {
		return nil, err
	}
	admins, err := service.NewAdminService(stores.Admins, cfg.Security, log)
	if err != nil {
		return nil, err
	}
	return &Services{
		Users:       service.NewUserService(stores.Users, log),
		Comparisons: service.NewComparisonService(stores.Comparisons, stores.Users, log),
		Generation:  service.NewGenerationService(source, stores.Comparisons, log),
		Votes:       service.NewVoteService(stores.Votes, stores.Comparisons, stores.Users, policy, log),
		Admins:      admins,
	}, nil
}
