package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"parkshare/config"
	"parkshare/pkg/logger"
	"parkshare/storage"
)

// DB is satisfied by both *pgxpool.Pool and pgx.Tx, so every repo can run
// inside or outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	db   DB
	inTx bool
	log  logger.ILogger
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*Store, error) {
	return NewWithURL(ctx, cfg.PostgresURL(), cfg.MigrationsPath, log)
}

// NewWithURL connects, pings and migrates the database at url.
func NewWithURL(ctx context.Context, url, migrationsPath string, log logger.ILogger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		log.Error("Postgres ping failed", logger.String("host", poolConfig.ConnConfig.Host), logger.Error(err))
		pool.Close()
		return nil, err
	}

	mPath := resolveMigrationsPath(migrationsPath)
	m, err := migrate.New("file://"+mPath, url)
	if err != nil {
		log.Error("migration init error or no migrations found", logger.String("path", mPath), logger.Error(err))
	} else {
		defer m.Close()
		if err = m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info("no migrations to apply")
			} else {
				log.Error("migration up error", logger.Error(err))
				pool.Close()
				return nil, err
			}
		}
	}

	log.Info("Postgres connected", logger.String("host", poolConfig.ConnConfig.Host))

	return &Store{
		pool: pool,
		db:   pool,
		log:  log,
	}, nil
}

func resolveMigrationsPath(configured string) string {
	if configured != "" {
		return configured
	}

	cwd, _ := os.Getwd()
	mPath := filepath.Join(cwd, "migrations")
	if _, err := os.Stat(filepath.Join(cwd, "migrations", "postgres")); err == nil {
		mPath = filepath.Join(cwd, "migrations", "postgres")
	}
	return mPath
}

func (s *Store) Close() {
	if !s.inTx {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Tx(ctx context.Context, fn func(stg storage.IStorage) error) error {
	if s.inTx {
		return fn(s)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, db: tx, inTx: true, log: s.log})
	})
}

func (s *Store) User() storage.IUserStorage                 { return NewUserRepo(s.db, s.log) }
func (s *Store) Parking() storage.IParkingStorage           { return NewParkingRepo(s.db, s.log) }
func (s *Store) Reservation() storage.IReservationStorage   { return NewReservationRepo(s.db, s.log) }
func (s *Store) Notification() storage.INotificationStorage { return NewNotificationRepo(s.db, s.log) }
func (s *Store) Review() storage.IReviewStorage             { return NewReviewRepo(s.db, s.log) }
func (s *Store) Geocode() storage.IGeocodeStorage           { return NewGeocodeRepo(s.db, s.log) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// guarded turns a zero-row guarded update into storage.ErrConflict.
func guarded(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrConflict
	}
	return nil
}

func statusStrings[T ~string](list []T) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = string(v)
	}
	return out
}
