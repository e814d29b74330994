package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"

	"linkbio/internal/models/db_models"
)

const defaultSQLiteDSN = "file:linkbio.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// InitDatabase opens the entity store. Postgres URLs use the pgx driver; an empty URL
// or a sqlite: URL falls back to a local SQLite file.
func InitDatabase(url string, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}

	var dialector gorm.Dialector
	switch {
	case url == "":
		log.Warn("DATABASE_URL not set, falling back to SQLite", zap.String("dsn", defaultSQLiteDSN))
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: defaultSQLiteDSN}
	case strings.HasPrefix(url, "sqlite:"):
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: strings.TrimPrefix(url, "sqlite:")}
	default:
		dialector = postgres.Open(url)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		// SQLite allows a single writer; keep one connection so transactions never contend.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(db_models.All()...)
}

func CloseDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("Error getting database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Error("Error closing database connection", zap.Error(err))
	} else {
		log.Info("Database connection closed")
	}
}

// UnitOfWork runs fn inside a single transaction: committed when fn returns nil,
// rolled back on any error or panic.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormUnitOfWork struct {
	db         *gorm.DB
	maxRetries uint64
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db, maxRetries: 3}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	op := func() error {
		err := u.db.WithContext(ctx).Transaction(fn)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Second

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, u.maxRetries), ctx))
}

// IsRetryable reports whether err is a Postgres serialization failure or deadlock,
// which a fresh attempt of the same transaction may resolve.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
