package postgres

import (
	"fmt"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/taechang/production-core/pkg/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const embeddedPort = 5433

// DB wraps gorm.DB and the embedded PostgreSQL process when one was started
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Connect opens the configured database. With cfg.Embedded a local
// PostgreSQL process is started first and the connection points at it.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var embedded *embeddedpostgres.EmbeddedPostgres
	if cfg.Embedded {
		if cfg.Password == "" {
			cfg.Password = "postgres"
		}
		embedded = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(cfg.EmbeddedPath).
			Port(embeddedPort).
			Database(cfg.DBName).
			Username(cfg.User).
			Password(cfg.Password))
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}
		cfg.Host = "localhost"
		cfg.Port = embeddedPort
		cfg.SSLMode = "disable"
		log.Info("embedded PostgreSQL started", zap.Int("port", embeddedPort), zap.String("data_path", cfg.EmbeddedPath))
	} else {
		log.Info("connecting to PostgreSQL", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	}

	db, err := Open(cfg.DSN(), logger.Warn)
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, err
	}

	sqlDB, err := db.DB()
	if err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &DB{DB: db, embedded: embedded}, nil
}

// Open connects gorm to a DSN with timestamps in UTC
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the production core tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

// Close closes the connection pool and stops the embedded process if any
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if db.embedded != nil {
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}
