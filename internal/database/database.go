package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storefront/internal/models"
)

var db *gorm.DB

// Connect initializes the database connection and runs migrations. Failures are fatal.
func Connect(dsn string, log *zap.Logger) *gorm.DB {
	if db != nil {
		return db
	}

	if isPostgres(dsn) {
		if err := ensureDatabase(dsn); err != nil {
			log.Fatal("failed to ensure database", zap.Error(err))
		}
	}

	conn, err := Open(dsn, logger.Warn)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if isPostgres(dsn) {
		if err := conn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			log.Warn("failed to ensure uuid-ossp extension", zap.Error(err))
		}
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}

	log.Info("database ready", zap.String("dialect", conn.Dialector.Name()))
	db = conn
	return db
}

// DB exposes the initialized gorm.DB instance.
func DB() *gorm.DB {
	return db
}

// Open opens dsn with Postgres for postgres URLs and SQLite otherwise.
// An in-memory SQLite database is pinned to one connection so every caller sees the same data.
func Open(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	if isPostgres(dsn) {
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	conn, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, err
	}

	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	for _, model := range models.All() {
		if err := conn.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	masterDSN := parsed.String()

	sqlDB, err := sql.Open("postgres", masterDSN)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}

	if exists {
		return nil
	}

	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
