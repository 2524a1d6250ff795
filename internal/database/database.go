package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/katz-eval/internal/models"
)

// Connect opens the database named by url. postgres:// and postgresql://
// URLs use PostgreSQL; sqlite:// URLs and bare paths use SQLite.
func Connect(url string) (*gorm.DB, error) {
	switch {
	case url == "":
		return nil, fmt.Errorf("database url must not be empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return ConnectPostgres(url)
	default:
		return ConnectSQLite(strings.TrimPrefix(url, "sqlite://"))
	}
}

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// ConnectSQLite opens a SQLite database file, creating it when missing.
func ConnectSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the analysis tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.AnalysisRun{}, &models.ScoredResponse{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
