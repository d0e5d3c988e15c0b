package db

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lojf/pairsurvey/internal/models"
)

// DefaultDSN enables WAL, a busy timeout and foreign keys.
const DefaultDSN = "pairsurvey.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Open connects to SQLite and migrates the survey tables.
func Open(dsn string, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	// This also serialises submission transactions per database.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	log.Info("database ready", "driver", "sqlite")
	return conn, nil
}

// Migrate creates or updates the survey tables.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Session{},
		&models.Participant{},
		&models.Answer{},
		&models.Report{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// Composite index for the stuck-session monitor; GORM doesn't derive it from tags.
	if err := conn.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_status_updated ON sessions(status, updated_at)").Error; err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}
