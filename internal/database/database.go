package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ignis-runtime/program-registry/internal/models"
)

// Open connects to Postgres and returns a pooled GORM handle.
func Open(dsn string, maxOpenConns int, logger *zap.Logger) (*gorm.DB, error) {
	db, err := New(postgres.Open(dsn), logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// New opens a GORM handle on an arbitrary dialector. Driver errors are
// translated so unique violations surface as gorm.ErrDuplicatedKey.
func New(dialector gorm.Dialector, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(zapWriter{logger.Sugar()}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the programs table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Program{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

type zapWriter struct {
	sugar *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.sugar.Warnf(format, args...)
}
