package database

import (
	"context"
	"fmt"

	"github.com/fadilmartias/jobseek/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB opens the gorm pool and applies the pool limits from config.
func ConnectDB(ctx context.Context, dbConfig *config.DBConfig, appConfig *config.AppConfig, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if appConfig.IsProduction() {
		logLevel = logger.Error
	}
	db, err := gorm.Open(postgres.Open(dbConfig.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("could not get database instance: %w", err)
	}
	pgDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	pgDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	pgDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	if err := pgDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connected",
		zap.String("host", dbConfig.Host), zap.String("db", dbConfig.Name), zap.Int("max_open_conns", dbConfig.MaxOpenConns))
	return db, nil
}

// Ping reports whether the pool can reach the database.
func Ping(ctx context.Context, db *gorm.DB) error {
	pgDB, err := db.DB()
	if err != nil {
		return err
	}
	return pgDB.PingContext(ctx)
}
