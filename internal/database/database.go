package database

import (
	"fmt"

	"github.com/yukikurage/collab-match-api/internal/config"
	"github.com/yukikurage/collab-match-api/internal/logger"
	"github.com/yukikurage/collab-match-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the database selected by cfg.DBDriver.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.DBDriver)
	}

	logLevel := gormlogger.Info
	if cfg.GinMode == "release" {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(dialector, Options(logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Database connection established", "driver", cfg.DBDriver)
	return db, nil
}

// Options returns the gorm configuration shared by every dialector.
// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey.
func Options(logLevel gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	}
}

// Models lists every table managed by the service.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.MatchRequest{},
		&models.Notification{},
	}
}

func Migrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations completed")
	return nil
}
