package database

import (
	"fmt"
	"time"

	"github.com/school-food-safety/backend/internal/config"
	"github.com/school-food-safety/backend/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	} else {
		logLevel = logger.Warn
	}

	dsn := cfg.Database.ConnectionString()
	log.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"dsn":    maskPassword(dsn),
	}).Info("connecting to database")

	db, err := Open(cfg.Database.Driver, dsn, logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	}))
	if err != nil {
		return nil, err
	}

	log.Info("database connection successful")
	return db, nil
}

// Open connects with the named driver. Foreign keys are not created: school
// references are checked by the services and deletes never cascade.
func Open(driver, dsn string, gormLogger logger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// one connection keeps ":memory:" databases shared across queries
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func maskPassword(dsn string) string {
	if len(dsn) > 20 {
		return dsn[:20] + "...***..."
	}
	return "***"
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.School{},
		&models.Inspection{},
		&models.Photo{},
		&models.User{},
		&models.AuditLog{},
		&models.RefreshToken{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
