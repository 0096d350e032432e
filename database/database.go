package database

import (
	"fmt"
	"strings"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/xo/dburl"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver from the URL scheme, so the same binary can
// run against Postgres, MySQL or SQL Server.
func Dialector(rawURL string) (gorm.Dialector, error) {
	u, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	switch u.Driver {
	case "postgres":
		return postgres.Open(u.DSN), nil
	case "mysql":
		return mysql.Open(mysqlDSN(u.DSN)), nil
	case "sqlserver":
		return sqlserver.Open(u.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", u.Driver)
	}
}

func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "charset=utf8mb4&parseTime=True&loc=UTC"
}

func Open(rawURL string) (*gorm.DB, error) {
	dialector, err := Dialector(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.BetRecord{},
		&models.BetLeg{},
		&models.ParticipantStake{},
		&models.ErrorLog{},
		&models.Migration{},
	)
	if err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}
	return nil
}
