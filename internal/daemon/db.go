package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/dsn"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	gormlog "github.com/gopalparivar/dhenu-mahima/internal/logger/adapter/gorm"
)

// dialector picks the gorm driver of the configured engine.
func dialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case config.GormEnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg))
	case config.GormEngineSQLite:
		return sqlite.Open(dsn.Create(cfg))
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

// OpenDB connects to the configured database.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:         gormlog.New(cfg.DB.Debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", cfg.DB.GormEngine, err)
	}

	return db, nil
}

// Migrate creates the schema and seeds the roles, permissions and the admin account.
func Migrate(cfg *config.Config, db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err := auth.Seed(db, cfg.Auth); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	return nil
}
