// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
)

// DefaultSQLitePath is used when the sqlite engine has no path configured.
const DefaultSQLitePath = "dhenu-mahima.db"

// Create builds the gorm Data Source Name for the configured engine.
func Create(dbCfg *config.Config) string {
	switch dbCfg.DB.GormEngine {
	case config.GormEnginePostgres:
		out := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
			dbCfg.DB.Host,
			dbCfg.DB.User,
			dbCfg.DB.Password,
			dbCfg.DB.Name,
			dbCfg.DB.Port,
		)

		if dbCfg.DB.Extras != "" {
			out += " " + dbCfg.DB.Extras
		}

		return out
	case config.GormEngineSQLite:
		if dbCfg.DB.Path == "" {
			return DefaultSQLitePath
		}

		return dbCfg.DB.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.DB.User,
			dbCfg.DB.Password,
			dbCfg.DB.Host,
			dbCfg.DB.Port,
			dbCfg.DB.Name,
			dbCfg.DB.Extras,
		)
	}
}

// StorageURI builds the connection uri expected by the gofiber storage drivers.
// Postgres storage wants an url, mysql storage takes the driver dsn.
// sqlite has no storage driver and returns an empty string.
func StorageURI(dbCfg *config.Config) string {
	switch dbCfg.DB.GormEngine {
	case config.GormEnginePostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(dbCfg.DB.User, dbCfg.DB.Password),
			Host:   fmt.Sprintf("%s:%d", dbCfg.DB.Host, dbCfg.DB.Port),
			Path:   "/" + dbCfg.DB.Name,
		}

		// extras are "key=value key=value" for gorm, the url wants a query string.
		if dbCfg.DB.Extras != "" {
			q := url.Values{}

			for _, kv := range strings.Fields(dbCfg.DB.Extras) {
				if k, v, ok := strings.Cut(kv, "="); ok {
					q.Set(k, v)
				}
			}

			u.RawQuery = q.Encode()
		}

		return u.String()
	case config.GormEngineSQLite:
		return ""
	default:
		return Create(dbCfg)
	}
}
