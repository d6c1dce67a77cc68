package daemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler/handlertest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := handlertest.Config(t.TempDir())
	cfg.DB = config.DB{GormEngine: config.GormEngineSQLite, Path: filepath.Join(t.TempDir(), "test.db")}

	return cfg
}

func TestMigrateIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	db, err := OpenDB(cfg)
	require.NoError(t, err)

	require.NoError(t, Migrate(cfg, db))
	require.NoError(t, Migrate(cfg, db))

	var admins int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", cfg.Auth.AdminEmail).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)

	var roles int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	assert.Equal(t, int64(len(models.Roles)), roles)
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	db, err := OpenDB(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(cfg, db))

	svc, err := Wire(cfg, db)
	require.NoError(t, err)

	assert.True(t, svc.Deps.Valid())
	assert.IsType(t, cache.Nop{}, svc.Deps.Cache)
	assert.NotNil(t, svc.Deps.Staff)
	assert.NotNil(t, svc.Deps.Admin)
	assert.NotNil(t, svc.Memberships)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	d, err := New(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, d.webService)
	assert.Contains(t, d.scheduler.Names(), "events-cleanup")

	d.stop()
}
