package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("iflowx")
	require.NoError(t, err)

	assert.Equal(t, "iflowx", cfg.ServiceName)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, time.Hour, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, 7, cfg.App.InviteValidityDays)
	assert.Equal(t, 14, cfg.App.ExpiringSoonDays)
	assert.Equal(t, logger.Warn, cfg.DB.GormLogLevel())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("EXPIRING_SOON_DAYS", "30")
	t.Setenv("RESEND_API_KEY", "re_secret")

	cfg, err := Load("iflowx")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, logger.Silent, cfg.DB.GormLogLevel())
	assert.Equal(t, 30, cfg.App.ExpiringSoonDays)
	assert.Contains(t, cfg.DB.GetDSN(), "host=db.internal")

	for _, f := range cfg.LogConfig() {
		if f.Type == zap.String("", "").Type {
			assert.NotEqual(t, "re_secret", f.String)
		}
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load("iflowx")
	assert.Error(t, err)
}
