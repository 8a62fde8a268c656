package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv はテストに影響する環境変数を空にする。
// t.Setenvを使うためこのファイルのテストは並列実行しない。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "SERVER_PORT", "JWT_SECRET", "AUTH_JWT_SECRET",
		"DATABASE_DRIVER", "DATABASE_DSN", "CORS_ALLOWED_ORIGINS",
		"REDIS_ADDR", "REDIS_TTL", "EVENTSTORE_URL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8086", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Empty(t, cfg.EventStore.URL)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("DATABASE_DSN", "postgres://notify@localhost/notify")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://example.com")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TTL", "1m")
	t.Setenv("EVENTSTORE_URL", "http://eventstore:8084")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://notify@localhost/notify", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "http://eventstore:8084", cfg.EventStore.URL)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "7000"
auth:
  jwt_secret: file-secret
cors:
  allowed_origins:
    - https://app.example.com
log:
  level: debug
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoadErrors(t *testing.T) {
	t.Run("JWTシークレットが無い場合はエラー", func(t *testing.T) {
		clearEnv(t)

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("未対応のドライバはエラー", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("DATABASE_DRIVER", "mysql")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mysql")
	})

	t.Run("存在しない設定ファイルはエラー", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", "secret")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
