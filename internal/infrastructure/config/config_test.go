package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so a developer's shell cannot leak in.
// Viper ignores empty values, so an empty variable behaves as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CP_APP_NAME", "CP_APP_ENV", "CP_APP_PORT",
		"CP_DATABASE_HOST", "CP_DATABASE_PORT", "CP_DATABASE_USER", "CP_DATABASE_PASSWORD",
		"CP_DATABASE_DBNAME", "CP_DATABASE_SSLMODE",
		"CP_DATABASE_MAX_OPEN_CONNS", "CP_DATABASE_MAX_IDLE_CONNS",
		"CP_JWT_SECRET", "CP_REDIS_URL", "CP_NOTIFIER_BASE_URL", "CP_NOTIFIER_ENABLED",
		"CP_PAYABLES_TIMEZONE", "CP_SCHEDULER_STATUS_SCAN_SCHEDULE", "CP_HTTP_CORS_ALLOW_ORIGINS",
		"CP_TELEMETRY_SAMPLING_RATIO",
		"EVOLUTION_API_URL", "EVOLUTIONMASTERKEY", "INSTANCE_NAME", "INSTANCE_KEY",
		"INSTANCE_NUMBER", "CELERY_BROKER_REDIS_URL", "TIME_ZONE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "contaspagar", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "contaspagar", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "America/Sao_Paulo", cfg.Payables.TimeZone)
		assert.Equal(t, 36*time.Hour, cfg.Payables.AlertDedupeTTL)
		assert.Equal(t, "0 6 * * *", cfg.Scheduler.StatusScanSchedule)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.True(t, cfg.Notifier.Enabled)
		assert.Equal(t, 15*time.Second, cfg.Notifier.Timeout)
		assert.False(t, cfg.Notifier.Configured())
		assert.Equal(t, "/metrics", cfg.HTTP.MetricsPath)
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
	})

	t.Run("loads values from environment variables with CP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_APP_NAME", "test-app")
		t.Setenv("CP_APP_PORT", "9000")
		t.Setenv("CP_DATABASE_HOST", "testdb.local")
		t.Setenv("CP_DATABASE_PORT", "5433")
		t.Setenv("CP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("CP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("CP_SCHEDULER_STATUS_SCAN_SCHEDULE", "30 7 * * *")
		t.Setenv("CP_NOTIFIER_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "30 7 * * *", cfg.Scheduler.StatusScanSchedule)
		assert.False(t, cfg.Notifier.Enabled)
	})

	t.Run("reads legacy deployment variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EVOLUTION_API_URL", "https://evo.example.com")
		t.Setenv("EVOLUTIONMASTERKEY", "master")
		t.Setenv("INSTANCE_NAME", "financeiro")
		t.Setenv("INSTANCE_KEY", "inst-key")
		t.Setenv("INSTANCE_NUMBER", "5511999990000")
		t.Setenv("CELERY_BROKER_REDIS_URL", "redis://cache:6379/1")
		t.Setenv("TIME_ZONE", "America/Manaus")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://evo.example.com", cfg.Notifier.BaseURL)
		assert.Equal(t, "master", cfg.Notifier.MasterKey)
		assert.Equal(t, "financeiro", cfg.Notifier.InstanceName)
		assert.Equal(t, "inst-key", cfg.Notifier.InstanceKey)
		assert.Equal(t, "5511999990000", cfg.Notifier.InstanceNumber)
		assert.True(t, cfg.Notifier.Configured())
		assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
		assert.Equal(t, "America/Manaus", cfg.Payables.TimeZone)
	})

	t.Run("prefixed variable wins over legacy name", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EVOLUTION_API_URL", "https://legacy.example.com")
		t.Setenv("CP_NOTIFIER_BASE_URL", "https://new.example.com")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://new.example.com", cfg.Notifier.BaseURL)
	})

	t.Run("rejects unknown time zone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TIME_ZONE", "Mars/Olympus_Mons")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payables.timezone")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("CP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	const secret = "this-is-a-very-secure-jwt-secret-key-32chars"

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_APP_ENV", "production")
		t.Setenv("CP_DATABASE_PASSWORD", "secure-password")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be set in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_APP_ENV", "production")
		t.Setenv("CP_JWT_SECRET", "short-secret")
		t.Setenv("CP_DATABASE_PASSWORD", "secure-password")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_APP_ENV", "production")
		t.Setenv("CP_JWT_SECRET", secret)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("rejects wildcard CORS origin in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_APP_ENV", "production")
		t.Setenv("CP_JWT_SECRET", secret)
		t.Setenv("CP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("CP_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CP_APP_ENV", "production")
		t.Setenv("CP_JWT_SECRET", secret)
		t.Setenv("CP_DATABASE_PASSWORD", "secure-password")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestPayablesConfig_Location(t *testing.T) {
	assert.Equal(t, "America/Sao_Paulo", PayablesConfig{TimeZone: "America/Sao_Paulo"}.Location().String())
	assert.Equal(t, time.UTC, PayablesConfig{TimeZone: "nowhere"}.Location())
}

func TestNotifierConfig_Configured(t *testing.T) {
	assert.False(t, NotifierConfig{BaseURL: "https://evo"}.Configured())
	assert.True(t, NotifierConfig{BaseURL: "https://evo", InstanceName: "i", MasterKey: "m"}.Configured())
	assert.True(t, NotifierConfig{BaseURL: "https://evo", InstanceName: "i", InstanceKey: "k"}.Configured())
}
