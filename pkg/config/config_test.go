package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"PORT", "APP_ENV", "DB_BACKEND", "JWT_SECRET", "JWT_EXPIRES_IN", "RATE_LIMIT_AUTH", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 100, cfg.RateLimitGeneral)
	assert.Equal(t, 20, cfg.RateLimitCreate)
	assert.Equal(t, 5, cfg.RateLimitAuth)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, devSecret, cfg.JWTSecret)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9000\nDB_BACKEND=sqlite\n"), 0o600))
	chdir(t, dir)
	t.Setenv("PORT", "7000")
	t.Setenv("DB_BACKEND", "")
	// godotenv only fills unset keys; make sure DB_BACKEND is truly unset.
	os.Unsetenv("DB_BACKEND")

	cfg := Load()
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.Backend)
}

func TestProductionRequiresSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_BACKEND", "sqlite")
	cfg := Load()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := &Config{Port: "abc", Backend: "oracle", JWTSecret: "x", JWTExpiresIn: time.Hour, RateLimitWindow: time.Minute, RateLimitGeneral: 1, RateLimitCreate: 0, RateLimitAuth: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "invalid DB_BACKEND")
	assert.Contains(t, err.Error(), "RATE_LIMIT_CREATE")
}

func TestValidateMongo(t *testing.T) {
	cfg := &Config{Port: "8081", Backend: BackendMongo, MongoDatabase: "finboard", JWTSecret: "x", JWTExpiresIn: time.Hour, RateLimitWindow: time.Minute, RateLimitGeneral: 1, RateLimitCreate: 1, RateLimitAuth: 1}
	require.Error(t, cfg.Validate())
	cfg.MongoURI = "mongodb://localhost:27017"
	require.NoError(t, cfg.Validate())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestTrustedProxies(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRUSTED_PROXIES", "")
	assert.Empty(t, Load().TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.5")
	cfg := Load()
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.TrustedProxies)

	cfg = &Config{Port: "8081", Backend: BackendSQLite, SQLitePath: "x.db", JWTSecret: "x", JWTExpiresIn: time.Hour,
		RateLimitWindow: time.Minute, RateLimitGeneral: 1, RateLimitCreate: 1, RateLimitAuth: 1,
		TrustedProxies: []string{"10.0.0.0/8", "proxy.local"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TRUSTED_PROXIES entry 'proxy.local'")
}
