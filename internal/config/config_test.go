package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("DB_PASSWORD", "pgpass")
	t.Setenv("JWT_SECRET", "jwt")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "pgpass", cfg.DBPassword)
	assert.Equal(t, "jwt", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 120*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.AI.RetryDelay)
	assert.Equal(t, 1000, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 0.0001)
	assert.Equal(t, time.Hour, cfg.AI.QuotaCooldown)
	assert.Equal(t, 3*time.Second, cfg.Realtime.AutosaveDebounce)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.GetAllowedOrigins())
	assert.Contains(t, cfg.DatabaseURL(), "writingway:pgpass@localhost:5432/writingway")
}

func TestLoadConfig_MissingRequiredSecret(t *testing.T) {
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("DB_PASSWORD", "pgpass")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoadConfig_SecretFilesWinOverEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("jwt-file"), 0o600))
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.DBPassword)
	assert.Equal(t, "jwt-file", cfg.JWTSecret)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_PASSWORD=dotenv\nJWT_SECRET=dotenv-jwt\nSERVER_PORT=9999\n"), 0o600))
	t.Setenv("SECRETS_DIR", dir)
	// godotenv не перезаписывает уже выставленные переменные, поэтому очищаем их через t.Setenv + Unsetenv
	for _, k := range []string{"DB_PASSWORD", "JWT_SECRET", "SERVER_PORT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "dotenv", cfg.DBPassword)
	assert.Equal(t, "9999", cfg.ServerPort)
}

func TestLoadGeminiKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gemini_api_key_2"), []byte("key-two"), 0o600))
	t.Setenv("GEMINI_API_KEY_1", "key-one")
	t.Setenv("GEMINI_API_KEY_3", "#disabled")
	t.Setenv("GEMINI_API_KEY_4", "key-one")
	t.Setenv("GEMINI_API_KEY", "key-main")

	keys := loadGeminiKeys(dir)
	assert.Equal(t, []string{"key-one", "key-two", "key-main"}, keys)
}
