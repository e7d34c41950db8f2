package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeConfig(t, `
HTTP_PORT: 9090
DB_DRIVER: sqlite
KAFKA_BROKERS: [a:9092, b:9092]
JWT_EXPIRES: 30m
GLOBAL_WINDOW: 2m
`)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("SECRET", "super-secret")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.HTTPPort, "environment overrides the file")
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpires)
	assert.Equal(t, 2*time.Minute, cfg.GlobalWindow)
	assert.Equal(t, "super-secret", cfg.Secret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_SecretIgnoredInFile(t *testing.T) {
	path := writeConfig(t, "SECRET: from-file\nJWT_SECRET: from-file\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Secret)
	assert.EqualError(t, cfg.Validate(), "SECRET must be provided")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load("")
	assert.Error(t, err, "a named file must exist")

	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 30, cfg.GlobalPermitLimit)
	assert.Equal(t, time.Minute, cfg.GlobalWindow)
	assert.Equal(t, 2, cfg.GlobalQueueLimit)
	assert.Equal(t, 30, cfg.SpecificPermitLimit)
	assert.Equal(t, 10*time.Second, cfg.SpecificWindow)
}

func TestValidate_Driver(t *testing.T) {
	cfg := &Config{Secret: "x", DBDriver: "mysql"}
	assert.Error(t, cfg.Validate())
}

func TestRepositoryConfigFileParses(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.JWTExpires)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}
