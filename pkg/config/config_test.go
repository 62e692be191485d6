package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_LayersBaseEnvAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "8080"
db:
  host: db.internal
  port: 5432
  name: interntrack
jwt:
  secret: ${JWT_SECRET_VALUE}
smart_focus:
  cache_ttl: 5m
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: staging-db
orchestrator:
  interval: 30s
`)
	writeFile(t, dir, "secrets.env", "JWT_SECRET_VALUE=\"s3cret\"\n")

	cfg, err := Load("staging", dir)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "staging-db", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.SmartFocus.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Orchestrator.Interval)
	// untouched defaults survive the merge
	assert.Equal(t, 3, cfg.SmartFocus.MaxSuggestions)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}

func TestLoad_EnvironmentOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "8080"
db:
  host: from-file
jwt:
  secret: file-secret
`)
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load("local", dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.DB.Host)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
}

func TestLoad_MissingBaseFile(t *testing.T) {
	_, err := Load("local", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base.yaml")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")

	cfg.JWT.Secret = "x"
	require.NoError(t, cfg.Validate())

	cfg.LLM.Enabled = true
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.api_key")
}

func TestMergeMaps_Nested(t *testing.T) {
	base := map[string]interface{}{
		"db":     map[string]interface{}{"host": "a", "port": 1},
		"server": map[string]interface{}{"port": "80"},
	}
	override := map[string]interface{}{
		"db": map[string]interface{}{"host": "b"},
	}

	merged := mergeMaps(base, override)

	db := merged["db"].(map[string]interface{})
	assert.Equal(t, "b", db["host"])
	assert.Equal(t, 1, db["port"])
	assert.Equal(t, map[string]interface{}{"port": "80"}, merged["server"])
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: 5433, User: "u", Password: "p", Name: "n"}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", c.DSN())

	c.SSLMode = "require"
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=require", c.DSN())
}

func TestSubstituteString(t *testing.T) {
	t.Setenv("FROM_PROCESS", "proc")

	assert.Equal(t, "plain", substituteString("plain", nil))
	assert.Equal(t, "a-b", substituteString("${A}-${B}", map[string]string{"A": "a", "B": "b"}))
	assert.Equal(t, "proc", substituteString("${FROM_PROCESS}", map[string]string{}))
	assert.Equal(t, "", substituteString("${NOT_SET_ANYWHERE_XYZ}", map[string]string{}))
}
