package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsAndFile(t *testing.T) {
	p := writeConfig(t, `
app:
  env: local
  http:
    port: 9090
jwt:
  secret: s3cret
db:
  driver: postgres
  dsn: host=db
redis:
  cache_ttl_sec: 60
limits:
  max_body_mb: 2
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, 8081, c.App.Admin.Port)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "host=db", c.DB.DSN)
	assert.Equal(t, time.Hour, c.JWT.AccessTTL())
	assert.Equal(t, 24*time.Hour, c.JWT.RefreshTTL())
	assert.Zero(t, c.JWT.Leeway())
	assert.Equal(t, time.Minute, c.Redis.CacheTTL())
	assert.Equal(t, int64(2<<20), c.Limits.MaxBodyBytes())
	assert.Equal(t, 10*time.Second, c.Limits.Timeout())
}

func TestLoadEnvOverride(t *testing.T) {
	p := writeConfig(t, "app:\n  env: local\n")
	t.Setenv("APP_JWT_SECRET", "from-env")
	t.Setenv("APP_DB_DSN", "file::memory:")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.Equal(t, "file::memory:", c.DB.DSN)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "app:\n  env: local\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")

	_, err = Load(writeConfig(t, "app:\n  env: prod\njwt:\n  secret: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed_hosts")

	c, err := Load(writeConfig(t, `
app:
  env: prod
jwt:
  secret: x
security:
  allowed_hosts: [api.example.com]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"api.example.com"}, c.Security.AllowedHosts)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHSTS(t *testing.T) {
	assert.Zero(t, Security{HSTSSeconds: 3600}.HSTS())
	assert.Equal(t, time.Hour, Security{HTTPSOnly: true, HSTSSeconds: 3600}.HSTS())
}
