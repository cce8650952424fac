package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDev, c.Env)
	require.Equal(t, DBDriverPostgres, c.Database.Driver)
	require.Equal(t, 8888, c.Server.Port)
	require.Equal(t, DefaultRequestTimeout, c.Shopify.RequestTimeout)
	require.Equal(t, DefaultAppName, c.Shopify.AppName)
	require.Equal(t, DefaultSignupCredits, c.SignupCredits)
	require.Equal(t, time.Minute, c.Redis.StatusPollInterval)
}

func TestNew_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
env: dev
database:
  driver: sqlite
  dsn: "file::memory:"
shopify:
  api_key: key-1
  request_timeout: 5s
signup_credits: 25
`), 0o600))
	t.Setenv("APP_CONFIG_FILE", file)
	t.Setenv("APP_ADMIN_TOKEN", "s3cret")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, DBDriverSQLite, c.Database.Driver)
	require.Equal(t, "key-1", c.Shopify.APIKey)
	require.Equal(t, 5*time.Second, c.Shopify.RequestTimeout)
	require.Equal(t, 25, c.SignupCredits)
	require.Equal(t, "s3cret", c.Admin.Token)
}

func TestValidate(t *testing.T) {
	c := &Config{Database: DBConfig{Driver: "oracle"}}
	require.Error(t, c.Validate())

	c = &Config{Env: EnvProd, Database: DBConfig{Driver: DBDriverPostgres}}
	require.ErrorContains(t, c.Validate(), "api_secret")

	c.Shopify.APISecret = "x"
	require.NoError(t, c.Validate())

	c.SignupCredits = -1
	require.Error(t, c.Validate())
}
