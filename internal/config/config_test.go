package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	Setup(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "unix:///var/run/docker.sock", cfg.Docker.Host)
	assert.Equal(t, "http://localhost:5000", cfg.Registry.URL)
	assert.Equal(t, "./data/swarmkeeper.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Health.Interval)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SWARMKEEPER_DOCKER_HOST", "tcp://manager:2375")
	t.Setenv("SWARMKEEPER_HEALTH_INTERVAL", "5s")
	t.Setenv("SWARMKEEPER_SQS_QUEUE_URL", "https://sqs.local/q")

	v := viper.New()
	Setup(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "tcp://manager:2375", cfg.Docker.Host)
	assert.Equal(t, 5*time.Second, cfg.Health.Interval)
	assert.Equal(t, "https://sqs.local/q", cfg.SQS.QueueURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: 127.0.0.1:9000
slack:
  token: xoxb
  channel: "#ops"
`), 0o644))

	v := viper.New()
	Setup(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, "#ops", cfg.Slack.Channel)
	assert.Equal(t, "unix:///var/run/docker.sock", cfg.Docker.Host)
}

func TestValidate(t *testing.T) {
	v := viper.New()
	Setup(v)
	v.Set("docker.host", "")
	v.Set("health.interval", "0s")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docker.host")
	assert.Contains(t, err.Error(), "health.interval")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SWARMKEEPER_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SWARMKEEPER_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("SWARMKEEPER_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "nope.env")))
}
