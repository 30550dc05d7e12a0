package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "SWARMKEEPER"

type Config struct {
	Docker      DockerConfig      `mapstructure:"docker"`
	Registry    RegistryConfig    `mapstructure:"registry"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Definitions DefinitionsConfig `mapstructure:"definitions"`
	Projects    ProjectsConfig    `mapstructure:"projects"`
	Health      HealthConfig      `mapstructure:"health"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	SQS         SQSConfig         `mapstructure:"sqs"`
	Slack       SlackConfig       `mapstructure:"slack"`
}

type DockerConfig struct {
	Host string `mapstructure:"host"`
}

type RegistryConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
	// Memory keeps the catalog in process memory only.
	Memory bool `mapstructure:"memory"`
}

type DefinitionsConfig struct {
	Dir string `mapstructure:"dir"`
}

type ProjectsConfig struct {
	Dir string `mapstructure:"dir"`
}

type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json
}

type SQSConfig struct {
	QueueURL        string `mapstructure:"queue_url"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type SlackConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
}

var defaults = map[string]any{
	"docker.host":           "unix:///var/run/docker.sock",
	"registry.url":          "http://localhost:5000",
	"registry.username":     "",
	"registry.password":     "",
	"database.path":         "./data/swarmkeeper.db",
	"database.memory":       false,
	"definitions.dir":       "./definitions",
	"projects.dir":          "./projects",
	"health.interval":       "30s",
	"http.addr":             "0.0.0.0:8080",
	"log.level":             "info",
	"log.format":            "console",
	"sqs.queue_url":         "",
	"sqs.region":            "",
	"sqs.access_key_id":     "",
	"sqs.secret_access_key": "",
	"slack.token":           "",
	"slack.channel":         "",
}

// Setup registers defaults and env binding on v, so every key can be set
// from SWARMKEEPER_<SECTION>_<KEY>.
func Setup(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads .env files into the process environment. Missing
// files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if fileExists(f) {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Docker.Host == "" {
		errs = append(errs, errors.New("docker.host is required"))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.Health.Interval <= 0 {
		errs = append(errs, errors.New("health.interval must be positive"))
	}
	if !c.Database.Memory && c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	return errors.Join(errs...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
