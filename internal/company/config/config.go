// Package config loads service settings from a YAML file, an optional .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither the caller nor CONFIG_PATH names a file.
var DefaultPath = filepath.Join("internal", "company", "config", "config.yaml")

type Config struct {
	HTTPPort int    `yaml:"HTTP_PORT" envconfig:"HTTP_PORT"`
	LogLevel string `yaml:"LOG_LEVEL" envconfig:"LOG_LEVEL"`
	// Environment is "production" or "development".
	Environment string `yaml:"ENVIRONMENT" envconfig:"ENVIRONMENT"`

	DBDriver   string `yaml:"DB_DRIVER" envconfig:"DB_DRIVER"`
	DBHost     string `yaml:"DB_HOST" envconfig:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT" envconfig:"DB_PORT"`
	DBUser     string `yaml:"DB_USER" envconfig:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD" envconfig:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME" envconfig:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE" envconfig:"DB_SSLMODE"`
	DBPath     string `yaml:"DB_PATH" envconfig:"DB_PATH"`

	RedisAddr string `yaml:"REDIS_ADDR" envconfig:"REDIS_ADDR"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS" envconfig:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC" envconfig:"TOPIC"`
	GroupID      string   `yaml:"GROUP_ID" envconfig:"GROUP_ID"`

	// Secret signs access tokens. It is only ever read from the environment.
	Secret      string        `yaml:"-" envconfig:"SECRET"`
	JWTIssuer   string        `yaml:"JWT_ISSUER" envconfig:"JWT_ISSUER"`
	JWTAudience string        `yaml:"JWT_AUDIENCE" envconfig:"JWT_AUDIENCE"`
	JWTExpires  time.Duration `yaml:"JWT_EXPIRES" envconfig:"JWT_EXPIRES"`

	CORSOrigins []string `yaml:"CORS_ORIGINS" envconfig:"CORS_ORIGINS"`

	GlobalPermitLimit   int           `yaml:"GLOBAL_PERMIT_LIMIT" envconfig:"GLOBAL_PERMIT_LIMIT"`
	GlobalWindow        time.Duration `yaml:"GLOBAL_WINDOW" envconfig:"GLOBAL_WINDOW"`
	GlobalQueueLimit    int           `yaml:"GLOBAL_QUEUE_LIMIT" envconfig:"GLOBAL_QUEUE_LIMIT"`
	SpecificPermitLimit int           `yaml:"SPECIFIC_PERMIT_LIMIT" envconfig:"SPECIFIC_PERMIT_LIMIT"`
	SpecificWindow      time.Duration `yaml:"SPECIFIC_WINDOW" envconfig:"SPECIFIC_WINDOW"`
}

// Load reads the configuration. An empty path falls back to CONFIG_PATH and
// then DefaultPath; only an explicitly named file has to exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path, explicit = DefaultPath, false
	}

	var cfg Config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate reports settings the API server cannot start without.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("SECRET must be provided")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// IsProduction reports whether HTTPS redirects and HSTS should be enforced.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) applyDefaults() {
	setDefault(&c.HTTPPort, 8080)
	setDefault(&c.LogLevel, "info")
	setDefault(&c.Environment, "development")
	setDefault(&c.DBDriver, "postgres")
	setDefault(&c.DBHost, "localhost")
	setDefault(&c.DBPort, 5432)
	setDefault(&c.DBName, "company_employees")
	setDefault(&c.DBSSLMode, "disable")
	setDefault(&c.DBPath, "company_employees.db")
	setDefault(&c.Topic, "company-events")
	setDefault(&c.GroupID, "company-employees-api")
	setDefault(&c.JWTIssuer, "CompanyEmployeesAPI")
	setDefault(&c.JWTAudience, "https://localhost:5001")
	setDefault(&c.JWTExpires, 5*time.Minute)
	setDefault(&c.GlobalPermitLimit, 30)
	setDefault(&c.GlobalWindow, time.Minute)
	setDefault(&c.GlobalQueueLimit, 2)
	setDefault(&c.SpecificPermitLimit, 30)
	setDefault(&c.SpecificWindow, 10*time.Second)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}
