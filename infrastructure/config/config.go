package config

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	domainconfig "chains/domain/config"
	pkgerrors "chains/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	Environment string `yaml:"-"`
	ConfigFile  string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Chain engine rules
	Domain *domainconfig.DomainConfig `yaml:"domain"`
}

// LoadConfig loads configuration from environment variables, reading the
// YAML file named by CHAINS_CONFIG_FILE when set
func LoadConfig() (*Config, error) {
	return LoadConfigFile(getEnv("CHAINS_CONFIG_FILE", ""))
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// LoadConfigFile loads configuration in three layers: environment defaults,
// then the YAML file at path (if any), then individual environment overrides
func LoadConfigFile(path string) (*Config, error) {
	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: environment,
		ConfigFile:  path,
		LogLevel:    "info",
		Domain:      domainconfig.LoadDomainConfig(environment),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid config file %s: %v", path, err)).WithCause(err)
		}
		if cfg.Domain == nil {
			cfg.Domain = domainconfig.LoadDomainConfig(environment)
		}
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Domain.IDLength = getEnvInt("CHAINS_ID_LENGTH", cfg.Domain.IDLength)
	cfg.Domain.BandPolicy = domainconfig.BandPolicy(getEnv("CHAINS_BAND_POLICY", string(cfg.Domain.BandPolicy)))
	cfg.Domain.MaxAtomsPerChain = getEnvInt("CHAINS_MAX_ATOMS", cfg.Domain.MaxAtomsPerChain)
	cfg.Domain.SweepConcurrency = getEnvInt("CHAINS_SWEEP_CONCURRENCY", cfg.Domain.SweepConcurrency)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid log level %q", c.LogLevel)).WithCause(err)
	}
	if c.Domain == nil {
		return pkgerrors.NewValidationError("domain configuration is required")
	}
	return c.Domain.Validate()
}

// Level returns the parsed log level
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
