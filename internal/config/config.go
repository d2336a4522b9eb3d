// Package config handles external configuration loading from JSON and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Debug    bool     `json:"debug" env:"DEBUG"`
	Server   Server   `json:"server"`
	Database Database `json:"database"`
	Redis    Redis    `json:"redis"`
	Geocoder Geocoder `json:"geocoder"`
	JWT      JWT      `json:"jwt"`
	Business Business `json:"business"`
	Catalog  Catalog  `json:"catalog"`
	Sessions Sessions `json:"sessions"`
}

// Server holds HTTP server configuration
type Server struct {
	Port         int    `json:"port" env:"PORT"`
	Host         string `json:"host" env:"HOST"`
	ReadTimeout  int    `json:"readTimeout" env:"READ_TIMEOUT"`
	WriteTimeout int    `json:"writeTimeout" env:"WRITE_TIMEOUT"`
}

// Database holds database configuration
type Database struct {
	Path string `json:"path" env:"DATABASE_PATH"`
}

// Redis holds the verification-code store configuration. An empty
// address falls back to the in-memory code store.
type Redis struct {
	Addr     string `json:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB"`
}

// Geocoder holds the address lookup endpoint configuration
type Geocoder struct {
	BaseURL        string `json:"baseUrl" env:"GEOCODER_URL"`
	TimeoutSeconds int    `json:"timeoutSeconds" env:"GEOCODER_TIMEOUT"`
}

// JWT holds JWT configuration for the identity middleware
type JWT struct {
	Secret          string `json:"secret" env:"JWT_SECRET"`
	ExpirationHours int    `json:"expirationHours" env:"JWT_EXPIRATION_HOURS"`
}

// Business holds branding and service-area information
type Business struct {
	Name          string   `json:"name" env:"BUSINESS_NAME"`
	ContactEmail  string   `json:"contactEmail"`
	ServiceState  string   `json:"serviceState" env:"SERVICE_STATE"`
	ServiceCities []string `json:"serviceCities" env:"SERVICE_CITIES" envSeparator:","`
}

// Catalog points at an external catalog document; empty uses the
// embedded default catalog.
type Catalog struct {
	Path string `json:"path" env:"CATALOG_PATH"`
}

// Sessions holds wizard session and verification-code lifetimes
type Sessions struct {
	TTLMinutes     int `json:"ttlMinutes" env:"SESSION_TTL_MINUTES"`
	CodeTTLMinutes int `json:"codeTtlMinutes" env:"CODE_TTL_MINUTES"`
}

// Load reads configuration from the specified JSON file and overrides with environment variables
func Load(configPath string) (*Config, error) {
	var cfg Config

	cleanPath := filepath.Clean(configPath)

	data, err := os.ReadFile(cleanPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If the file doesn't exist we continue with env vars alone

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/fixitapp.db"
	}
	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = "https://photon.komoot.io"
	}
	if c.Geocoder.TimeoutSeconds == 0 {
		c.Geocoder.TimeoutSeconds = 10
	}
	if c.JWT.ExpirationHours == 0 {
		c.JWT.ExpirationHours = 24
	}
	if c.Business.Name == "" {
		c.Business.Name = "FixIt Phone Repair"
	}
	if c.Business.ServiceState == "" {
		c.Business.ServiceState = "FL"
	}
	if len(c.Business.ServiceCities) == 0 {
		c.Business.ServiceCities = []string{
			"Saint Augustine",
			"St. Augustine",
			"Palm Coast",
			"Ponte Vedra Beach",
			"Jacksonville",
		}
	}
	if c.Sessions.TTLMinutes == 0 {
		c.Sessions.TTLMinutes = 30
	}
	if c.Sessions.CodeTTLMinutes == 0 {
		c.Sessions.CodeTTLMinutes = 10
	}
}

// validate checks that all required configuration values are present
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	cleanDBPath := filepath.Clean(c.Database.Path)
	if !filepath.IsLocal(cleanDBPath) && !filepath.IsAbs(cleanDBPath) {
		return fmt.Errorf("invalid database path: potential path traversal detected")
	}

	if c.JWT.Secret == "" || c.JWT.Secret == "CHANGE_THIS_SECRET_IN_PRODUCTION" {
		if !c.Debug {
			return fmt.Errorf("JWT secret must be changed for production")
		}
	}
	return nil
}

// Address returns the full server address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabasePath returns the cleaned and validated database path
func (c *Config) GetDatabasePath() string {
	return filepath.Clean(c.Database.Path)
}
