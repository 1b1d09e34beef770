package config

import (
	"errors"
	"fmt"
	"os"

	"shorebook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig         `yaml:"app"`
	Database   DatabaseConfig    `yaml:"database"`
	Redis      RedisConfig       `yaml:"redis"`
	Logging    LoggingConfig     `yaml:"logging"`
	Monitoring MonitoringConfig  `yaml:"monitoring"`
	API        APIConfig         `yaml:"api"`
	Booking    BookingConfig     `yaml:"booking"`
	Zones      []ZoneConfig      `yaml:"zones"`
	Resources  []models.Resource `yaml:"resources"`
	Pricing    PricingConfig     `yaml:"pricing"`
	Exports    ExportConfig      `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	MaxAdvanceDays  int `yaml:"max_advance_days"`
	SessionTTLHours int `yaml:"session_ttl_hours"`
}

type ZoneConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type PricingConfig struct {
	Currency string        `yaml:"currency"`
	Rates    []PricingRate `yaml:"rates"`
}

type PricingRate struct {
	ZoneID       string  `yaml:"zone_id"`
	CustomerType string  `yaml:"customer_type"`
	DayRate      float64 `yaml:"day_rate"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; it only feeds os.ExpandEnv below.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	zones := make(map[string]bool, len(c.Zones))
	for _, z := range c.Zones {
		if z.ID == "" {
			return errors.New("zone with empty id")
		}
		if zones[z.ID] {
			return fmt.Errorf("duplicate zone id: %s", z.ID)
		}
		zones[z.ID] = true
	}

	return ValidateResources(c.Resources, zones)
}

// ValidateResources rejects duplicate IDs, zero IDs and unknown zones. An
// empty zone map skips zone membership checks (resources may be seeded
// before zones in tests).
func ValidateResources(resources []models.Resource, zones map[string]bool) error {
	ids := make(map[int64]bool, len(resources))
	for _, r := range resources {
		if r.ID == 0 {
			return fmt.Errorf("resource '%s' has invalid ID 0", r.Name)
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate resource ID found: %d", r.ID)
		}
		ids[r.ID] = true
		if len(zones) > 0 && !zones[r.ZoneID] {
			return fmt.Errorf("resource %d references unknown zone '%s'", r.ID, r.ZoneID)
		}
		if r.Capacity <= 0 {
			return fmt.Errorf("resource %d has non-positive capacity", r.ID)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.Auth.Enabled && c.API.Enabled {
		c.API.Auth.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if c.Booking.SessionTTLHours == 0 {
		c.Booking.SessionTTLHours = models.DefaultSessionTTL / 3600
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
