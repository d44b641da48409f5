package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// RedisConfig holds the snapshot publish cache settings
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// KafkaConfig holds the readings feed consumer settings
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// DatabaseConfig holds the optional audit store settings.
// Driver "none" disables persistence entirely.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Pool     PoolConfig     `yaml:"connection_pool"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type PoolConfig struct {
	MaxIdleConns    int `yaml:"max_idle_conns"`
	MaxOpenConns    int `yaml:"max_open_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StabilityTag names one key process variable used for the stability
// index, with the fixed scaling constant that maps its standard
// deviation onto index points.
type StabilityTag struct {
	UnitID string  `yaml:"unit_id"`
	TagID  string  `yaml:"tag_id"`
	Scale  float64 `yaml:"scale"`
}

// AnalyticsConfig holds the scoring cycle parameters
type AnalyticsConfig struct {
	CycleIntervalSeconds int     `yaml:"cycle_interval_seconds"`
	RetentionMinutes     int     `yaml:"retention_minutes"`
	WindowMinutes        int     `yaml:"window_minutes"`
	MinSamples           int     `yaml:"min_samples"`
	TrendDelta           float64 `yaml:"trend_delta"`
	DegradedComposite    float64 `yaml:"degraded_composite"`
	AnomalySigma         float64 `yaml:"anomaly_sigma"`
	RiskAlertThreshold   float64 `yaml:"risk_alert_threshold"`
	StabilityAlertBelow  float64 `yaml:"stability_alert_below"`
	EfficiencyAlertBelow float64 `yaml:"efficiency_alert_below"`
	SavingsHorizonHours  float64 `yaml:"savings_horizon_hours"`
	EnergyPriceUSD       float64 `yaml:"energy_price_usd_per_kwh"`
	HistoryMaxPoints     int     `yaml:"history_max_points"`

	StabilityTags []StabilityTag `yaml:"stability_tags"`
}

// Unit is the metadata for one process unit
type Unit struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	Capacity         float64 `yaml:"capacity"`
	TargetThroughput float64 `yaml:"target_throughput"`
	MarginUSD        float64 `yaml:"margin_usd"`
	EnergyBenchmark  float64 `yaml:"energy_benchmark"`
	EnergyTarget     float64 `yaml:"energy_target"`
	ThroughputTag    string  `yaml:"throughput_tag"`
	QualityTag       string  `yaml:"quality_tag"`
	AvailabilityTag  string  `yaml:"availability_tag"`
	EnergyTag        string  `yaml:"energy_tag"`
}

// Equipment is the metadata for one scored piece of equipment.
// Sensors maps feature names to the process tags that carry them.
type Equipment struct {
	ID      string            `yaml:"id"`
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	UnitID  string            `yaml:"unit_id"`
	Sensors map[string]string `yaml:"sensors"`
}

// FeatureProfile describes the normal-operation baseline and failure
// envelope of one sensor feature for an equipment type.
type FeatureProfile struct {
	Nominal          float64 `yaml:"nominal"`
	FailureThreshold float64 `yaml:"failure_threshold"`
	Volatility       float64 `yaml:"volatility"`
	Weight           float64 `yaml:"weight"`
}

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig                         `yaml:"server"`
	Redis     RedisConfig                          `yaml:"redis"`
	Kafka     KafkaConfig                          `yaml:"kafka"`
	Database  DatabaseConfig                       `yaml:"database"`
	Logging   LoggingConfig                        `yaml:"logging"`
	Analytics AnalyticsConfig                      `yaml:"analytics"`
	Units     []Unit                               `yaml:"units"`
	Equipment []Equipment                          `yaml:"equipment"`
	Profiles  map[string]map[string]FeatureProfile `yaml:"profiles"`
}

// Load reads the YAML config at path, falling back to embedded defaults
// when the file is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Analytics.CycleIntervalSeconds <= 0 {
		return fmt.Errorf("analytics cycle_interval_seconds must be positive")
	}
	if c.Analytics.WindowMinutes <= 0 {
		return fmt.Errorf("analytics window_minutes must be positive")
	}
	if c.Analytics.RetentionMinutes < c.Analytics.WindowMinutes {
		return fmt.Errorf("retention_minutes must cover window_minutes")
	}
	if c.Analytics.MinSamples < 1 {
		return fmt.Errorf("analytics min_samples must be at least 1")
	}
	if c.Analytics.AnomalySigma <= 0 {
		return fmt.Errorf("analytics anomaly_sigma must be positive")
	}

	switch c.Database.Driver {
	case "", "none", "sqlite":
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return fmt.Errorf("postgres host and dbname are required")
		}
	case "mysql":
		if c.Database.MySQL.Host == "" || c.Database.MySQL.DBName == "" {
			return fmt.Errorf("mysql host and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	units := make(map[string]bool, len(c.Units))
	for _, u := range c.Units {
		if u.ID == "" {
			return fmt.Errorf("unit id is required")
		}
		units[u.ID] = true
	}

	for _, eq := range c.Equipment {
		if eq.ID == "" || eq.Type == "" {
			return fmt.Errorf("equipment id and type are required")
		}
		if !units[eq.UnitID] {
			return fmt.Errorf("equipment %s references unknown unit %s", eq.ID, eq.UnitID)
		}
		if _, ok := c.Profiles[eq.Type]; !ok {
			return fmt.Errorf("equipment %s has no profile for type %s", eq.ID, eq.Type)
		}
	}

	return nil
}

// Unit returns the unit metadata for id, if configured.
func (c *Config) Unit(id string) (Unit, bool) {
	for _, u := range c.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}
