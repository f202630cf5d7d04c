package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Email    EmailConfig    `yaml:"email"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address         string `yaml:"address"`
	AdminToken      string `yaml:"admin_token"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Driver        string `yaml:"driver"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	LockTimeoutMS int    `yaml:"lock_timeout_ms"`
	Migrate       bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) LockTimeout() time.Duration {
	return time.Duration(d.LockTimeoutMS) * time.Millisecond
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type BookingConfig struct {
	Timezone         string `yaml:"timezone"`
	Location         string `yaml:"location"`
	SlotsCacheTTL    int    `yaml:"slots_cache_ttl_seconds"`
	NotifyTimeoutSec int    `yaml:"notify_timeout_seconds"`
}

func (b BookingConfig) TimeLocation() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

type EmailConfig struct {
	APIKey       string `yaml:"api_key"`
	From         string `yaml:"from"`
	AdminAddress string `yaml:"admin_address"`
	CompanyName  string `yaml:"company_name"`
}

type WorkerConfig struct {
	CloseSweepMinutes int `yaml:"close_sweep_minutes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, then applies defaults and environment overrides before validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = DefaultHTTPAddress
	}
	if cfg.HTTP.ShutdownSeconds == 0 {
		cfg.HTTP.ShutdownSeconds = DefaultShutdownSeconds
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.LockTimeoutMS == 0 {
		cfg.Database.LockTimeoutMS = DefaultLockTimeoutMS
	}
	if cfg.Booking.Timezone == "" {
		cfg.Booking.Timezone = DefaultTimezone
	}
	if cfg.Booking.SlotsCacheTTL == 0 {
		cfg.Booking.SlotsCacheTTL = DefaultSlotsCacheTTL
	}
	if cfg.Booking.NotifyTimeoutSec == 0 {
		cfg.Booking.NotifyTimeoutSec = DefaultNotifyTimeoutSec
	}
	if cfg.Kafka.NotificationsTopic == "" {
		cfg.Kafka.NotificationsTopic = DefaultNotificationsTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultGroupID
	}
	if cfg.Worker.CloseSweepMinutes == 0 {
		cfg.Worker.CloseSweepMinutes = DefaultCloseSweepMinutes
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (cfg *Config) applyEnv() {
	cfg.Database.Password = getEnvStr(EnvDatabasePassword, cfg.Database.Password)
	cfg.Email.APIKey = getEnvStr(EnvEmailAPIKey, cfg.Email.APIKey)
	cfg.HTTP.AdminToken = getEnvStr(EnvAdminToken, cfg.HTTP.AdminToken)
	cfg.Log.Level = getEnvStr(EnvLogLevel, cfg.Log.Level)
	if brokers := os.Getenv(EnvKafkaBrokers); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

// Validate reports every problem at once.
func (cfg *Config) Validate() error {
	var problems []string

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Host == "" {
			problems = append(problems, "database.host cannot be empty")
		}
		if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
			problems = append(problems, fmt.Sprintf("database.port must be between 1 and 65535, got: %d", cfg.Database.Port))
		}
		if cfg.Database.Name == "" {
			problems = append(problems, "database.name cannot be empty")
		}
		if cfg.HTTP.AdminToken == "" {
			problems = append(problems, fmt.Sprintf("http.admin_token (or %s) is required with the %s driver", EnvAdminToken, DriverPostgres))
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be %q or %q, got: %q", DriverPostgres, DriverMemory, cfg.Database.Driver))
	}

	if cfg.Database.LockTimeoutMS < 0 {
		problems = append(problems, fmt.Sprintf("database.lock_timeout_ms cannot be negative, got: %d", cfg.Database.LockTimeoutMS))
	}
	if _, err := cfg.Booking.TimeLocation(); err != nil {
		problems = append(problems, fmt.Sprintf("booking.timezone is not a valid IANA zone: %q", cfg.Booking.Timezone))
	}
	if cfg.Booking.SlotsCacheTTL < 0 {
		problems = append(problems, fmt.Sprintf("booking.slots_cache_ttl_seconds cannot be negative, got: %d", cfg.Booking.SlotsCacheTTL))
	}
	if cfg.Worker.CloseSweepMinutes < 0 {
		problems = append(problems, fmt.Sprintf("worker.close_sweep_minutes cannot be negative, got: %d", cfg.Worker.CloseSweepMinutes))
	}
	if cfg.Email.APIKey != "" && cfg.Email.From == "" {
		problems = append(problems, "email.from is required when email.api_key is set")
	}

	if len(problems) > 0 {
		msg := "configuration validation failed:\n"
		for i, p := range problems {
			msg += fmt.Sprintf("  %d. %s\n", i+1, p)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
