package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Chat     ChatConfig     `yaml:"chat"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

// StorageConfig picks the backend for flights and bookings.
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig is optional; an empty Addr disables the flights cache and
// keeps chat sessions in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
	PublishRetries     int      `yaml:"publish_retries"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type BookingConfig struct {
	RedirectBaseURL string `yaml:"redirect_base_url"`
	FlightsCacheTTL int    `yaml:"flights_cache_ttl_seconds"`
	SeedDemo        bool   `yaml:"seed_demo"`
}

type ChatConfig struct {
	TypingDelayMillis int    `yaml:"typing_delay_ms"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	TimeZone          string `yaml:"time_zone"`
}

func (c ChatConfig) TypingDelay() time.Duration {
	return time.Duration(c.TypingDelayMillis) * time.Millisecond
}

func (c ChatConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Location resolves TimeZone, falling back to UTC when unset.
func (c ChatConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration that runs fully in memory.
func Default() Config {
	return Config{
		HTTP:    HTTPConfig{Address: ":8080"},
		GRPC:    GRPCConfig{Address: ":9090"},
		Storage: StorageConfig{Driver: StorageMemory},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Kafka: KafkaConfig{
			BookingEventsTopic: "booking-events",
			NotificationsTopic: "booking-notifications",
			GroupID:            "airassist-worker",
			PublishRetries:     3,
		},
		Booking: BookingConfig{
			RedirectBaseURL: "https://www.aircanada.com/booking",
			FlightsCacheTTL: 60,
			SeedDemo:        true,
		},
		Chat: ChatConfig{
			TypingDelayMillis: 400,
			SessionTTLMinutes: 30,
			TimeZone:          "UTC",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required"))
	}
	if c.GRPC.Address == "" {
		errs = append(errs, errors.New("grpc.address is required"))
	}
	if c.Booking.RedirectBaseURL == "" {
		errs = append(errs, errors.New("booking.redirect_base_url is required"))
	}
	if c.Kafka.PublishRetries < 0 {
		errs = append(errs, errors.New("kafka.publish_retries must not be negative"))
	}
	if c.Chat.TypingDelayMillis < 0 {
		errs = append(errs, errors.New("chat.typing_delay_ms must not be negative"))
	}
	if c.Chat.SessionTTLMinutes <= 0 {
		errs = append(errs, errors.New("chat.session_ttl_minutes must be positive"))
	}
	if _, err := c.Chat.Location(); err != nil {
		errs = append(errs, fmt.Errorf("chat.time_zone: %w", err))
	}
	return errors.Join(errs...)
}
