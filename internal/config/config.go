package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	API          APIConfig          `yaml:"api"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	NATS         NATSConfig         `yaml:"nats"`
	JWT          JWTConfig          `yaml:"jwt"`
	Log          LogConfig          `yaml:"log"`
	Notification NotificationConfig `yaml:"notification"`
	Report       ReportConfig       `yaml:"report"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// APIConfig represents API configuration
type APIConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// RedisConfig represents Redis configuration. An empty Addr disables the
// dashboard cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NATSConfig represents NATS configuration. An empty URL runs the server in
// standalone mode with log-only notifications.
type NATSConfig struct {
	URL               string        `yaml:"url"`
	ClientID          string        `yaml:"client_id"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	Issuer          string        `yaml:"issuer"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NotificationConfig covers the async dispatcher and the push worker.
type NotificationConfig struct {
	Subject   string   `yaml:"subject"`
	QueueSize int      `yaml:"queue_size"`
	Workers   int      `yaml:"workers"`
	HTTP      PushHTTP `yaml:"http"`
	MQTT      PushMQTT `yaml:"mqtt"`
}

// PushHTTP configures delivery through an HTTP push endpoint.
type PushHTTP struct {
	Endpoint string            `yaml:"endpoint"`
	Headers  map[string]string `yaml:"headers"`
	Timeout  time.Duration     `yaml:"timeout"`
}

// PushMQTT configures delivery through an MQTT broker. TopicPattern may
// contain {token}.
type PushMQTT struct {
	BrokerURL    string `yaml:"broker_url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	TopicPattern string `yaml:"topic_pattern"`
	QoS          byte   `yaml:"qos"`
	TLS          bool   `yaml:"tls"`
}

// ReportConfig tunes the report reader.
type ReportConfig struct {
	VisitorLookbackMonths int           `yaml:"visitor_lookback_months"`
	MaxPageSize           int           `yaml:"max_page_size"`
	DashboardCacheTTL     time.Duration `yaml:"dashboard_cache_ttl"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c.Redis.Addr = redisAddr
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}

	if endpoint := os.Getenv("PUSH_ENDPOINT"); endpoint != "" {
		c.Notification.HTTP.Endpoint = endpoint
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		c.Notification.MQTT.BrokerURL = broker
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "access-register"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"*"}
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = 10
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 2 * time.Second
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "access-register"
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = 12 * time.Hour
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Notification.Subject == "" {
		c.Notification.Subject = "access.notifications"
	}
	if c.Notification.QueueSize == 0 {
		c.Notification.QueueSize = 256
	}
	if c.Notification.Workers == 0 {
		c.Notification.Workers = 2
	}
	if c.Notification.HTTP.Timeout == 0 {
		c.Notification.HTTP.Timeout = 10 * time.Second
	}
	if c.Notification.MQTT.TopicPattern == "" {
		c.Notification.MQTT.TopicPattern = "access/push/{token}"
	}
	if c.Report.VisitorLookbackMonths == 0 {
		c.Report.VisitorLookbackMonths = 3
	}
	if c.Report.MaxPageSize == 0 {
		c.Report.MaxPageSize = 100
	}
	if c.Report.DashboardCacheTTL == 0 {
		c.Report.DashboardCacheTTL = 30 * time.Second
	}
}

func (c *Config) validate() error {
	if c.Notification.MQTT.QoS > 2 {
		return fmt.Errorf("notification.mqtt.qos must be 0, 1 or 2")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// RequireServer checks the settings the API server cannot start without.
func (c *Config) RequireServer() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}

// Address returns the API listen address.
func (a APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// PrintConfigSummary prints the effective settings at startup.
func (c *Config) PrintConfigSummary() {
	fmt.Printf("=== Access Register Configuration ===\n")
	fmt.Printf("Server: %s v%s\n", c.Server.Name, c.Server.Version)
	fmt.Printf("API: %s\n", c.API.Address())
	fmt.Printf("NATS: %s\n", orNone(c.NATS.URL))
	fmt.Printf("Redis: %s\n", orNone(c.Redis.Addr))
	fmt.Printf("Push HTTP: %s\n", orNone(c.Notification.HTTP.Endpoint))
	fmt.Printf("Push MQTT: %s\n", orNone(c.Notification.MQTT.BrokerURL))
	fmt.Printf("=====================================\n")
}

func orNone(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}
