package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type (
	APIServerConfig struct {
		Server   ServerConfig   `yaml:"server"`
		Database DatabaseConfig `yaml:"database"`
		Logger   LoggerConfig   `yaml:"logger"`
		JWT      JWTConfig      `yaml:"jwt"`
		Realtime RealtimeConfig `yaml:"realtime"`
		Bus      BusConfig      `yaml:"bus"`
		Metrics  MetricsConfig  `yaml:"metrics"`
		Tracing  TracingConfig  `yaml:"tracing"`
		I18n     I18nConfig     `yaml:"i18n"`
	}

	ServerConfig struct {
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            CORSConfig    `yaml:"cors"`
	}

	// CORSConfig lists what browsers may call the API from
	CORSConfig struct {
		AllowOrigins     []string `yaml:"allow_origins"`
		AllowMethods     []string `yaml:"allow_methods"`
		AllowHeaders     []string `yaml:"allow_headers"`
		AllowCredentials bool     `yaml:"allow_credentials"`
	}

	// I18nConfig represents the internationalization configuration
	I18nConfig struct {
		Path string `yaml:"path"` // Path to i18n translation files
	}

	DatabaseConfig struct {
		Type     string `yaml:"type"`     // mysql, postgres, sqlite
		Host     string `yaml:"host"`     // localhost
		Port     int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User     string `yaml:"user"`     // root (for mysql), postgres (for postgres)
		Password string `yaml:"password"` // password
		DBName   string `yaml:"dbname"`   // database name, or file path for sqlite
		SSLMode  string `yaml:"sslmode"`  // disable (for postgres)
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// RealtimeConfig tunes the websocket gateway
	RealtimeConfig struct {
		Path           string        `yaml:"path"`
		TypingTimeout  time.Duration `yaml:"typing_timeout"` // quiet period before a typing indicator auto-stops
		SendBuffer     int           `yaml:"send_buffer"`    // queued outbound frames per connection
		PingInterval   time.Duration `yaml:"ping_interval"`
		PongWait       time.Duration `yaml:"pong_wait"`
		WriteWait      time.Duration `yaml:"write_wait"`
		MaxMessageSize int64         `yaml:"max_message_size"`
		AllowOrigins   []string      `yaml:"allow_origins"` // empty allows any origin

		// AllowClientNotificationPush lets connected clients emit notification:send frames.
		AllowClientNotificationPush bool `yaml:"allow_client_notification_push"`
	}

	// BusConfig selects how routed events reach connections on other instances
	BusConfig struct {
		Type  string      `yaml:"type"` // memory or redis
		Redis RedisConfig `yaml:"redis"`
	}

	RedisConfig struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Topic    string `yaml:"topic"`
	}

	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Path      string    `yaml:"path"`
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}

	TracingConfig struct {
		Enabled     bool              `yaml:"enabled"`
		ServiceName string            `yaml:"service_name"`
		Endpoint    string            `yaml:"endpoint"`     // e.g. localhost:4317 or localhost:4318
		Protocol    string            `yaml:"protocol"`     // grpc or http
		Insecure    bool              `yaml:"insecure"`     // allow insecure connection
		SamplerRate float64           `yaml:"sampler_rate"` // 0.0~1.0
		Environment string            `yaml:"environment"`  // dev/staging/prod
		Headers     map[string]string `yaml:"headers"`
	}
)

const (
	BusTypeMemory = "memory"
	BusTypeRedis  = "redis"
)

func (c *APIServerConfig) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.DBName == "" {
		c.Database.DBName = "./data/familia.db"
	}
	if c.JWT.Duration <= 0 {
		c.JWT.Duration = 7 * 24 * time.Hour
	}
	c.Realtime.setDefaults()
	if c.Bus.Type == "" {
		c.Bus.Type = BusTypeMemory
	}
	if c.Bus.Redis.Topic == "" {
		c.Bus.Redis.Topic = "familia:realtime"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "familia"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "familia-apiserver"
	}
	if c.I18n.Path == "" {
		c.I18n.Path = "configs/i18n"
	}
}

func (c *RealtimeConfig) setDefaults() {
	if c.Path == "" {
		c.Path = "/ws"
	}
	if c.TypingTimeout <= 0 {
		c.TypingTimeout = 2500 * time.Millisecond
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
}

// DefaultRealtimeConfig returns realtime settings with every default applied
func DefaultRealtimeConfig() RealtimeConfig {
	var c RealtimeConfig
	c.setDefaults()
	return c
}

// Validate reports configuration that cannot be served
func (c *APIServerConfig) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	switch c.Bus.Type {
	case BusTypeMemory:
	case BusTypeRedis:
		if c.Bus.Redis.Addr == "" {
			return fmt.Errorf("bus.redis.addr is required when bus.type is redis")
		}
	default:
		return fmt.Errorf("unsupported bus type: %s", c.Bus.Type)
	}
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("jwt.secret_key is required")
	}
	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "postgres":
		return c.getPostgresDSN()
	case "mysql":
		return c.getMySQLDSN()
	case "sqlite":
		if c.DBName != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(c.DBName), 0755); err != nil {
				panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
			}
		}
		return c.DBName // For SQLite, DBName is the file path
	default:
		return ""
	}
}

func (c *DatabaseConfig) getPostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func (c *DatabaseConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
