package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Blob backends for the local store.
const (
	BlobFile = "file"
	BlobS3   = "s3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Store    StoreConfig
	Local    LocalConfig
	S3       S3Config
	Database DatabaseConfig
	AMQP     AMQPConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// StoreConfig selects the menu store and the deployment namespace.
type StoreConfig struct {
	Backend        string // "local" or "remote"
	AppID          string
	BootstrapDelay time.Duration
}

// LocalConfig holds configuration for the local persistence store.
type LocalConfig struct {
	BlobBackend string // "file" or "s3"
	Dir         string
	Key         string
}

// S3Config holds AWS S3 configuration for the local store blob.
type S3Config struct {
	Bucket string
	Region string
	Prefix string // Path prefix within bucket (e.g., "bistro/")
}

// DatabaseConfig holds the remote store connection credentials.
// Host, User and Database have no defaults: leaving them out puts the
// remote variant into the unconfigured state.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// AMQPConfig holds RabbitMQ configuration for menu change events.
type AMQPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Exchange string
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Store: StoreConfig{
			Backend:        getEnv("STORE_BACKEND", BackendLocal),
			AppID:          getEnv("APP_ID", "default-app-id"),
			BootstrapDelay: getEnvAsDuration("BOOTSTRAP_DELAY", 500*time.Millisecond),
		},
		Local: LocalConfig{
			BlobBackend: getEnv("LOCAL_BLOB_BACKEND", BlobFile),
			Dir:         getEnv("LOCAL_STORE_DIR", "data"),
			Key:         getEnv("LOCAL_STORE_KEY", "burnt_bobs_menu"),
		},
		S3: S3Config{
			Bucket: getEnv("S3_BUCKET", ""),
			Region: getEnv("S3_REGION", "us-east-1"),
			Prefix: getEnv("S3_PREFIX", "bistro/"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", ""),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 2),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		AMQP: AMQPConfig{
			Enabled:  getEnvAsBool("AMQP_ENABLED", false),
			Host:     getEnv("AMQP_HOST", "localhost"),
			Port:     getEnvAsInt("AMQP_PORT", 5672),
			User:     getEnv("AMQP_USER", "guest"),
			Password: getEnv("AMQP_PASSWORD", "guest"),
			Exchange: getEnv("AMQP_EXCHANGE", "menu_events"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
// Missing remote credentials are not an error here; see DatabaseConfig.Configured.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Store.BootstrapDelay < 0 {
		return fmt.Errorf("bootstrap delay cannot be negative")
	}

	switch c.Store.Backend {
	case BackendLocal:
		if err := c.validateLocal(); err != nil {
			return err
		}
	case BackendRemote:
		if err := c.validateRemote(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be local or remote)", c.Store.Backend)
	}

	if c.AMQP.Enabled {
		if c.AMQP.Host == "" {
			return fmt.Errorf("AMQP host is required when AMQP is enabled")
		}
		if c.AMQP.Port < 1 || c.AMQP.Port > 65535 {
			return fmt.Errorf("invalid AMQP port: %d", c.AMQP.Port)
		}
		if c.AMQP.Exchange == "" {
			return fmt.Errorf("AMQP exchange is required when AMQP is enabled")
		}
	}

	return nil
}

func (c *Config) validateLocal() error {
	if c.Local.Key == "" {
		return fmt.Errorf("local store key is required")
	}

	switch c.Local.BlobBackend {
	case BlobFile:
		if c.Local.Dir == "" {
			return fmt.Errorf("local store directory is required for the file blob backend")
		}
	case BlobS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for the s3 blob backend")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("invalid local blob backend: %s (must be file or s3)", c.Local.BlobBackend)
	}

	return nil
}

func (c *Config) validateRemote() error {
	if c.Store.AppID == "" {
		return fmt.Errorf("app ID is required for the remote store")
	}

	if !c.Database.Configured() {
		return nil
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// Configured reports whether the credentials needed to reach the remote
// store are present.
func (c *DatabaseConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Database != ""
}

// ConnectionString returns the PostgreSQL connection string. Credentials
// are escaped.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// URL returns the AMQP connection URL. Credentials are escaped.
func (c *AMQPConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/",
	}
	return u.String()
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
