package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendGorm = "gorm"
	BackendSQLX = "sqlx"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Store    StoreConfig    `json:"store"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver         string        `json:"driver"`
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	Path           string        `json:"path"` // sqlite file
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	AutoMigrate    bool          `json:"auto_migrate"`
}

// StoreConfig selects the preference store implementation
type StoreConfig struct {
	Backend string `json:"backend"`
}

// LoggingConfig sets the zap level and whether development output is used
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// Default returns the configuration used when neither file nor environment say otherwise
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "study_buddy",
			SSLMode:        "disable",
			Path:           "study_buddy.db",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    5 * time.Minute,
		},
		Store: StoreConfig{
			Backend: BackendGorm,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// A missing file is not an error; the defaults and environment still apply.
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}

	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		p, err := strconv.Atoi(dbPort)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_PORT %q: %w", dbPort, err)
		}
		config.Database.Port = p
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		config.Database.SSLMode = sslMode
	}
	if path := os.Getenv("DATABASE_PATH"); path != "" {
		config.Database.Path = path
	}
	if migrate := os.Getenv("DATABASE_AUTO_MIGRATE"); migrate != "" {
		b, err := strconv.ParseBool(migrate)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_AUTO_MIGRATE %q: %w", migrate, err)
		}
		config.Database.AutoMigrate = b
	}

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		config.Store.Backend = backend
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dev := os.Getenv("LOG_DEVELOPMENT"); dev != "" {
		b, err := strconv.ParseBool(dev)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEVELOPMENT %q: %w", dev, err)
		}
		config.Logging.Development = b
	}

	return nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive, got %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch c.Store.Backend {
	case BackendGorm, BackendSQLX:
	default:
		return fmt.Errorf("unsupported store backend: %q", c.Store.Backend)
	}

	return nil
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
