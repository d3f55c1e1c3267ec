package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	DB     DatabaseConfig
	Server ServerConfig
	Admin  AdminConfig
	Redis  RedisConfig
	Logger LoggerConfig
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME_SECONDS"`
	ConnMaxIdleTime int    `mapstructure:"DB_CONN_MAX_IDLE_TIME_SECONDS"`
}

// ServerConfig holds configuration for the wire protocol listener
type ServerConfig struct {
	Host                   string `mapstructure:"SERVER_HOST"`
	Port                   string `mapstructure:"SERVER_PORT"`
	Concurrent             bool   `mapstructure:"SERVER_CONCURRENT"`
	ReadBufferBytes        int    `mapstructure:"SERVER_READ_BUFFER"`
	MaxRequestBytes        int    `mapstructure:"SERVER_MAX_REQUEST_BYTES"`
	IOTimeoutSeconds       int    `mapstructure:"SERVER_IO_TIMEOUT_SECONDS"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// AdminConfig holds configuration for the health and stats HTTP server
type AdminConfig struct {
	Enabled bool   `mapstructure:"ADMIN_ENABLED"`
	Port    string `mapstructure:"ADMIN_PORT"`
}

// RedisConfig holds configuration for the outcome counters store
type RedisConfig struct {
	Enabled     bool   `mapstructure:"REDIS_ENABLED"`
	Host        string `mapstructure:"REDIS_HOST"`
	Port        string `mapstructure:"REDIS_PORT"`
	Password    string `mapstructure:"REDIS_PASSWORD"`
	DB          int    `mapstructure:"REDIS_DB"`
	MaxRetries  int    `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize    int    `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConn int    `mapstructure:"REDIS_MIN_IDLE_CONN"`
	StatsKey    string `mapstructure:"REDIS_STATS_KEY"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads configuration from app.env under path and from environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.DB.URL = v.GetString("DATABASE_URL")
	config.DB.Host = v.GetString("DB_HOST")
	config.DB.Port = v.GetString("DB_PORT")
	config.DB.User = v.GetString("DB_USER")
	config.DB.Password = v.GetString("DB_PASSWORD")
	config.DB.Name = v.GetString("DB_NAME")
	config.DB.SSLMode = v.GetString("DB_SSLMODE")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")
	config.DB.ConnMaxIdleTime = v.GetInt("DB_CONN_MAX_IDLE_TIME_SECONDS")

	config.Server.Host = v.GetString("SERVER_HOST")
	config.Server.Port = v.GetString("SERVER_PORT")
	config.Server.Concurrent = v.GetBool("SERVER_CONCURRENT")
	config.Server.ReadBufferBytes = v.GetInt("SERVER_READ_BUFFER")
	config.Server.MaxRequestBytes = v.GetInt("SERVER_MAX_REQUEST_BYTES")
	config.Server.IOTimeoutSeconds = v.GetInt("SERVER_IO_TIMEOUT_SECONDS")
	config.Server.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.Admin.Enabled = v.GetBool("ADMIN_ENABLED")
	config.Admin.Port = v.GetString("ADMIN_PORT")

	config.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.StatsKey = v.GetString("REDIS_STATS_KEY")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "users")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 1800)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME_SECONDS", 300)

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_CONCURRENT", false)
	v.SetDefault("SERVER_READ_BUFFER", 1024)
	v.SetDefault("SERVER_MAX_REQUEST_BYTES", 1<<20)
	v.SetDefault("SERVER_IO_TIMEOUT_SECONDS", 0)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("ADMIN_ENABLED", false)
	v.SetDefault("ADMIN_PORT", "8081")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	v.SetDefault("REDIS_STATS_KEY", "wire:outcomes")

	// Logger defaults
	env := v.GetString("APP_ENV")
	if env == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-wire-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks the values that would otherwise fail late, at bind or dial time.
func (c *Config) Validate() error {
	var errs []error

	if err := validatePort("SERVER_PORT", c.Server.Port); err != nil {
		errs = append(errs, err)
	}
	if c.Admin.Enabled {
		if err := validatePort("ADMIN_PORT", c.Admin.Port); err != nil {
			errs = append(errs, err)
		}
		if c.Admin.Port == c.Server.Port {
			errs = append(errs, fmt.Errorf("ADMIN_PORT must differ from SERVER_PORT (%s)", c.Server.Port))
		}
	}
	if c.Server.ReadBufferBytes <= 0 {
		errs = append(errs, fmt.Errorf("SERVER_READ_BUFFER must be positive, got %d", c.Server.ReadBufferBytes))
	}
	if c.Server.MaxRequestBytes < c.Server.ReadBufferBytes {
		errs = append(errs, fmt.Errorf("SERVER_MAX_REQUEST_BYTES (%d) must be at least SERVER_READ_BUFFER (%d)",
			c.Server.MaxRequestBytes, c.Server.ReadBufferBytes))
	}
	if c.Server.IOTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("SERVER_IO_TIMEOUT_SECONDS must not be negative, got %d", c.Server.IOTimeoutSeconds))
	}
	if c.DB.URL == "" && (c.DB.Host == "" || c.DB.Name == "") {
		errs = append(errs, errors.New("either DATABASE_URL or DB_HOST and DB_NAME must be set"))
	}
	if c.DB.MaxOpenConns <= 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DB.MaxOpenConns))
	}
	if c.Redis.Enabled {
		if err := validatePort("REDIS_PORT", c.Redis.Port); err != nil {
			errs = append(errs, err)
		}
		if c.Redis.StatsKey == "" {
			errs = append(errs, errors.New("REDIS_STATS_KEY must be set when REDIS_ENABLED is true"))
		}
	}

	return errors.Join(errs...)
}

func validatePort(name, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be a port number between 1 and 65535, got %q", name, port)
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL when set
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// Address returns the host:port the wire listener binds to
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Address returns the host:port the admin server binds to
func (c *AdminConfig) Address() string {
	return ":" + c.Port
}

// Address returns the Redis host:port
func (c *RedisConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}
