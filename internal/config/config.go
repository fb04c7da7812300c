package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Grader   GraderConfig
	Runtime  RuntimeConfig
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	MediaRoot    string        `mapstructure:"media_root"`
}

// PostgresConfig represents PostgreSQL database configuration
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig represents Redis configuration, used as the Broadcaster's
// cross-instance pub/sub backbone.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GraderConfig configures the Grader Oracle client. When APIKey is empty the
// oracle is disabled outright and text answers always use the fallback
// string-equality path.
type GraderConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimitPerS  float64       `mapstructure:"rate_limit_per_second"`
	BreakerMaxReqs uint32        `mapstructure:"breaker_max_requests"`
}

// RuntimeConfig configures the Session Runtime's ambient cadences.
type RuntimeConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// LoadConfig loads configuration from various sources in the following order of precedence:
// 1. Environment variables (with or without APP_ prefix, highest priority)
// 2. Config file specified by APP_CONFIG_FILE environment variable
func LoadConfig() (*Config, error) {
	config := &Config{
		Runtime: RuntimeConfig{HeartbeatInterval: time.Second},
		Grader: GraderConfig{
			Model:          "gpt-3.5-turbo",
			Timeout:        5 * time.Second,
			RateLimitPerS:  5,
			BreakerMaxReqs: 3,
		},
	}
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("APP") // This will prefix all env vars with APP_
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // Read environment variables that match

	// Also support standard environment variables without the prefix
	// These take precedence over the prefixed variables
	bindEnvVariables(v)

	// Look for config file
	configFile := getConfigFile()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warning: Unable to read config file: %v", err)
			// Non-fatal error, continue with defaults and env vars
		} else {
			log.Printf("Using config file: %s", v.ConfigFileUsed())
		}
	}

	// Unmarshal the config into our struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if raw := os.Getenv("CORS_ORIGINS"); raw != "" && len(config.Server.CORSOrigins) == 0 {
		config.Server.CORSOrigins = strings.Split(raw, ",")
	}

	return config, nil
}

// bindEnvVariables explicitly binds commonly used environment variables
// to their respective config keys for better compatibility
func bindEnvVariables(v *viper.Viper) {
	// Bind standard environment variables (without APP_ prefix)
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	v.BindEnv("server.media_root", "MEDIA_ROOT")

	// PostgreSQL environment variables
	v.BindEnv("postgres.host", "POSTGRES_HOST")
	v.BindEnv("postgres.port", "POSTGRES_PORT")
	v.BindEnv("postgres.user", "POSTGRES_USER")
	v.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	v.BindEnv("postgres.database", "POSTGRES_DB")
	v.BindEnv("postgres.sslmode", "POSTGRES_SSLMODE")

	// Redis environment variables
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// Grader Oracle environment variables
	v.BindEnv("grader.api_key", "OPENAI_API_KEY")
	v.BindEnv("grader.model", "OPENAI_MODEL")
	v.BindEnv("grader.timeout", "OPENAI_TIMEOUT")
	v.BindEnv("grader.rate_limit_per_second", "GRADER_RATE_LIMIT_PER_SECOND")
	v.BindEnv("grader.breaker_max_requests", "GRADER_BREAKER_MAX_REQUESTS")

	v.BindEnv("runtime.heartbeat_interval", "RUNTIME_HEARTBEAT_INTERVAL")
}

// getConfigFile returns the config file path from APP_CONFIG_FILE environment variable
func getConfigFile() string {
	// Only check environment variable for config file path
	if configPath := os.Getenv("APP_CONFIG_FILE"); configPath != "" {
		return configPath
	}

	return "" // No config file specified
}

// GetConnectionString returns a formatted PostgreSQL connection string
func (p PostgresConfig) GetConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// GetAddr returns Redis address in the format "host:port"
func (r RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
