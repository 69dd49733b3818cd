package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerAddr          string `yaml:"server_addr"`
	DBDriver            string `yaml:"db_driver"`
	DBHost              string `yaml:"db_host"`
	DBPort              string `yaml:"db_port"`
	DBUser              string `yaml:"db_user"`
	DBPassword          string `yaml:"db_password"`
	DBName              string `yaml:"db_name"`
	DBSSLMode           string `yaml:"db_sslmode"`
	RedisHost           string `yaml:"redis_host"`
	RedisPort           string `yaml:"redis_port"`
	SessionSecret       string `yaml:"session_secret"`
	JWTSecret           string `yaml:"jwt_secret"`
	JWTAccessTTLMinutes int    `yaml:"jwt_access_ttl_minutes"`
	GinMode             string `yaml:"gin_mode"`
	OpenAIAPIKey        string `yaml:"openai_api_key"`
	LogLevel            string `yaml:"log_level"`
	LogFormat           string `yaml:"log_format"`
}

func Load() *Config {
	cfg := defaults()
	cfg.overrideWithEnv()
	return cfg
}

// LoadFile reads a YAML config file, then applies environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerAddr:          ":8080",
		DBDriver:            "postgres",
		DBHost:              "localhost",
		DBPort:              "5432",
		DBUser:              "collab",
		DBPassword:          "collabpassword",
		DBName:              "collab",
		DBSSLMode:           "disable",
		RedisHost:           "localhost",
		RedisPort:           "6379",
		SessionSecret:       "default-secret-key-change-me",
		JWTSecret:           "default-jwt-secret-change-me",
		JWTAccessTTLMinutes: 60,
		GinMode:             "debug",
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

func (c *Config) overrideWithEnv() {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.DBSSLMode = getEnv("DB_SSLMODE", c.DBSSLMode)
	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnv("REDIS_PORT", c.RedisPort)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTAccessTTLMinutes = getEnvInt("JWT_ACCESS_TTL_MINUTES", c.JWTAccessTTLMinutes)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver: %q", c.DBDriver)
	}
	if c.DBHost == "" {
		return fmt.Errorf("database host is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.JWTAccessTTLMinutes <= 0 {
		return fmt.Errorf("invalid JWT access TTL: %d", c.JWTAccessTTLMinutes)
	}
	return nil
}

// DSN returns the connection string for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser,
			c.DBPassword,
			c.DBHost,
			c.DBPort,
			c.DBName,
		)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
	)
}

// RedisAddr returns host:port for redis clients
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
