package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	WebSocket   WebSocketConfig
	Consequence ConsequenceConfig
	Background  BackgroundConfig
	RateLimit   RateLimitConfig
	Archive     ArchiveConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	// JWTSecret verifies inbound bearer tokens. Issuance lives elsewhere.
	JWTSecret string
}

type WebSocketConfig struct {
	// KeepAliveInterval is the idle interval after which a ping probe is sent.
	KeepAliveInterval time.Duration
	WriteTimeout      time.Duration
}

type ConsequenceConfig struct {
	QueueSize int
	// MaxDepth caps event -> consequence -> event recursion.
	MaxDepth int
}

type BackgroundConfig struct {
	QueueSize int
}

type RateLimitConfig struct {
	AppendLimit  int
	AppendWindow time.Duration
}

type ArchiveConfig struct {
	Enabled   bool
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "logline"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		WebSocket: WebSocketConfig{
			KeepAliveInterval: getEnvAsDuration("WS_KEEPALIVE_INTERVAL", 30*time.Second),
			WriteTimeout:      getEnvAsDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		},
		Consequence: ConsequenceConfig{
			QueueSize: getEnvAsInt("CONSEQUENCE_QUEUE_SIZE", 256),
			MaxDepth:  getEnvAsInt("CONSEQUENCE_MAX_DEPTH", 5),
		},
		Background: BackgroundConfig{
			QueueSize: getEnvAsInt("BACKGROUND_QUEUE_SIZE", 512),
		},
		RateLimit: RateLimitConfig{
			AppendLimit:  getEnvAsInt("RATELIMIT_APPEND_LIMIT", 120),
			AppendWindow: getEnvAsDuration("RATELIMIT_APPEND_WINDOW", 60*time.Second),
		},
		Archive: ArchiveConfig{
			Enabled:   getEnvAsBool("ARCHIVE_ENABLED", false),
			Region:    getEnv("ARCHIVE_S3_REGION", ""),
			Bucket:    getEnv("ARCHIVE_S3_BUCKET", ""),
			AccessKey: getEnv("ARCHIVE_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("ARCHIVE_S3_SECRET_KEY", ""),
			Endpoint:  getEnv("ARCHIVE_S3_ENDPOINT", ""),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
