package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Access    AccessConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

// StoreConfig selects the persistence backend: "couch" for a CouchDB cluster,
// "bolt" for a single-node embedded file.
type StoreConfig struct {
	Backend  string
	BoltPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type SessionConfig struct {
	// SaveDebounce is the quiet period before an edit burst is persisted.
	SaveDebounce        time.Duration
	VersionHistoryLimit int
}

type AccessConfig struct {
	BcryptCost   int
	UnlockSecret string
	UnlockTTL    time.Duration
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxConnPerNote  int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	godotenv.Load()

	debounce, err := time.ParseDuration(getEnv("SAVE_DEBOUNCE", "1000ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid SAVE_DEBOUNCE: %w", err)
	}

	unlockTTL, err := time.ParseDuration(getEnv("UNLOCK_TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid UNLOCK_TOKEN_TTL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Store: StoreConfig{
			Backend:  getEnv("STORE_BACKEND", "bolt"),
			BoltPath: getEnv("BOLT_PATH", "padsync.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "padsync"),
		},
		Session: SessionConfig{
			SaveDebounce:        debounce,
			VersionHistoryLimit: getEnvAsInt("VERSION_HISTORY_LIMIT", 50),
		},
		Access: AccessConfig{
			BcryptCost:   getEnvAsInt("BCRYPT_COST", 12),
			UnlockSecret: getEnv("UNLOCK_TOKEN_SECRET", "dev-secret-change-in-production"),
			UnlockTTL:    unlockTTL,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 4096),
			MaxMessageSize:  int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 1048576)),
			WriteWait:       10 * time.Second,
			PongWait:        60 * time.Second,
			PingPeriod:      54 * time.Second,
			MaxConnPerNote:  getEnvAsInt("WS_MAX_CONN_PER_NOTE", 16),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
