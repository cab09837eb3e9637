// Package config provides centralized default values for AlumNet
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database
	SQLitePath               string
	LibsqlURL                string
	LibsqlToken              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int
	SlowQueryThreshold       time.Duration

	// Realtime
	TypingTTL         time.Duration
	SessionSendBuffer int
	RedisURL          string
	BridgeChannel     string

	// Stories
	StoryDefaultHours int
	StoryMaxHours     int
	MediaBasePath     string

	// Engagement
	ViewDedupWindow time.Duration

	// Sweep
	SweepInterval time.Duration
	SweepVerbose  bool

	// Auth / Ops
	JWTSecret       string
	SessionTokenTTL time.Duration
	OpsPasswordHash string

	// Email
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database
	SQLitePath = getEnvString("SQLITE_PATH", "data/alumnet.db")
	LibsqlURL = getEnvString("LIBSQL_URL", "")
	LibsqlToken = getEnvString("LIBSQL_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 250*time.Millisecond)

	// Realtime
	TypingTTL = getEnvDuration("TYPING_TTL", 3*time.Second)
	SessionSendBuffer = getEnvInt("SESSION_SEND_BUFFER", 32)
	RedisURL = getEnvString("REDIS_URL", "")
	BridgeChannel = getEnvString("BRIDGE_CHANNEL", "alumnet:events")

	// Stories
	StoryDefaultHours = getEnvInt("STORY_DEFAULT_HOURS", 24)
	StoryMaxHours = getEnvInt("STORY_MAX_HOURS", 48)
	MediaBasePath = getEnvString("MEDIA_BASE_PATH", "data/media")

	// Engagement
	ViewDedupWindow = getEnvDuration("VIEW_DEDUP_WINDOW", time.Hour)

	// Sweep
	SweepInterval = getEnvDuration("SWEEP_INTERVAL", 10*time.Minute)
	SweepVerbose = getEnvString("SWEEP_VERBOSE", "false") == "true"

	// Auth / Ops
	JWTSecret = getEnvString("JWT_SECRET", "alumnet-dev-secret")
	SessionTokenTTL = getEnvDuration("SESSION_TOKEN_TTL", 30*24*time.Hour)
	OpsPasswordHash = getEnvString("OPS_PASSWORD_HASH", "")

	// Email
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailFrom = getEnvString("EMAIL_FROM", "noreply@alumnet.dev")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "AlumNet")
}
