// Package config provides centralized default values for the edge service.
// Every value can be overridden from the environment or a .env file.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded = new(sync.Once)

func loadEnvFile() {
	envLoaded.Do(func() {
		path := os.Getenv("EDGE_ENV_FILE")
		if path == "" {
			path = ".env"
		}
		if _, err := os.Stat(path); err != nil {
			return
		}
		// godotenv.Load never overrides variables already set in the environment
		if err := godotenv.Load(path); err != nil {
			log.Printf("Failed to load %s: %v", path, err)
			return
		}
		log.Printf("Loaded configuration overrides from %s", path)
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
		log.Printf("Config ignored: %s=%q is not an integer", key, valStr)
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, redact(key, val), defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
		log.Printf("Config ignored: %s=%q is not a boolean", key, valStr)
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
		log.Printf("Config ignored: %s=%q is not a duration", key, valStr)
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	log.Printf("Config override: %s=%s", key, strings.Join(out, ","))
	return out
}

func redact(key, value string) string {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"SECRET", "TOKEN", "KEY", "PASSWORD", "HASH"} {
		if strings.Contains(upper, marker) {
			return "[redacted]"
		}
	}
	return value
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	ShutdownTimeout    time.Duration
	GinMode            string
	CORSAllowedOrigins []string

	// Edge Middleware
	EdgeApp         string
	EdgeUpstreamURL string
	AppsConfigPath  string

	// Platform flags
	IsPlatform              bool
	OngoingIncidentOverride bool

	// Status Page
	StatusPageAPIURL  string
	StatusPagePageID  string
	StatusPageAPIKey  string
	StatusPageTimeout time.Duration

	// Incident cache and feed
	IncidentCacheTTL          time.Duration
	IncidentBroadcastInterval time.Duration
	CacheCleanupInterval      time.Duration
	RedisURL                  string

	// Database
	DBDriver                 string
	DBURL                    string
	DBAuthToken              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Security
	JWTSecret         string
	SysopPasswordHash string

	// Logging
	LogFormat    string
	LogLevel     string
	LogDirectory string
)

func init() {
	loadEnvFile()
	Load()
}

// Load reads every setting from the environment. It runs once at init and
// again from tests that change the environment.
func Load() {
	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	GinMode = getEnvString("GIN_MODE", "release")
	CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{"https://supabase.com", "http://localhost:8082"})

	// Edge Middleware
	EdgeApp = getEnvString("EDGE_APP", "www")
	EdgeUpstreamURL = getEnvString("EDGE_UPSTREAM_URL", "")
	AppsConfigPath = getEnvString("APPS_CONFIG_PATH", "")

	// Platform flags
	IsPlatform = getEnvBool("IS_PLATFORM", true)
	OngoingIncidentOverride = getEnvBool("NEXT_PUBLIC_ONGOING_INCIDENT", false)

	// Status Page
	StatusPageAPIURL = getEnvString("STATUSPAGE_API_URL", "https://api.statuspage.io/v1")
	StatusPagePageID = getEnvString("STATUSPAGE_PAGE_ID", "")
	StatusPageAPIKey = getEnvString("STATUSPAGE_API_KEY", "")
	StatusPageTimeout = getEnvDuration("STATUSPAGE_TIMEOUT", 10*time.Second)

	// Incident cache and feed
	IncidentCacheTTL = getEnvDuration("INCIDENT_CACHE_TTL", 5*time.Minute)
	IncidentBroadcastInterval = getEnvDuration("INCIDENT_BROADCAST_INTERVAL", 60*time.Second)
	CacheCleanupInterval = getEnvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute)
	RedisURL = getEnvString("REDIS_URL", "")

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBURL = getEnvString("DB_URL", "file:edge.db?_foreign_keys=on")
	DBAuthToken = getEnvString("DB_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Security
	JWTSecret = getEnvString("JWT_SECRET", "")
	SysopPasswordHash = getEnvString("SYSOP_PASSWORD_HASH", "")

	// Logging
	LogFormat = getEnvString("LOG_FORMAT", "json")
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogDirectory = getEnvString("LOG_DIRECTORY", "")
}
