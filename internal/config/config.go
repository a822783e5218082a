package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	SitesFile string // path to the sites.yaml file (optional, empty = built-in YouTube site)

	// Page surface tuning
	ControlRetryAttempts int           // bounded control-bar wait (default: 20)
	ControlRetryDelay    time.Duration // wait between control-bar probes (default: 300ms)
	PollPeriod           time.Duration // fallback navigation poll (default: 3s)
	FlashDuration        time.Duration // save confirmation flash (default: 1s)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SEEKMARK_LISTEN_PORT", "127.0.0.1:8080"),
		ShutdownTimeout: mustDuration("SEEKMARK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SEEKMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SEEKMARK_PRETTY_LOG", true),

		// Tracked sites
		SitesFile: getenv("SEEKMARK_SITES_FILE", ""),

		// Page surface tuning
		ControlRetryAttempts: getenvInt("SEEKMARK_CONTROL_RETRY_ATTEMPTS", 20),
		ControlRetryDelay:    mustDuration("SEEKMARK_CONTROL_RETRY_DELAY", 300*time.Millisecond),
		PollPeriod:           mustDuration("SEEKMARK_POLL_PERIOD", 3*time.Second),
		FlashDuration:        mustDuration("SEEKMARK_FLASH_DURATION", time.Second),

		// Redis settings
		RedisAddr:             requireEnv("SEEKMARK_REDIS_ADDR"),
		RedisUser:             getenv("SEEKMARK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SEEKMARK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("SEEKMARK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SEEKMARK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: SEEKMARK_REDIS_PASSWORD is required when SEEKMARK_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
