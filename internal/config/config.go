package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// Valves are the tool settings (hub, sensors, units).
	Valves Valves

	// HTTPTimeout bounds each request to the hub.
	HTTPTimeout time.Duration

	// BreakerFailures trips the hub circuit breaker after that many
	// consecutive failures (0 = no breaker).
	BreakerFailures int

	// RefreshInterval controls how often a report is produced in the
	// background (0 = scheduler disabled).
	RefreshInterval time.Duration

	// In-memory report history retention.
	StoreMaxHistory int           // max number of reports kept (0 = unlimited)
	StoreMaxAge     time.Duration // max age of reports (0 = unlimited)

	// Inbound HTTP rate limit in requests per second (0 = unlimited).
	RateLimit float64
	RateBurst int

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = strings.TrimSpace(getenvDefault("APP_ENV", "dev"))
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8080")

	valves, err := LoadValves(os.Getenv("HA_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Valves = valves

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.BreakerFailures = getenvInt("HA_BREAKER_FAILURES", 0)

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	rateStr := getenvDefault("HTTP_RATE_LIMIT", "0")
	cfg.RateLimit, err = strconv.ParseFloat(rateStr, 64)
	if err != nil || cfg.RateLimit < 0 {
		return nil, fmt.Errorf("invalid HTTP_RATE_LIMIT %q", rateStr)
	}
	cfg.RateBurst = getenvInt("HTTP_RATE_BURST", 5)

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTTopic = getenvDefault("MQTT_TOPIC", "ha-weather-tool/report")
	cfg.MQTTClientID = getenvDefault("MQTT_CLIENT_ID", "ha-weather-tool")

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
