package config

import (
	"os"
	"strconv"
	"time"
)

// Configuration holds all service configuration, loaded from environment.
type Configuration struct {
	Port    string
	Env     string
	LogPath string

	Database string // "sqlite3" or "postgres"
	DbHost   string
	DbPort   string
	DbUser   string
	DbName   string
	DbPass   string

	RedisURL     string // empty -> in-memory session store
	SessionStore string // "memory" or "redis"

	// External collaborators
	GeocodingURL   string
	TripServiceURL string
	WalletURL      string
	UserServiceURL string
	SMSProviderURL string
	SMSSenderID    string
	SMSShortcode   string
	SyncFeedURL    string

	DefaultLanguage string

	USSDSessionTTL  time.Duration
	IVRSessionTTL   time.Duration
	ConfirmationTTL time.Duration
}

// Load reads configuration from environment with development defaults.
func Load() Configuration {
	c := Configuration{
		Port:    getEnv("PORT", "4010"),
		Env:     getEnv("ENV", "development"),
		LogPath: getEnv("LOG_PATH", "logs/server.log"),

		Database: getEnv("DATABASE", "sqlite3"),
		DbHost:   getEnv("DB_HOST", "localhost"),
		DbPort:   getEnv("DB_PORT", "5432"),
		DbUser:   getEnv("DB_USER", "ubi"),
		DbName:   getEnv("DB_NAME", "ubi_offline"),
		DbPass:   getEnv("DB_PASS", "ubi"),

		RedisURL:     getEnv("REDIS_URL", ""),
		SessionStore: getEnv("SESSION_STORE", "memory"),

		GeocodingURL:   getEnv("GEOCODING_URL", "http://localhost:4004"),
		TripServiceURL: getEnv("TRIP_SERVICE_URL", "http://localhost:4002"),
		WalletURL:      getEnv("WALLET_SERVICE_URL", "http://localhost:4003"),
		UserServiceURL: getEnv("USER_SERVICE_URL", "http://localhost:4001"),
		SMSProviderURL: getEnv("SMS_PROVIDER_URL", "http://localhost:4006"),
		SMSSenderID:    getEnv("SMS_SENDER_ID", "UBI"),
		SMSShortcode:   getEnv("SMS_SHORTCODE", "40404"),
		SyncFeedURL:    getEnv("SYNC_FEED_URL", "http://localhost:4005"),

		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),

		USSDSessionTTL:  getEnvSeconds("USSD_SESSION_TTL_SECONDS", 180),
		IVRSessionTTL:   getEnvSeconds("IVR_SESSION_TTL_SECONDS", 600),
		ConfirmationTTL: getEnvSeconds("CONFIRMATION_TTL_SECONDS", 600),
	}
	return c
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvSeconds(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}
