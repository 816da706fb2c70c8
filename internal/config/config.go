package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Telegram
	BotToken             string
	BotUsername          string
	RequiredChannel      string
	ChannelURL           string
	WebAppURL            string
	AdminPanelURL        string
	MembershipTimeout    time.Duration
	MembershipRetries    int
	BotHeartbeatInterval time.Duration

	// Launch tokens handed to the web app
	LaunchTokenSecret string
	LaunchTokenTTL    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "earnbot"),
		DBPassword: getEnv("DB_PASSWORD", "earnbot"),
		DBName:     getEnv("DB_NAME", "earnbot"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Telegram
		BotToken:        os.Getenv("BOT_TOKEN"),
		BotUsername:     getEnv("BOT_USERNAME", "earnbot"),
		RequiredChannel: getEnv("REQUIRED_CHANNEL", "@earnbot_news"),
		ChannelURL:      getEnv("CHANNEL_URL", "https://t.me/earnbot_news"),
		WebAppURL:       getEnv("WEBAPP_URL", "https://app.earnbot.local"),
		AdminPanelURL:   getEnv("ADMIN_PANEL_URL", "https://app.earnbot.local/admin"),

		LaunchTokenSecret: getEnv("LAUNCH_TOKEN_SECRET", "fallback-launch-secret-for-dev-only"),
	}

	config.MembershipTimeout = getDuration("MEMBERSHIP_TIMEOUT", 10*time.Second)
	config.MembershipRetries = getInt("MEMBERSHIP_RETRIES", 3)
	config.BotHeartbeatInterval = getDuration("BOT_HEARTBEAT_INTERVAL", time.Minute)
	config.LaunchTokenTTL = getDuration("LAUNCH_TOKEN_TTL", 24*time.Hour)

	return config, nil
}

// BotEnabled reports whether a Telegram bot token was configured.
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
