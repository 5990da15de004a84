package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           string
	DatabasePath   string
	AllowedOrigins string
	CountryAPIURL  string
	Environment    string // development, staging, production

	// Simulated latencies. The demo has no real backend; every async
	// operation resolves after one of these delays.
	CreateRoomDelay time.Duration
	ReplyMinDelay   time.Duration
	ReplyMaxDelay   time.Duration
	LoadMoreDelay   time.Duration
	SendOTPDelay    time.Duration
	VerifyDelay     time.Duration
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "gemini-chat.db"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"),
		CountryAPIURL:  getEnv("COUNTRY_API_URL", "https://restcountries.com"),
		Environment:    getEnv("ENVIRONMENT", "development"),

		CreateRoomDelay: getDuration("CREATE_ROOM_DELAY", 500*time.Millisecond),
		ReplyMinDelay:   getDuration("REPLY_MIN_DELAY", 2*time.Second),
		ReplyMaxDelay:   getDuration("REPLY_MAX_DELAY", 4*time.Second),
		LoadMoreDelay:   getDuration("LOAD_MORE_DELAY", time.Second),
		SendOTPDelay:    getDuration("SEND_OTP_DELAY", time.Second),
		VerifyDelay:     getDuration("VERIFY_DELAY", 1500*time.Millisecond),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for correctness
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}

	if c.ReplyMaxDelay < c.ReplyMinDelay {
		return fmt.Errorf("REPLY_MAX_DELAY (%s) must not be less than REPLY_MIN_DELAY (%s)",
			c.ReplyMaxDelay, c.ReplyMinDelay)
	}

	for name, d := range map[string]time.Duration{
		"CREATE_ROOM_DELAY": c.CreateRoomDelay,
		"REPLY_MIN_DELAY":   c.ReplyMinDelay,
		"LOAD_MORE_DELAY":   c.LoadMoreDelay,
		"SEND_OTP_DELAY":    c.SendOTPDelay,
		"VERIFY_DELAY":      c.VerifyDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if c.IsProduction() {
		log.Println("WARNING: this is a local demo store; production deployment keeps state in a single SQLite file")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
