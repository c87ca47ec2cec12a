package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	DatabaseFile string // Path to SQLite database file (default: ./rsvp.db)
	BaseURL      string // Public site origin used in emailed links

	SessionSecret string        // Required in prod: HMAC secret for admin sessions
	SessionIssuer string        // Issuer claim for session tokens (default: rsvp)
	SessionTTL    time.Duration // Admin session lifetime (default: 12h)

	AdminUsername string // Initial admin username (default: admin)
	AdminPassword string // Initial admin password; generated and logged when empty

	RedisAddr     string // Optional: rate limit store; in-memory fallback when unset
	RedisPassword string
	RedisDB       int
	RateLimitOff  bool // Disables rate limiting entirely (dev only)

	DeviceLimit  int
	DeviceWindow time.Duration
	IPLimit      int
	IPWindow     time.Duration
	EmailLimit   int
	EmailWindow  time.Duration

	LinkTokenTTL      time.Duration // Edit link lifetime (default: 14 days)
	LinkRequestLimit  int
	LinkRequestWindow time.Duration

	CaptchaEndpoint string  // Siteverify URL; captcha disabled when secret empty
	CaptchaSecret   string
	CaptchaMinScore float64 // Minimum acceptable score, 0 disables the check

	MailEndpoint string // Provider send URL; email disabled when key empty
	MailAPIKey   string
	MailFrom     string

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired token cleanup interval (default: 1h)
}

func LoadConfig() Config {
	// Local development reads a .env file; missing is fine.
	_ = godotenv.Load()

	return Config{
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		DatabaseFile: getEnvOrDefault("RSVP_DATABASE_FILE", "rsvp.db"),
		BaseURL:      getEnvOrDefault("RSVP_BASE_URL", "http://localhost:8080"),

		SessionSecret: os.Getenv("RSVP_SESSION_SECRET"),
		SessionIssuer: getEnvOrDefault("RSVP_SESSION_ISSUER", "rsvp"),
		SessionTTL:    getEnvDurationOrDefault("RSVP_SESSION_TTL", 12*time.Hour),

		AdminUsername: getEnvOrDefault("RSVP_ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("RSVP_ADMIN_PASSWORD"),

		RedisAddr:     os.Getenv("RSVP_REDIS_ADDR"),
		RedisPassword: os.Getenv("RSVP_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("RSVP_REDIS_DB", 0),
		RateLimitOff:  getEnvOrDefault("RSVP_RATE_LIMIT_OFF", "false") == "true",

		DeviceLimit:  getEnvIntOrDefault("RSVP_LIMIT_DEVICE", 3),
		DeviceWindow: getEnvDurationOrDefault("RSVP_WINDOW_DEVICE", 10*time.Minute),
		IPLimit:      getEnvIntOrDefault("RSVP_LIMIT_IP", 10),
		IPWindow:     getEnvDurationOrDefault("RSVP_WINDOW_IP", 10*time.Minute),
		EmailLimit:   getEnvIntOrDefault("RSVP_LIMIT_EMAIL", 5),
		EmailWindow:  getEnvDurationOrDefault("RSVP_WINDOW_EMAIL", time.Hour),

		LinkTokenTTL:      getEnvDurationOrDefault("RSVP_LINK_TTL", 14*24*time.Hour),
		LinkRequestLimit:  getEnvIntOrDefault("RSVP_LIMIT_LINK_REQUEST", 3),
		LinkRequestWindow: getEnvDurationOrDefault("RSVP_WINDOW_LINK_REQUEST", time.Hour),

		CaptchaEndpoint: getEnvOrDefault("RSVP_CAPTCHA_ENDPOINT",
			"https://challenges.cloudflare.com/turnstile/v0/siteverify"),
		CaptchaSecret:   os.Getenv("RSVP_CAPTCHA_SECRET"),
		CaptchaMinScore: getEnvFloatOrDefault("RSVP_CAPTCHA_MIN_SCORE", 0),

		MailEndpoint: os.Getenv("RSVP_MAIL_ENDPOINT"),
		MailAPIKey:   os.Getenv("RSVP_MAIL_API_KEY"),
		MailFrom:     getEnvOrDefault("RSVP_MAIL_FROM", "rsvp@localhost"),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are treated as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
