package config

import (
	"os"
	"strconv"
)

// SMTPSettings holds the outbound mail configuration. The mailer is disabled
// when Host or From is empty.
type SMTPSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s SMTPSettings) Enabled() bool {
	return s.Host != "" && s.Port != "" && s.From != ""
}

// Settings is the process configuration, read once from the environment and
// injected into services at construction.
type Settings struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	GeoapifyAPIKey  string
	GeoapifyBaseURL string

	RedisAddr     string
	RedisPassword string

	ReportDailyLimit int
	AllowedOrigins   []string

	SMTP SMTPSettings
}

// Load reads settings from the environment. Missing optional values fall back
// to sane defaults; required values are validated where they are first used.
func Load() Settings {
	return Settings{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "civicpulse"),
		JWTSecret:     os.Getenv("JWT_SECRET"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		GeoapifyAPIKey:  os.Getenv("GEOAPIFY_API_KEY"),
		GeoapifyBaseURL: getEnv("GEOAPIFY_BASE_URL", "https://api.geoapify.com"),

		RedisAddr:     os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ReportDailyLimit: getEnvInt("REPORT_DAILY_LIMIT", 20),
		AllowedOrigins:   []string{getEnv("CLIENT_ORIGIN", "http://localhost:3000")},

		SMTP: SMTPSettings{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("FROM_EMAIL"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
