package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	SupabaseURL        string
	SupabaseServiceKey string

	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	HumeAPIKey    string
	HumeSecretKey string
	HumeBaseURL   string

	GeoIPDBPath   string
	DefaultLocale string

	DailyCreditQuota int
	VoiceSessionCost int
	ChatCreditCost   int
	ResetInterval    time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),

		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		HumeAPIKey:    os.Getenv("HUME_API_KEY"),
		HumeSecretKey: os.Getenv("HUME_SECRET_KEY"),
		HumeBaseURL:   getEnv("HUME_BASE_URL", "https://api.hume.ai"),

		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		DailyCreditQuota: getEnvInt("DAILY_CREDIT_QUOTA", 8),
		VoiceSessionCost: getEnvInt("VOICE_SESSION_COST", 5),
		ChatCreditCost:   getEnvInt("CHAT_CREDIT_COST", 1),
		ResetInterval:    time.Minute * time.Duration(getEnvInt("RESET_INTERVAL_MINUTES", 60)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.DailyCreditQuota < 0 || cfg.VoiceSessionCost < 0 || cfg.ChatCreditCost < 0 {
		return nil, fmt.Errorf("credit quotas and costs must be non-negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
