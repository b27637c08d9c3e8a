package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           string
	DBConn         string
	LogLevel       string
	JWTSecret      string
	CBRURL         string
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SenderEmail    string
	DigestSchedule string
	ForecastMonths int
	CacheMaxCost   int64
	CORSOrigins    []string
	RateSource     string
	RateMargin     float64
}

// NewConfig loads configuration from a .env file, when present, and environment variables
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBConn:         getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=finance sslmode=disable"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		CBRURL:         getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SenderEmail:    getEnv("SENDER_EMAIL", "insights@localhost"),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 8 * * *"),
		RateSource:     getEnv("RATE_SOURCE", "Bank of Russia key rate"),
	}

	months, err := strconv.Atoi(getEnv("FORECAST_MONTHS", "6"))
	if err != nil || months < 1 || months > 24 {
		return nil, fmt.Errorf("FORECAST_MONTHS must be between 1 and 24")
	}
	cfg.ForecastMonths = months

	maxCost, err := strconv.ParseInt(getEnv("CACHE_MAX_COST", "10000"), 10, 64)
	if err != nil || maxCost <= 0 {
		return nil, fmt.Errorf("CACHE_MAX_COST must be a positive integer")
	}
	cfg.CacheMaxCost = maxCost

	margin, err := strconv.ParseFloat(getEnv("RATE_MARGIN", "5"), 64)
	if err != nil || margin < 0 {
		return nil, fmt.Errorf("RATE_MARGIN must be a non-negative number")
	}
	cfg.RateMargin = margin

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DigestSchedule == "" {
		return nil, fmt.Errorf("DIGEST_SCHEDULE is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
