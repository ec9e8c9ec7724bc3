package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every runtime setting of the API process.
type Config struct {
	Env      string
	LogLevel string
	Port     int
	Location *time.Location

	DatabaseURL string
	JWTSecret   string

	Redis   RedisConfig
	Minio   MinioConfig
	Mpesa   MpesaConfig
	SMS     SMSConfig
	Queuing QueuingConfig
	Jobs    JobsConfig

	Search SearchConfig
	Plans  *Plans
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinioConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	PharmacyBucket  string
	MedicineBucket  string
	PresignedExpiry time.Duration
}

// MpesaConfig configures the Daraja STK push client.
type MpesaConfig struct {
	Environment       string
	ConsumerKey       string
	ConsumerSecret    string
	BusinessShortCode string
	Passkey           string
	CallbackURL       string
	CallbackToken     string
}

type SMSConfig struct {
	Username string
	APIKey   string
	SenderID string
	BaseURL  string
}

// QueuingConfig contains the asynq worker settings.
type QueuingConfig struct {
	Concurrency     int
	QueuePriorities map[string]int
}

type JobsConfig struct {
	TrendingRefresh    time.Duration
	SubscriptionExpiry time.Duration
	LowStockScan       time.Duration
	TrendingCacheTTL   time.Duration
	CategoriesCacheTTL time.Duration
	PublicRateLimit    string
}

type SearchConfig struct {
	DefaultRadius       float64
	DefaultNearbyRadius float64
	DefaultLimit        int
	MaxLimit            int
}

// Load reads the environment (and a .env file when present) into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Africa/Nairobi"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	plans := DefaultPlans(getEnvInt("FREE_SEARCHES_PER_DAY", 10))
	if path := os.Getenv("PLANS_FILE"); path != "" {
		plans, err = LoadPlansFile(path)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnvInt("PORT", 8080),
		Location:    loc,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:       getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:       getEnv("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:          getEnvBool("MINIO_USE_SSL", false),
			PharmacyBucket:  getEnv("MINIO_PHARMACY_BUCKET", "pharmacy-images"),
			MedicineBucket:  getEnv("MINIO_MEDICINE_BUCKET", "medicine-images"),
			PresignedExpiry: getEnvDuration("MINIO_PRESIGNED_EXPIRY", time.Hour),
		},
		Mpesa: MpesaConfig{
			Environment:       getEnv("MPESA_ENVIRONMENT", "sandbox"),
			ConsumerKey:       os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret:    os.Getenv("MPESA_CONSUMER_SECRET"),
			BusinessShortCode: os.Getenv("MPESA_BUSINESS_SHORT_CODE"),
			Passkey:           os.Getenv("MPESA_PASSKEY"),
			CallbackURL:       os.Getenv("MPESA_CALLBACK_URL"),
			CallbackToken:     os.Getenv("MPESA_CALLBACK_TOKEN"),
		},
		SMS: SMSConfig{
			Username: getEnv("SMS_USERNAME", "sandbox"),
			APIKey:   os.Getenv("SMS_API_KEY"),
			SenderID: os.Getenv("SMS_SENDER_ID"),
			BaseURL:  getEnv("SMS_BASE_URL", "https://api.africastalking.com"),
		},
		Queuing: QueuingConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
			QueuePriorities: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
		Jobs: JobsConfig{
			TrendingRefresh:    getEnvDuration("TRENDING_REFRESH_INTERVAL", 5*time.Minute),
			SubscriptionExpiry: getEnvDuration("SUBSCRIPTION_EXPIRY_INTERVAL", time.Hour),
			LowStockScan:       getEnvDuration("LOW_STOCK_SCAN_INTERVAL", 30*time.Minute),
			TrendingCacheTTL:   getEnvDuration("TRENDING_CACHE_TTL", 10*time.Minute),
			CategoriesCacheTTL: getEnvDuration("CATEGORIES_CACHE_TTL", time.Hour),
			PublicRateLimit:    getEnv("PUBLIC_RATE_LIMIT", "120-M"),
		},
		Search: SearchConfig{
			DefaultRadius:       float64(getEnvInt("SEARCH_DEFAULT_RADIUS", 20000)),
			DefaultNearbyRadius: float64(getEnvInt("NEARBY_DEFAULT_RADIUS", 10000)),
			DefaultLimit:        getEnvInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:            getEnvInt("SEARCH_MAX_LIMIT", 100),
		},
		Plans: plans,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.JWTSecret == "" && c.Env != "development" {
		return fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", c.Env)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("invalid search limits: default=%d max=%d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Mpesa.Environment != "sandbox" && c.Mpesa.Environment != "production" {
		return fmt.Errorf("MPESA_ENVIRONMENT must be sandbox or production, got %q", c.Mpesa.Environment)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true") || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring malformed duration")
	}
	return defaultValue
}
