package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port  string
	GoEnv string

	MongoURI string
	MongoDB  string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddress    string
	RedisPassword   string
	IssueDailyLimit int
	IssueLimitQueue string

	StripeSecretKey     string
	StripeWebhookSecret string
	SiteDomain          string
	CORSOrigins         []string

	S3Bucket        string
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	SESRegion string
	SESSender string
}

func (c *Config) Production() bool { return c.GoEnv == "production" }

func (c *Config) RedisEnabled() bool    { return c.RedisAddress != "" }
func (c *Config) StripeEnabled() bool   { return c.StripeSecretKey != "" }
func (c *Config) UploadsEnabled() bool  { return c.S3Bucket != "" }
func (c *Config) NotifierEnabled() bool { return c.SESSender != "" }

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the process environment. Call godotenv first to pick up .env.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getenv("PORT", "8080"),
		GoEnv:               getenv("GO_ENV", "development"),
		MongoURI:            getenv("MONGODB_URI", ""),
		MongoDB:             getenv("MONGODB_DB", "city-fix-db"),
		JWTSecret:           getenv("JWT_SECRET", ""),
		RedisAddress:        getenv("REDIS_ADDRESS", ""),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		IssueLimitQueue:     getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue-limit"),
		StripeSecretKey:     getenv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getenv("STRIPE_WEBHOOK_SECRET", ""),
		SiteDomain:          getenv("SITE_DOMAIN", "http://localhost:5173"),
		S3Bucket:            getenv("S3_BUCKET", ""),
		S3Endpoint:          getenv("S3_ENDPOINT", ""),
		S3Region:            getenv("S3_REGION", "auto"),
		S3AccessKey:         getenv("S3_ACCESS_KEY", ""),
		S3SecretKey:         getenv("S3_SECRET_KEY", ""),
		S3PublicBaseURL:     getenv("S3_PUBLIC_BASE_URL", ""),
		SESRegion:           getenv("SES_REGION", "us-east-1"),
		SESSender:           getenv("SES_SENDER", ""),
	}

	var missing []string
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "72h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	limit, err := strconv.Atoi(getenv("ISSUE_DAILY_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("ISSUE_DAILY_LIMIT: %w", err)
	}
	if limit < 1 {
		return nil, errors.New("ISSUE_DAILY_LIMIT must be positive")
	}
	cfg.IssueDailyLimit = limit

	for _, origin := range strings.Split(getenv("CORS_ORIGINS", cfg.SiteDomain), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	return cfg, nil
}
