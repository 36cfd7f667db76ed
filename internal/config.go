package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Storefront base URL (for links in billing emails)
	BaseURL string

	// Bearer token for the admin API. Required outside development.
	AdminAPIToken string

	// Admin API rate limit per client IP
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Redis caches the plan catalog. Empty disables the cache.
	RedisURL     string
	PlanCacheTTL time.Duration

	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Storage Configuration
	StorageProvider string // "local" or "r2"
	DownloadURLTTL  time.Duration

	// Local Storage (development)
	LocalStoragePath string // Base directory for sample files
	LocalStorageURL  string // Base URL the files are served under

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2Endpoint        string // Optional, overrides the account endpoint

	// Worker Configuration
	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerJobTimeout   time.Duration

	// Stripe Billing Configuration
	StripeSecretKey     string // sk_test_... or sk_live_...
	StripeWebhookSecret string // whsec_...

	// Static price to tier map, from STRIPE_PRICE_TIERS
	// ("price_a:starter,price_b:pro"). Prices missing here fall back to the
	// plan catalog.
	PriceTiers billing.PriceTiers

	// Credit prices and per-invoice grants
	CreditPricing domain.CreditPricing
	CreditGrants  domain.CreditGrants

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL:       getEnv("APP_BASE_URL", "http://localhost:3000"),
		AdminAPIToken: getEnv("ADMIN_API_TOKEN", ""),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		RedisURL:     getEnv("REDIS_URL", ""),
		PlanCacheTTL: getEnvDuration("PLAN_CACHE_TTL", 10*time.Minute),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "billing@samplebase.io"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "samplebase"),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		DownloadURLTTL:   getEnvDuration("DOWNLOAD_URL_TTL", 15*time.Minute),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2Endpoint:        getEnv("R2_ENDPOINT", ""),

		// Worker defaults
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", time.Minute),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if !cfg.IsDevelopment() {
		if cfg.AdminAPIToken == "" {
			return nil, fmt.Errorf("ADMIN_API_TOKEN is required when ENV is %q", cfg.Env)
		}
		if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required when ENV is %q", cfg.Env)
		}
	}

	tiers, err := billing.ParsePriceTiers(getEnv("STRIPE_PRICE_TIERS", ""))
	if err != nil {
		return nil, fmt.Errorf("STRIPE_PRICE_TIERS: %w", err)
	}
	for priceID, tier := range tiers {
		if tier != domain.SubscriptionTierStarter && tier != domain.SubscriptionTierPro {
			return nil, fmt.Errorf("STRIPE_PRICE_TIERS: price %s maps to unknown tier %q", priceID, tier)
		}
	}
	cfg.PriceTiers = tiers

	cfg.CreditPricing, err = loadCreditPricing()
	if err != nil {
		return nil, err
	}

	cfg.CreditGrants, err = parseCreditGrants(getEnv("CREDIT_GRANTS", "starter:100,pro:400"))
	if err != nil {
		return nil, fmt.Errorf("CREDIT_GRANTS: %w", err)
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" && cfg.R2Endpoint == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID or R2_ENDPOINT is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	if cfg.RateLimitRequests < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got: %d", cfg.RateLimitRequests)
	}

	return cfg, nil
}

// loadCreditPricing starts from the default table and applies CREDIT_COST_*
// and CREDIT_STEMS_BUNDLE overrides.
func loadCreditPricing() (domain.CreditPricing, error) {
	pricing := domain.DefaultCreditPricing()

	overrides := []struct {
		key   string
		table domain.PriceTable
		typ   domain.SampleType
	}{
		{"CREDIT_COST_STANDARD_ONE_SHOT", pricing.Standard, domain.SampleTypeOneShot},
		{"CREDIT_COST_STANDARD_LOOP", pricing.Standard, domain.SampleTypeLoop},
		{"CREDIT_COST_PREMIUM_ONE_SHOT", pricing.Premium, domain.SampleTypeOneShot},
		{"CREDIT_COST_PREMIUM_LOOP", pricing.Premium, domain.SampleTypeLoop},
	}
	for _, o := range overrides {
		v, err := getEnvPositiveInt(o.key, o.table[o.typ])
		if err != nil {
			return pricing, err
		}
		o.table[o.typ] = v
	}

	stems, err := getEnvPositiveInt("CREDIT_STEMS_BUNDLE", pricing.StemsBundleCost)
	if err != nil {
		return pricing, err
	}
	pricing.StemsBundleCost = stems

	return pricing, nil
}

// parseCreditGrants parses "starter:100,pro:400".
func parseCreditGrants(s string) (domain.CreditGrants, error) {
	grants := make(domain.CreditGrants)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tier, amount, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid grant %q, want tier:credits", pair)
		}
		t := domain.SubscriptionTier(strings.ToLower(strings.TrimSpace(tier)))
		if t != domain.SubscriptionTierStarter && t != domain.SubscriptionTierPro {
			return nil, fmt.Errorf("invalid grant %q: unknown tier", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(amount))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid grant %q: credits must be a non-negative integer", pair)
		}
		grants[t] = n
	}
	return grants, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvPositiveInt rejects a set but invalid value instead of falling back.
func getEnvPositiveInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got: %s", key, value)
	}
	return i, nil
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
