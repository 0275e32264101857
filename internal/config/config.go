// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// BaseURL is the externally reachable address of the web app, used to
	// build invite and password-reset links.
	BaseURL string

	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	SMTP   SMTPConfig
	Stripe StripeConfig

	Bootstrap BootstrapConfig
}

// SMTPConfig configures the outbound mail provider. An empty Host disables
// real delivery and the no-op provider is used instead.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StripeConfig configures the checkout-session gateway. PriceIDs maps
// "<PLAN>_<INTERVAL>" (e.g. "TIER1_MONTHLY") to a provider price id.
type StripeConfig struct {
	SecretKey  string
	APIBase    string
	SuccessURL string
	CancelURL  string
	PriceIDs   map[string]string
}

// BootstrapConfig seeds the platform-level master operator on startup.
type BootstrapConfig struct {
	MasterEmail    string
	MasterPassword string
	MasterName     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	cookieSecure := environment == "production"
	if !cookieSecure {
		cookieSecure = getenvBool("SESSION_COOKIE_SECURE", false)
	}

	return Config{
		AppName:     getenv("APP_SERVICE", "evacdesk"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		BaseURL:     strings.TrimRight(getenv("APP_BASE_URL", "http://localhost:3000"), "/"),

		SessionSecret:       strings.TrimSpace(getenv("SESSION_SECRET", "")),
		SessionTTL:          getenvDuration("SESSION_TTL", 7*24*time.Hour),
		SessionCookieSecure: cookieSecure,

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "evacdesk"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "no-reply@evacdesk.io"),
		},

		Stripe: StripeConfig{
			SecretKey:  strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			APIBase:    strings.TrimRight(getenv("STRIPE_API_BASE", "https://api.stripe.com"), "/"),
			SuccessURL: getenv("STRIPE_SUCCESS_URL", "http://localhost:3000/onboarding/success"),
			CancelURL:  getenv("STRIPE_CANCEL_URL", "http://localhost:3000/onboarding/cancelled"),
			PriceIDs:   loadPriceIDs(),
		},

		Bootstrap: BootstrapConfig{
			MasterEmail:    strings.TrimSpace(getenv("BOOTSTRAP_MASTER_EMAIL", "")),
			MasterPassword: getenv("BOOTSTRAP_MASTER_PASSWORD", ""),
			MasterName:     getenv("BOOTSTRAP_MASTER_NAME", "Platform Operator"),
		},
	}
}

// PriceID resolves the configured provider price id for a plan and billing
// interval. The second return is false when none is configured.
func (c StripeConfig) PriceID(plan, interval string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(plan)) + "_" + strings.ToUpper(strings.TrimSpace(interval))
	id, ok := c.PriceIDs[key]
	return id, ok && id != ""
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func loadPriceIDs() map[string]string {
	ids := map[string]string{}
	for _, plan := range []string{"TIER1", "TIER2", "TIER3", "ENTERPRISE"} {
		for _, interval := range []string{"MONTHLY", "YEARLY"} {
			key := plan + "_" + interval
			if v := strings.TrimSpace(os.Getenv("STRIPE_PRICE_" + key)); v != "" {
				ids[key] = v
			}
		}
	}
	return ids
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
