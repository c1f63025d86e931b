package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config is the full runtime configuration, loaded from environment
// variables with an optional .env file for local development.
type Config struct {
	AppEnv string
	Port   int

	PublicBaseURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeBaseURL       string
	CurrencyCode        string

	CartCookieName string
	CartCookieTTL  time.Duration
	UserCookieName string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	CORSAllowedOrigins []string

	CheckoutRateLimit  int64
	CheckoutRatePeriod time.Duration

	RequestBodyLimit int64

	NotifyEmailEnabled bool
	NotifyEmailFrom    string

	LogLevel  string
	LogFormat string

	MetricsBucketsCSV string
	PprofEnabled      bool

	TracingEnabled   bool
	OTLPEndpoint     string
	TraceSampleRatio float64

	// payment client resilience knobs
	PaymentMaxAttempts  int
	PaymentBackoffBase  time.Duration
	PaymentBreakerMin   int
	PaymentBreakerRatio float64
	PaymentBreakerOpen  time.Duration
}

// Load reads configuration from the process environment. A .env file in the
// working directory is merged in when present, real environment variables
// win.
func Load() (Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := Config{
		AppEnv: str(k, "APP_ENV", "development"),
		Port:   k.Int("PORT"),

		PublicBaseURL: str(k, "PUBLIC_BASE_URL", "http://localhost:3000"),

		StripeSecretKey:     k.String("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: k.String("STRIPE_WEBHOOK_SECRET"),
		StripeBaseURL:       k.String("STRIPE_BASE_URL"),
		CurrencyCode:        str(k, "CURRENCY_CODE", "rub"),

		CartCookieName: str(k, "CART_COOKIE_NAME", "irnby_cart"),
		CartCookieTTL:  dur(k, "CART_COOKIE_TTL", 7*24*time.Hour),
		UserCookieName: str(k, "USER_COOKIE_NAME", "irnby_user_session"),
		CookieDomain:   k.String("COOKIE_DOMAIN"),
		CookieSecure:   k.Bool("COOKIE_SECURE"),
		CookieSameSite: parseSameSite(k.String("COOKIE_SAMESITE")),

		CheckoutRateLimit:  i64(k, "CHECKOUT_RATE_LIMIT", 10),
		CheckoutRatePeriod: dur(k, "CHECKOUT_RATE_PERIOD", time.Minute),

		RequestBodyLimit: i64(k, "REQUEST_BODY_LIMIT", 1<<20),

		NotifyEmailEnabled: k.Bool("NOTIFY_EMAIL_ENABLED"),
		NotifyEmailFrom:    str(k, "NOTIFY_EMAIL_FROM", "noreply@irnby.club"),

		LogLevel:  str(k, "LOG_LEVEL", "info"),
		LogFormat: str(k, "LOG_FORMAT", "json"),

		MetricsBucketsCSV: k.String("METRICS_BUCKETS_MS"),
		PprofEnabled:      k.Bool("PPROF_ENABLED"),

		TracingEnabled:   k.Bool("TRACING_ENABLED"),
		OTLPEndpoint:     str(k, "OTLP_ENDPOINT", "localhost:4318"),
		TraceSampleRatio: f64(k, "TRACE_SAMPLE_RATIO", 0.1),

		PaymentMaxAttempts:  intd(k, "PAYMENT_MAX_ATTEMPTS", 3),
		PaymentBackoffBase:  dur(k, "PAYMENT_BACKOFF_BASE", 200*time.Millisecond),
		PaymentBreakerMin:   intd(k, "PAYMENT_BREAKER_MIN_REQUESTS", 5),
		PaymentBreakerRatio: f64(k, "PAYMENT_BREAKER_FAILURE_RATIO", 0.5),
		PaymentBreakerOpen:  dur(k, "PAYMENT_BREAKER_OPEN_FOR", 30*time.Second),
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if raw := k.String("CORS_ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load for main, it panics on invalid configuration.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests returns a configuration suitable for handler tests, with
// payment credentials stubbed and email disabled.
func LoadForTests() Config {
	return Config{
		AppEnv:              "test",
		Port:                0,
		PublicBaseURL:       "http://localhost:3000",
		StripeSecretKey:     "sk_test_stub",
		StripeWebhookSecret: "whsec_test_stub",
		CurrencyCode:        "rub",
		CartCookieName:      "irnby_cart",
		CartCookieTTL:       7 * 24 * time.Hour,
		UserCookieName:      "irnby_user_session",
		CheckoutRateLimit:   1000,
		CheckoutRatePeriod:  time.Minute,
		RequestBodyLimit:    1 << 20,
		LogLevel:            "error",
		LogFormat:           "text",
		PaymentMaxAttempts:  1,
	}
}

func (c Config) validate() error {
	if c.AppEnv == "production" {
		if c.StripeSecretKey == "" {
			return fmt.Errorf("config: STRIPE_SECRET_KEY is required in production")
		}
		if c.StripeWebhookSecret == "" {
			return fmt.Errorf("config: STRIPE_WEBHOOK_SECRET is required in production")
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	return nil
}

// HTTPAddr is the listen address derived from Port.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool { return c.AppEnv == "production" }

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func str(k *koanf.Koanf, key, def string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return def
}

func dur(k *koanf.Koanf, key string, def time.Duration) time.Duration {
	if v := k.String(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// The numeric helpers honor an explicitly set zero, so RATE_LIMIT=0 or
// TRACE_SAMPLE_RATIO=0 means zero, not the default.
func i64(k *koanf.Koanf, key string, def int64) int64 {
	if k.Exists(key) {
		return k.Int64(key)
	}
	return def
}

func intd(k *koanf.Koanf, key string, def int) int {
	if k.Exists(key) {
		return k.Int(key)
	}
	return def
}

func f64(k *koanf.Koanf, key string, def float64) float64 {
	if k.Exists(key) {
		return k.Float64(key)
	}
	return def
}
