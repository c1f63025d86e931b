package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-irnby/internal/cart"
	"github.com/noah-isme/backend-irnby/internal/catalog"
	"github.com/noah-isme/backend-irnby/internal/checkout"
	"github.com/noah-isme/backend-irnby/internal/common"
	"github.com/noah-isme/backend-irnby/internal/config"
	"github.com/noah-isme/backend-irnby/internal/health"
	"github.com/noah-isme/backend-irnby/internal/notify"
	"github.com/noah-isme/backend-irnby/internal/obs"
	"github.com/noah-isme/backend-irnby/internal/order"
	"github.com/noah-isme/backend-irnby/internal/payment"
	"github.com/noah-isme/backend-irnby/internal/ratelimit"
	"github.com/noah-isme/backend-irnby/internal/resilience"
	"github.com/noah-isme/backend-irnby/internal/security"
	"github.com/noah-isme/backend-irnby/internal/session"
)

const metricsNamespace = "irnby"

func main() {
	cfg := config.MustLoad()
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(metricsNamespace, prometheus.DefaultRegisterer)
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsCSV), prometheus.DefaultRegisterer)

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "backend-irnby",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TraceSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("init tracer")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("tracer shutdown")
			}
		}()
	}

	// payment provider with tracing, retries and a circuit breaker on the
	// outbound gateway calls
	breaker := resilience.NewBreaker(cfg.PaymentBreakerMin, cfg.PaymentBreakerRatio, cfg.PaymentBreakerOpen).
		WithTarget("stripe").
		WithLogger(logger)
	paymentHTTP := resilience.NewHTTPClient(
		&http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker,
		cfg.PaymentMaxAttempts,
		cfg.PaymentBackoffBase,
		0.2,
	)
	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeBaseURL, paymentHTTP)

	var mail common.EmailSender = common.NopEmailSender{}
	if !cfg.IsProduction() {
		mail = &notify.LogEmailSender{Logger: logger}
	}
	emailNotifier := &notify.EmailNotifier{
		Mail:    mail,
		Enabled: cfg.NotifyEmailEnabled,
		From:    cfg.NotifyEmailFrom,
	}

	orders := order.NewService(emailNotifier)

	cartStore := cart.CookieStore{
		Name:     cfg.CartCookieName,
		TTL:      cfg.CartCookieTTL,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}
	cartHandler := &cart.Handler{Store: cartStore, Svc: cart.NewService(nil), Logger: logger}

	catalogHandler := &catalog.Handler{Svc: catalog.Service{}}
	checkoutSvc := checkout.NewService(provider, cfg.PublicBaseURL, cfg.CurrencyCode, nil)
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Logger: logger}
	webhookHandler := &payment.WebhookHandler{Provider: provider, Orders: orders, Logger: logger}
	orderHandler := &order.Handler{Svc: orders}
	sessionHandler := session.NewHandler(&session.CookieStore{
		Name:     cfg.UserCookieName,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}, logger)

	healthHandler := &health.Handler{Checks: []health.Checker{
		{Name: "payment", Check: func() error {
			if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
				return errors.New("payment provider credentials missing")
			}
			return nil
		}},
	}}

	checkoutLimit := ratelimit.New(cfg.CheckoutRateLimit, cfg.CheckoutRatePeriod, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers)
	r.Use(security.BodyLimit(cfg.RequestBodyLimit))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	if cfg.PprofEnabled {
		r.Mount("/debug", middleware.Profiler())
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/courses", catalogHandler.Courses)
		r.Get("/courses/{courseId}", catalogHandler.CourseDetail)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{courseId}", cartHandler.UpdateItem)
			r.Delete("/items/{courseId}", cartHandler.RemoveItem)
		})

		r.With(checkoutLimit.Middleware).Post("/checkout/session", checkoutHandler.CreateSession)
		r.Post("/webhooks/stripe", webhookHandler.Handle)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", sessionHandler.Login)
			r.Post("/register", sessionHandler.Register)
			r.Post("/logout", sessionHandler.Logout)
			r.Get("/me", sessionHandler.Me)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", sessionHandler.Wishlist)
			r.Post("/{courseId}", sessionHandler.WishlistAdd)
			r.Delete("/{courseId}", sessionHandler.WishlistRemove)
		})

		r.Get("/orders", orderHandler.List)
		r.Get("/orders/history", sessionHandler.History)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
