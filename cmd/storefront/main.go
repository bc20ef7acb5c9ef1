package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/botica-storefront/internal/catalog"
	"github.com/joao-fontenele/botica-storefront/internal/checkout"
	"github.com/joao-fontenele/botica-storefront/internal/config"
	"github.com/joao-fontenele/botica-storefront/internal/domain"
	"github.com/joao-fontenele/botica-storefront/internal/erpsync"
	"github.com/joao-fontenele/botica-storefront/internal/logging"
	"github.com/joao-fontenele/botica-storefront/internal/messaging"
	"github.com/joao-fontenele/botica-storefront/internal/orders"
	"github.com/joao-fontenele/botica-storefront/internal/storefront"
	"github.com/joao-fontenele/botica-storefront/internal/telemetry"
)

const (
	serviceName    = "storefront"
	serviceVersion = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	storeMetrics, err := telemetry.NewStoreMetrics(otel.Meter(serviceName))
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var dispatcher checkout.Dispatcher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderPlacedTopic)
		defer func() { _ = producer.Close() }()
		dispatcher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, order messages will not be dispatched")
	}

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	store := catalog.NewStore(
		catalog.NewRepository(db, cfg.CatalogPageSize),
		domain.CompanyConfig{CompanyName: cfg.DefaultCompanyName, WhatsAppNumber: cfg.DefaultWhatsAppNumber},
		logger,
	)
	store.Load(ctx)

	sessions := storefront.NewSessions(cfg.SessionTTL, storefront.WithObserver(func(delta int) {
		storeMetrics.SessionsChanged(context.Background(), delta)
	}))
	go sessions.RunJanitor(ctx, time.Minute)

	orderRepo := orders.NewOrderRepository(db)
	flow := checkout.NewFlow(orderRepo, dispatcher, storeMetrics, checkout.Messaging{
		BaseURL:        cfg.WhatsAppBaseURL,
		DefaultNumber:  cfg.DefaultWhatsAppNumber,
		DefaultCompany: cfg.DefaultCompanyName,
	}, logger)

	syncer := erpsync.NewClient(cfg.ERPSyncURL, erpsync.Credentials{
		Host:     cfg.ERPHost,
		DB:       cfg.ERPDB,
		Username: cfg.ERPUsername,
		APIKey:   cfg.ERPAPIKey,
	}, httpClient)

	handler := storefront.NewHandler(store, sessions, flow, syncer, logger)
	orderHandler := orders.NewHandler(orderRepo, logger)
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(handler.RequireAdmin(cfg.AdminToken, h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.HandleHealth)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /config", telemetry.WithHTTPRoute(handler.HandleConfig))
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(handler.HandleProducts))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(handler.HandleProduct))
	mux.HandleFunc("GET /categories", telemetry.WithHTTPRoute(handler.HandleCategories))
	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(handler.HandleCart))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(handler.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{key}", telemetry.WithHTTPRoute(handler.HandleUpdateItem))
	mux.HandleFunc("DELETE /cart/items/{key}", telemetry.WithHTTPRoute(handler.HandleRemoveItem))
	mux.HandleFunc("DELETE /cart", telemetry.WithHTTPRoute(handler.HandleClearCart))
	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(orderHandler.HandleListByPhone))
	mux.HandleFunc("GET /admin/orders", admin(orderHandler.HandleList))
	mux.HandleFunc("GET /admin/orders/{id}", admin(orderHandler.HandleGet))
	mux.HandleFunc("PATCH /admin/orders/{id}/status", admin(orderHandler.HandleUpdateStatus))
	mux.HandleFunc("POST /admin/catalog/sync", admin(handler.HandleSync))
	mux.HandleFunc("POST /admin/catalog/reload", admin(handler.HandleReload))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(storefront.RequestLogger(logger, mux), serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
