package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-service/checkout"
	"checkout-service/clients"
	"checkout-service/config"
	"checkout-service/coupon"
	"checkout-service/gateway"
	"checkout-service/handlers"
	"checkout-service/logging"
	"checkout-service/models"
	"checkout-service/pricing"
	"checkout-service/rabbitmq"
	"checkout-service/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "checkout-service"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logging.New(cfg.LogLevel)
	log.WithField("port", cfg.Port).Info("Starting Checkout Service")

	// Set Gin mode
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EnableTracing {
		shutdown, err := initTracing()
		if err != nil {
			log.WithError(err).Fatal("Failed to initialise tracing")
		}
		defer shutdown()
	}

	// Success records: Redis when configured, otherwise in memory
	var successStore checkout.SuccessStore
	if cfg.RedisURL != "" {
		redisStore, err := storage.NewRedisSuccessStore(ctx, cfg.RedisURL, cfg.SuccessRecordTTL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisStore.Close()
		successStore = redisStore
	} else {
		log.Warn("REDIS_URL not set, order success records are kept in memory")
		successStore = storage.NewMemorySuccessStore()
	}

	// Order events are optional
	var events checkout.EventPublisher
	if cfg.RabbitMQURL != "" {
		channelPool, err := rabbitmq.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.ChannelPoolSize, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create RabbitMQ channel pool")
		}
		defer channelPool.Close()
		events = rabbitmq.NewPublisher(channelPool, cfg.RabbitMQQueue, log)
	}

	httpClient := clients.NewHTTPClient(cfg.HTTPTimeout)
	pricingClient := clients.NewPricingClient(cfg.PricingServiceURL, httpClient)
	couponClient := clients.NewCouponClient(cfg.CouponServiceURL, httpClient)
	orderClient := clients.NewOrderClient(cfg.OrderServiceURL, httpClient)

	hosted := gateway.NewHosted(cfg.GatewayTimeout, log)

	svc := checkout.NewService(
		pricing.NewResolver(pricingClient, pricing.Options{
			ColorSuffixes: cfg.ColorSuffixes,
			MaxAttempts:   cfg.PricingMaxAttempts,
			RetryBackoff:  cfg.PricingRetryBackoff,
		}, log),
		coupon.NewResolver(couponClient, log),
		orderClient,
		hosted,
		successStore,
		events,
		checkout.Options{
			Rules: models.ShippingRules{
				FreeThreshold: cfg.FreeShippingThreshold,
				Fee:           cfg.ShippingFee,
			},
			StoreName: cfg.StoreName,
		},
		log,
	)

	router := handlers.NewRouter(svc, checkout.NewSessions(), hosted, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

// initTracing installs a tracer provider exporting spans to stdout.
func initTracing() (func(), error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}, nil
}
