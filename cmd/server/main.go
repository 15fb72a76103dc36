package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"booking-service/internal/app"
	"booking-service/internal/booking"
	"booking-service/internal/calendar"
	"booking-service/internal/config"
	"booking-service/internal/ledger"
	"booking-service/internal/logging"
	"booking-service/internal/notify"
	"booking-service/internal/ratelimit"
	"booking-service/internal/server"
	"booking-service/internal/telemetry"
)

const serviceName = "booking-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; using process environment")
	}

	logger := logging.New(serviceName)
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	if cfg.Host.Approximate {
		logger.Warn("timezone database unavailable, using fixed offset for host zone", "host_timezone", cfg.Host.Timezone)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Error("telemetry setup failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	provider, err := calendar.New(ctx, cfg.Google, cfg.Host.Location)
	if err != nil {
		logger.Error("calendar provider init failed", "err", err)
		os.Exit(1)
	}

	checks := map[string]func(context.Context) error{}

	var channels notify.Multi
	if cfg.Telegram.Enabled() {
		channels = append(channels, notify.NewTelegram(cfg.Telegram))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		k := notify.NewKafka(cfg.Kafka)
		defer k.Close()
		channels = append(channels, k)
	}
	var notifier booking.Notifier
	if len(channels) > 0 {
		notifier = channels
	} else {
		logger.Warn("no notification channel configured")
	}

	var recorder booking.Recorder
	var lister app.BookingLister
	if cfg.Database.URL != "" {
		pool, err := ledger.Open(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("database connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		store := ledger.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("database schema failed", "err", err)
			os.Exit(1)
		}
		recorder = store
		lister = store
		checks["db"] = ledger.ReadyCheck(pool)
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimit.PerMinute)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.PerMinute, time.Minute, cfg.RateLimit.Prefix)
		checks["redis"] = ratelimit.ReadyCheck(rdb)
	}

	svc := booking.NewService(booking.Deps{
		Host:     cfg.Host,
		Calendar: provider,
		Notifier: notifier,
		Recorder: recorder,
		Timeout:  cfg.ProviderTimeout,
		Logger:   logger,

		FollowUpTimeout: cfg.FollowUpTimeout,
	})

	gin.SetMode(gin.ReleaseMode)
	router := app.NewRouter(&app.App{
		Booking: svc,
		Ledger:  lister,
		Logger:  logger,
		Checks:  checks,
	}, app.RouterOptions{
		Admin:         cfg.Admin,
		Limiter:       limiter,
		LimitFailOpen: cfg.RateLimit.FailOpen,
		BodyLimit:     cfg.HTTP.BodyLimitBytes,
	})

	var handler http.Handler = router
	if len(cfg.CORS.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", app.RequestIDHeader},
		}).Handler(handler)
	}
	handler = otelhttp.NewHandler(handler, "http.server")

	logger.Info("booking service starting",
		"port", cfg.HTTP.Port,
		"host_timezone", cfg.Host.Timezone,
		"comfort_window", cfg.Host.ComfortStart.String()+"-"+cfg.Host.ComfortEnd.String(),
		"ledger", cfg.Database.URL != "",
		"redis", cfg.Redis.Addr != "",
	)
	runErr := server.Run(ctx, handler, cfg.HTTP, logger)

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.FollowUpTimeout+time.Second)
	defer cancel()
	if err := svc.Wait(drainCtx); err != nil {
		logger.Warn("booking follow-ups still running at exit", "err", err)
	}

	if runErr != nil {
		logger.Error("http server error", "err", runErr)
		os.Exit(1)
	}
}
