package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-records-api/internal/config"
	"github.com/harentsoaR/clinic-records-api/internal/handlers"
	"github.com/harentsoaR/clinic-records-api/internal/middleware"
	"github.com/harentsoaR/clinic-records-api/internal/monitoring"
	"github.com/harentsoaR/clinic-records-api/internal/store"
	"github.com/harentsoaR/clinic-records-api/internal/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		"port", cfg.Port,
		"mongo_database", cfg.MongoDatabase,
		"environment", cfg.Environment,
		"sentry", cfg.SentryDSN != "",
	)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "clinic-records-api@" + os.Getenv("APP_VERSION"),
			TracesSampleRate: 0.2,
		})
		if err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := monitoring.Register(reg); err != nil {
		return err
	}

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetTimeout(cfg.MongoTimeout).
		SetMonitor(monitoring.CommandMonitor())
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return err
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Error("mongodb disconnect failed", "error", err)
		}
	}()

	db := store.New(client.Database(cfg.MongoDatabase))
	if err := db.Ping(ctx); err != nil {
		return err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	logger.Info("connected to mongodb")

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	h := handlers.NewHandler(db, tokens, logger)

	// --- Gin Router ---
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.PrometheusMetrics(),
		middleware.Sentry(),
	)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           5 * time.Minute,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Health Information System API is running")
	})
	r.GET("/metrics", gin.WrapH(monitoring.Handler(reg)))
	h.Register(r.Group("/api"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
