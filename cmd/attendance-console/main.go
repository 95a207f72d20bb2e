package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oktel/attendance-report/internal/botclient"
	"github.com/oktel/attendance-report/internal/console"
	"github.com/oktel/attendance-report/internal/handler"
	"github.com/oktel/attendance-report/internal/i18n"
	"github.com/oktel/attendance-report/internal/mattermost"
	internalmiddleware "github.com/oktel/attendance-report/internal/middleware"
	"github.com/oktel/attendance-report/internal/reportview"
	"github.com/oktel/attendance-report/internal/service"
	"github.com/oktel/attendance-report/pkg/config"
	"github.com/oktel/attendance-report/pkg/logger"
	reqidmiddleware "github.com/oktel/attendance-report/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "attendance-console")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService("attendance_console")

	// validates the caller's session token; bot-service calls forward it
	auth := service.NewAuthService(service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.Expiration,
	})

	bot, err := botclient.New(botclient.Config{
		BaseURL: cfg.Console.BotServiceURL,
		Timeout: cfg.Console.RequestTimeout,
		Tokens:  botclient.CallerToken{},
		Metrics: metrics,
		Logger:  logr,
	})
	if err != nil {
		logr.Fatal("invalid bot service url", zap.Error(err))
	}
	teams := mattermost.NewClient(cfg.Console.MattermostURL, cfg.Console.MattermostToken, cfg.Console.RequestTimeout, metrics, logr)

	translator, err := i18n.New(cfg.Console.Locale)
	if err != nil {
		logr.Fatal("failed to load translations", zap.Error(err))
	}

	registry := console.NewRegistry(console.RegistryConfig{
		Fetcher:         bot,
		Teams:           teams,
		Uploader:        bot,
		Translator:      translator,
		Metrics:         metrics,
		Logger:          logr,
		Locale:          cfg.Console.Locale,
		TTL:             cfg.Console.SessionTTL,
		MaxSessions:     cfg.Console.MaxSessions,
		SearchDebounce:  cfg.Console.SearchDebounce,
		TeamsPerPage:    cfg.Console.TeamsPerPage,
		UploadChannelID: cfg.Console.UploadChannelID,
	})
	defer registry.Close()
	go registry.Run(ctx, time.Minute)

	metricsHandler := handler.NewMetricsHandler(metrics, nil)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/healthz", "/metrics", "/attendance/state"))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/healthz", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	pages := console.NewHandler(console.HandlerConfig{
		Registry:     registry,
		Auth:         auth,
		AuthCookie:   cfg.Console.AuthCookie,
		AllowedRoles: cfg.Console.AllowedRoles,
		Translator:   translator,
		Theme:        reportview.DefaultTheme(),
		Logger:       logr,
		SecureCookie: cfg.Env == config.EnvProduction,
		ReloadAfter:  cfg.Console.SearchDebounce,
	})
	if err := pages.Register(r); err != nil {
		logr.Fatal("failed to load console templates", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Console.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("console starting", "addr", srv.Addr, "bot_service", cfg.Console.BotServiceURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("console server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
