package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"stores-api/internal/config"
	apphttp "stores-api/internal/http"
	"stores-api/internal/notifier"
	"stores-api/internal/repository/sqlite"
	"stores-api/internal/revocation"
	"stores-api/internal/service"
	"stores-api/internal/token"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	confirmationRepo := sqlite.NewConfirmationRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := confirmationRepo.Init(ctx); err != nil {
		logger.Fatalf("init confirmation repository: %v", err)
	}

	registry := buildRegistry(ctx, cfg, logger)

	issuer := token.NewIssuer(
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour,
		registry,
	)

	confirmationService := service.NewConfirmationService(
		confirmationRepo,
		time.Duration(cfg.Auth.ConfirmationTTLMinutes)*time.Minute,
	)

	mailer := notifier.NewMailgun(notifier.MailgunConfig{
		Domain:    cfg.Mailgun.Domain,
		APIKey:    cfg.Mailgun.APIKey,
		FromTitle: cfg.Mailgun.FromTitle,
		FromEmail: cfg.Mailgun.FromEmail,
	})

	authService := service.NewAuthService(
		userRepo,
		confirmationService,
		issuer,
		mailer,
		cfg.App.BaseURL,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, confirmationService, issuer)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildRegistry picks where revoked token ids live. With a redis address
// every instance shares the registry; without one a process-local set is
// used, which only holds up for a single-instance deployment.
func buildRegistry(ctx context.Context, cfg config.Config, logger *logrus.Logger) revocation.Registry {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		logger.Infof("using redis revocation registry at %s", cfg.Redis.Addr)
		return revocation.NewRedisRegistry(client)
	}

	logger.Warn("no redis address configured; using in-memory revocation registry (single instance only)")
	registry := revocation.NewMemoryRegistry()
	registry.StartJanitor(ctx, 10*time.Minute)
	return registry
}
