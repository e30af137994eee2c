package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-notify-api/internal/application/notification"
	"github.com/go-notify-api/internal/application/verification"
	"github.com/go-notify-api/internal/config"
	"github.com/go-notify-api/internal/i18n"
	"github.com/go-notify-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-notify-api/internal/infrastructure/jwt"
	"github.com/go-notify-api/internal/infrastructure/memory"
	"github.com/go-notify-api/internal/infrastructure/smtp"
	"github.com/go-notify-api/internal/infrastructure/sns"
	"github.com/go-notify-api/internal/logging"
	"github.com/go-notify-api/internal/metrics"
	transporthttp "github.com/go-notify-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	if err := run(cfg, logger); err != nil {
		slog.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()
	m := metrics.New()

	catalog, err := i18n.NewCatalog(cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("load message catalog: %w", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	var tokens verification.TokenStore
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		slog.Warn("verification tokens are kept in memory and lost on restart")
		tokens = memory.NewTokenStore()
	default:
		tokens = dynamo.NewVerificationTokenRepo(dynamoClient, cfg.DynamoTables.VerificationTokens)
	}
	contacts := dynamo.NewContactDetailsRepo(dynamoClient, cfg.DynamoTables.ContactDetails)
	users := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)

	// JWT provider (optional: protected routes answer 401 without it).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		slog.Warn("JWT provider not available", "err", err)
	}

	mailer := smtp.NewMailer(cfg)
	handlers := notification.Handlers{notification.EmailSendNowDestination: mailer}
	if awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg, cfg.SNSRegion); err == nil {
		handlers[notification.SMSSendNowDestination] = sns.NewSender(awsCfg)
	} else {
		slog.Warn("SNS sender not available", "err", err)
	}

	dispatcher := notification.NewDispatcher(ctx, cfg.DispatchWorkers, cfg.DispatchQueueSize, logger, m)
	defer dispatcher.Close()

	notifier := notification.NewEmailVerificationNotifier(notification.NotifierDeps{
		Tokens:    verification.NewManager(tokens, m),
		Directory: users,
		Composer:  notification.NewComposer(catalog),
		Email:     mailer,
		Scheduler: dispatcher,
		BaseURL:   cfg.BaseURL,
		Logger:    logger,
		Metrics:   m,
	})

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Verifications: verification.NewService(verification.ServiceDeps{
			Tokens:   tokens,
			Contacts: contacts,
			Notifier: notifier,
			Logger:   logger,
		}),
		Notifications: notification.NewSender(notification.SenderDeps{
			Contacts:  contacts,
			Handlers:  handlers,
			Scheduler: dispatcher,
			Logger:    logger,
			Metrics:   m,
		}),
		JWTProvider: jwtProvider,
		Metrics:     m,
		MatchLocale: catalog.Match,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "token_store", cfg.TokenStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	// Deferred dispatcher.Close drains scheduled notifications.
	slog.Info("server stopped")
	return nil
}
