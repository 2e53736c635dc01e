// @title           Account API
// @version         1.0
// @description     Account identity and credential management.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/account-system/internal/api"
	"github.com/99minutos/account-system/internal/core/ports"
	"github.com/99minutos/account-system/internal/core/service"
	"github.com/99minutos/account-system/internal/infrastructure/config"
	"github.com/99minutos/account-system/internal/infrastructure/crypto"
	mongostore "github.com/99minutos/account-system/internal/infrastructure/db/mongo"
	"github.com/99minutos/account-system/internal/infrastructure/db/postgres"
	"github.com/99minutos/account-system/internal/infrastructure/db/redis"
	"github.com/99minutos/account-system/internal/infrastructure/http/handlers"
	"github.com/99minutos/account-system/internal/infrastructure/notify"
	"github.com/99minutos/account-system/internal/infrastructure/queue"
	"github.com/99minutos/account-system/internal/infrastructure/telemetry"
	"github.com/99minutos/account-system/internal/infrastructure/token"
	"github.com/99minutos/account-system/pkg/logger"
)

const (
	serviceName     = "account-api"
	shutdownTimeout = 10 * time.Second
)

// accountStore is what the process needs from either store driver.
type accountStore interface {
	ports.AccountStore
	Ping(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, serviceName)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// --- Account store ---
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	readiness := map[string]handlers.PingFunc{cfg.Store.Driver: store.Ping}

	// --- Notifications ---
	var claimer queue.Claimer
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TLS:      cfg.Redis.TLS,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, notification dedup disabled")
	} else {
		defer rdb.Close()
		claimer = redis.NewNotificationClaimer(rdb, cfg.Notify.DedupTTL)
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	sink, err := newSink(cfg, log)
	if err != nil {
		return err
	}
	dispatcher := queue.NewDispatcher(queue.Config{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
		Timeout:   cfg.Notify.Timeout,
	}, sink, claimer, log.With().Str("component", "notify").Logger())
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// --- Core ---
	hasher := crypto.NewBcryptHasher(cfg.BcryptCost)
	tokens := token.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	guard := service.NewOwnershipGuard(store, log)
	accounts := service.NewAccountService(store, hasher, guard, dispatcher, cfg.Notify.AdminEmail, log,
		service.WithAdminLogins(cfg.AdminLogins...))
	auth, err := service.NewAuthService(store.Credentials(), hasher, tokens, log)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Accounts:  accounts,
		Auth:      auth,
		Tokens:    tokens,
		Readiness: readiness,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (accountStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Postgres.DSN, Timeout: cfg.Store.Timeout})
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info().Msg("postgres store ready")
		return postgres.NewStore(db), func() { _ = db.Close() }, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			ReplicaSet: cfg.Mongo.ReplicaSet,
			AppName:    serviceName,
			Timeout:    cfg.Store.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		store := mongostore.NewStore(client, db, cfg.Store.Timeout)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	}
}

func newSink(cfg *config.Config, log zerolog.Logger) (ports.NotificationSink, error) {
	switch cfg.Notify.Driver {
	case config.NotifySMTP:
		return notify.NewSMTPSink(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	case config.NotifyWebhook:
		return notify.NewWebhookSink(cfg.Notify.WebhookURL, &http.Client{Timeout: cfg.Notify.Timeout})
	default:
		return notify.NewLogSink(log.With().Str("component", "notify").Logger()), nil
	}
}
