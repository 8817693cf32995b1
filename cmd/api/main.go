// @title                       ClipCoins API
// @version                     1.0
// @description                 Telegram-linked identities, passwordless sessions and posts.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/clipcoins/clipcoins-api/internal/api"
	"github.com/clipcoins/clipcoins-api/internal/api/handler"
	"github.com/clipcoins/clipcoins-api/internal/core/credential"
	"github.com/clipcoins/clipcoins-api/internal/core/service"
	"github.com/clipcoins/clipcoins-api/internal/core/token"
	mongostore "github.com/clipcoins/clipcoins-api/internal/infrastructure/db/mongo"
	redisstore "github.com/clipcoins/clipcoins-api/internal/infrastructure/db/redis"
	"github.com/clipcoins/clipcoins-api/internal/infrastructure/queue"
	"github.com/clipcoins/clipcoins-api/internal/pkg/config"
	"github.com/clipcoins/clipcoins-api/pkg/logger"
)

const appName = "clipcoins-api"

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: appName,
	})

	if !cfg.IsProduction() {
		displayAppName("clipcoins")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	identityRepo := mongostore.NewIdentityRepository(db)
	postRepo := mongostore.NewPostRepository(db)
	if err := mongostore.EnsureIndexes(ctx, identityRepo, postRepo); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	// --- Session primitives ---
	key := []byte(cfg.Session.JWTSecret)
	if len(key) == 0 {
		key, err = token.GenerateKey()
		if err != nil {
			return err
		}
		log.Warn().Msg("JWT_SECRET not set, using an ephemeral signing key")
	}
	if cfg.Session.Pepper == config.DevPepper {
		log.Warn().Msg("CREDENTIAL_PEPPER not set, using the development pepper")
	}
	issuer, err := token.NewIssuer(key, token.WithTTL(cfg.Session.TokenTTL))
	if err != nil {
		return err
	}

	// --- Credential delivery ---
	outbox := redisstore.NewOutbox(rdb, cfg.Delivery.OutboxKey)
	dispatcher := queue.NewDispatcher(cfg.Delivery.Workers, outbox, logger.Component("dispatcher"))
	// Own lifetime: it drains after the server stops producing deliveries.
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// --- Services ---
	identities := service.NewIdentityService(
		identityRepo,
		credential.NewGenerator(),
		credential.NewHasher(cfg.Session.Pepper),
		issuer,
		dispatcher,
		logger.Component("identity"),
		service.WithCredentialTTL(cfg.Session.CredentialTTL),
	)
	posts := service.NewPostService(postRepo, identityRepo, logger.Component("post"))

	router := api.NewRouter(api.Deps{
		Identities: identities,
		Posts:      posts,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis":   outbox,
		},
		Logger: logger.Component("http"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func displayAppName(name string) {
	figure.NewFigure(name, "cybermedium", true).Print()
	fmt.Println()
}
