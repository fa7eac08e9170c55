// Command server runs the storefront identity API.
//
//	@title						Storefront Identity API
//	@version					1.0
//	@description				Accounts, sessions and Google sign-in for the storefront.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
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

	"golang.org/x/sync/errgroup"

	"github.com/storefront/identity/internal/api"
	"github.com/storefront/identity/internal/core/service"
	mongodb "github.com/storefront/identity/internal/infrastructure/db/mongo"
	redisdb "github.com/storefront/identity/internal/infrastructure/db/redis"
	"github.com/storefront/identity/internal/infrastructure/http/handlers"
	"github.com/storefront/identity/internal/infrastructure/queue"
	s3store "github.com/storefront/identity/internal/infrastructure/storage/s3"
	"github.com/storefront/identity/internal/pkg/config"
	"github.com/storefront/identity/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "identity: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "identity",
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	tokens := service.NewTokenManager(cfg.JWTSecret)

	events := queue.NewDispatcher(
		cfg.AuditWorkers,
		service.NewAuthEventService(mongodb.NewAuthEventRepository(db), logger.Component("audit")),
		logger.Component("dispatcher"),
	)

	opts := []service.AuthOption{
		service.WithLoginThrottle(redisdb.NewLoginThrottle(rdb)),
		service.WithEventRecorder(events),
	}
	if cfg.Avatar.Bucket != "" {
		s3cfg := s3store.Config{
			Bucket:          cfg.Avatar.Bucket,
			Region:          cfg.Avatar.Region,
			Endpoint:        cfg.Avatar.Endpoint,
			AccessKeyID:     cfg.Avatar.AccessKeyID,
			SecretAccessKey: cfg.Avatar.SecretAccessKey,
			PublicBaseURL:   cfg.Avatar.PublicBaseURL,
		}
		opts = append(opts, service.WithAvatarStore(s3store.NewAvatarStore(s3store.NewClient(s3cfg), s3cfg)))
	} else {
		log.Warn().Msg("AVATAR_BUCKET not set, avatar uploads disabled")
	}

	authService := service.NewAuthService(users, tokens, cfg.TokenTTL, logger.Component("auth"), opts...)
	resolver := service.NewIdentityResolver(users, tokens, cfg.GoogleTokenTTL, events, logger.Component("identity_resolver"))

	e := api.NewRouter(api.Deps{
		Auth:     authService,
		Resolver: resolver,
		Events:   events,
		Checks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		SecureCookie: !cfg.IsDevelopment(),
		Log:          logger.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events.Start(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("identity server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})

	return g.Wait()
}
