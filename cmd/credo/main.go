package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/credoauth/credo/internal/application/authflow"
	"github.com/credoauth/credo/internal/application/directory"
	"github.com/credoauth/credo/internal/application/ports"
	"github.com/credoauth/credo/internal/application/resettoken"
	"github.com/credoauth/credo/internal/application/retention"
	"github.com/credoauth/credo/internal/config"
	infraauth "github.com/credoauth/credo/internal/infrastructure/auth"
	httprouter "github.com/credoauth/credo/internal/infrastructure/http"
	"github.com/credoauth/credo/internal/infrastructure/http/handlers"
	"github.com/credoauth/credo/internal/infrastructure/http/middleware"
	"github.com/credoauth/credo/internal/infrastructure/persistence/postgres"
	"github.com/credoauth/credo/internal/infrastructure/persistence/redisstore"
	"github.com/credoauth/credo/internal/infrastructure/queue"
	"github.com/credoauth/credo/internal/infrastructure/security"
	"github.com/credoauth/credo/internal/infrastructure/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DB.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	var redisClient *redis.Client
	var redisOpt *redis.Options
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		} else {
			redisOpt = opt
		}
	}

	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	accountStore := postgres.NewAccountRepository(pool)
	dir := directory.New(accountStore)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()

	// Reset tokens live in redis when available; the postgres store carries
	// deployments without one. Both give the same atomic-consume guarantee.
	var resetStore ports.ResetTokenStore
	if redisClient != nil {
		resetStore = redisstore.NewResetTokenStore(redisClient)
	} else {
		pgTokens := postgres.NewResetTokenRepository(pool)
		resetStore = pgTokens
		go retention.Sweep(sweepCtx, pgTokens, time.Hour, 24*time.Hour, log)
	}
	tokens := resettoken.NewManager(resetStore, time.Duration(cfg.Reset.TokenTTL)*time.Second)

	var mail ports.MailEnqueuer
	var asynqWorker *queue.Worker
	if redisClient != nil {
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq := queue.NewAsynqEnqueuer(asynqOpt, log)
		defer asynqEnq.Close()
		mail = asynqEnq
		asynqWorker = queue.NewWorker(asynqOpt, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		mail = queue.NewNoopEnqueuer()
	}

	// Config overrides apply per knob; unset knobs keep the defaults.
	params := security.DefaultArgon2Params()
	if cfg.Argon2.Memory != 0 {
		params.Memory = cfg.Argon2.Memory
	}
	if cfg.Argon2.Iterations != 0 {
		params.Iterations = cfg.Argon2.Iterations
	}
	if cfg.Argon2.Parallelism != 0 {
		params.Parallelism = cfg.Argon2.Parallelism
	}
	hasher, err := security.NewArgon2Hasher(params)
	if err != nil {
		log.Fatal().Err(err).Msg("create password hasher")
	}

	issuer, err := infraauth.NewTokenIssuer(
		[]byte(cfg.Session.Secret),
		cfg.Session.Issuer,
		cfg.Session.Audience,
		time.Duration(cfg.Session.TTL)*time.Second,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("create token issuer")
	}

	var emitter ports.WebhookEmitter
	if cfg.Webhook.URL != "" {
		opts := []webhook.HTTPEmitterOption{}
		if cfg.Webhook.APIKey != "" {
			opts = append(opts, webhook.WithHeader("X-API-Key", cfg.Webhook.APIKey))
		}
		emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, opts...)
	}

	registerUC := authflow.NewRegister(dir, hasher, issuer)
	loginUC := authflow.NewLogin(dir, hasher, issuer)
	refreshUC := authflow.NewRefresh(dir, issuer)
	forgotUC := authflow.NewForgot(dir, tokens, mail, cfg.Reset.BaseURL)
	resetUC := authflow.NewReset(dir, tokens, hasher, issuer)

	authHandler := handlers.NewAuthHandler(registerUC, loginUC, refreshUC, forgotUC, resetUC, emitter, log)
	requireAuth := middleware.NewAuthValidator(issuer, log).Handler
	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:   authHandler,
		HealthHandler: healthHandler,
		RequireAuth:   requireAuth,
		Log:           log,
		Metrics:       true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
}
