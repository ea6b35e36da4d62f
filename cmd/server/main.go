package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/database"
	"github.com/sylvester-francis/atcc-interview-test/internal/handler"
	"github.com/sylvester-francis/atcc-interview-test/internal/logging"
	"github.com/sylvester-francis/atcc-interview-test/internal/mailer"
	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
	"github.com/sylvester-francis/atcc-interview-test/internal/queue"
	"github.com/sylvester-francis/atcc-interview-test/internal/ratelimit"
	"github.com/sylvester-francis/atcc-interview-test/internal/repository"
	"github.com/sylvester-francis/atcc-interview-test/internal/router"
	"github.com/sylvester-francis/atcc-interview-test/internal/service"
	"github.com/sylvester-francis/atcc-interview-test/internal/session"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

const purgeTokensEvery = time.Hour

func main() {
	cfg := config.Load() // Load environment config
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database: connect")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("database: migrate")
	}

	rdb, err := config.NewRedisClient(ctx)
	switch {
	case err != nil && cfg.IsProduction():
		log.Fatal().Err(err).Msg("redis unreachable; refusing to run production on in-memory stores")
	case err != nil:
		log.Warn().Err(err).Msg("redis unreachable; using in-memory sessions and rate limits")
	default:
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	blogs := repository.NewBlogRepo(db)
	events := repository.NewEventRepo(db)
	businesses := repository.NewBusinessRepo(db)
	tokens := repository.NewTokenRepo(db)

	sessions := session.NewManager(sessionStore(rdb), session.Options{
		CookieName: cfg.SessionCookieName,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProduction(),
		Secret:     cfg.SessionSecret,
	})
	limits := config.LoadRateLimitConfig()
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	publisher := service.NewPublisher(cfg.AMQPURL)
	smtp := mailer.NewSMTP(cfg.SMTP)

	if cfg.NotifyConsumer {
		go func() {
			if err := queue.StartNotificationConsumer(ctx, cfg.AMQPURL, mailer.Deliver(smtp)); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
	}
	go purgeResetTokens(ctx, tokens)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = view.ErrorHandler
	router.RegisterRoutes(e, router.Deps{
		Production:     cfg.IsProduction(),
		SetupAllowed:   cfg.SetupAllowed(),
		TrustedProxies: cfg.TrustedProxies,
		Sessions:       sessions,
		Users:          users,
		Limits:         middleware.NewRateLimits(limits, rateLimiter(rdb, limits.Prefix)),
		Cache:          cache,
		Auth:           handler.NewAuthHandler(cfg, users, tokens, sessions, publisher),
		Blog:           handler.NewBlogHandler(blogs, cache),
		Admin:          handler.NewAdminHandler(users, blogs, events, businesses),
		Events:         handler.NewEventHandler(events, cache),
		Directory:      handler.NewDirectoryHandler(businesses, cache),
		Contact:        handler.NewContactHandler(cfg.ContactRecipient, publisher, smtp),
		Setup:          handler.NewSetupHandler(cfg, users, businesses, cache),
	})
	if cfg.SetupAllowed() {
		log.Warn().Msg("setup routes are mounted")
	}

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func sessionStore(rdb *redis.Client) session.Store {
	if rdb == nil {
		return session.NewMemoryStore()
	}
	return session.NewRedisStore(rdb)
}

func rateLimiter(rdb *redis.Client, prefix string) ratelimit.Limiter {
	if rdb == nil {
		return ratelimit.NewMemory()
	}
	return ratelimit.NewRedis(rdb, prefix)
}

// purgeResetTokens deletes expired password reset rows once an hour.
func purgeResetTokens(ctx context.Context, tokens *repository.TokenRepo) {
	t := time.NewTicker(purgeTokensEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := tokens.PurgeExpired(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("purge reset tokens")
				continue
			}
			if n > 0 {
				log.Info().Int64("rows", n).Msg("purged expired reset tokens")
			}
		}
	}
}
