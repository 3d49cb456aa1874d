package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/iliyamo/film-catalog/internal/config"     // Internal config loader
	"github.com/iliyamo/film-catalog/internal/database"   // MySQL connection
	"github.com/iliyamo/film-catalog/internal/handler"    // HTTP handlers
	"github.com/iliyamo/film-catalog/internal/logging"    // zerolog setup
	"github.com/iliyamo/film-catalog/internal/queue"      // film event consumer
	"github.com/iliyamo/film-catalog/internal/repository" // stores
	"github.com/iliyamo/film-catalog/internal/router"     // Internal router setup
	"github.com/iliyamo/film-catalog/internal/service"    // film event publisher
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load() // Load environment config
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		films      repository.FilmStore
		categories repository.CategoryStore
		health     handler.Pinger
		db         *sql.DB
	)
	switch cfg.Store {
	case config.StoreMemory:
		mem := repository.NewMemoryStore("Action", "Comedy", "Drama")
		films, categories = mem, mem
		logging.Warn().Msg("using in-memory store; data is lost on exit")
	default:
		var err error
		db, err = database.Open(ctx, cfg.DSN())
		if err != nil {
			logging.Fatal().Err(err).Str("host", cfg.DBHost).Msg("database connection failed")
		}
		defer db.Close()
		films, categories, health = repository.NewFilmRepo(db), repository.NewCategoryRepo(db), db
	}

	events := config.LoadEventsConfig()
	var (
		publisher *service.Publisher
		pub       handler.EventPublisher
	)
	if events.Enabled {
		publisher = service.NewPublisher(events)
		pub = publisher
		if events.Consume {
			go func() {
				if err := queue.StartFilmEventConsumer(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
					logging.Error().Err(err).Msg("film event consumer stopped")
				}
			}()
		}
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := router.New(router.Deps{
		Films:     handler.NewFilmHandler(films, categories, pub),
		Health:    health,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		JWTSecret: cfg.JWTSecret,
	})
	e.Server.ErrorLog = log.New(logging.Writer(), "", 0)

	go func() {
		logging.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Str("store", cfg.Store).
			Bool("auth", cfg.AuthEnabled()).Bool("redis", rdb != nil).Bool("events", events.Enabled).
			Msg("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	if publisher != nil {
		publisher.Wait()
		if err := publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing event publisher")
		}
	}
}
