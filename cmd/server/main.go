package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/artchat/artchat/internal/api"
	"github.com/artchat/artchat/internal/config"
	"github.com/artchat/artchat/internal/repository/mongo"
	"github.com/artchat/artchat/internal/repository/postgres"
	"github.com/artchat/artchat/internal/repository/redis"
	"github.com/artchat/artchat/internal/repository/sqlite"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Logging)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("driver", cfg.Database.Driver).
		Msg("Starting artchat server")

	ctx := context.Background()

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer cleanup()

	router := api.NewRouter(cfg, deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// setupLogger configures zerolog. With a log file set, output goes to a
// rotating file; otherwise a console writer on stderr.
func setupLogger(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.File != "" {
		writer, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithRotationTime(cfg.RotationTime),
			rotatelogs.WithMaxAge(cfg.MaxAge),
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open log file, logging to stderr")
		} else {
			out = writer
		}
	}
	log.Logger = log.Output(out)
}

// buildDeps connects the configured backends and returns the router deps
// plus a cleanup function closing them in reverse order.
func buildDeps(ctx context.Context, cfg *config.Config) (api.Deps, func(), error) {
	var deps api.Deps
	var closers []func()

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return deps, cleanup, fmt.Errorf("open sqlite: %w", err)
		}
		closers = append(closers, func() { db.Close() })

		deps.Users = sqlite.NewUserRepository(db)
		deps.Messages = sqlite.NewMessageRepository(db)
		deps.Friends = sqlite.NewFriendRepository(db)
		deps.DB = db

	default:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return deps, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, db.Close)

		deps.Users = postgres.NewUserRepository(db)
		deps.Messages = postgres.NewMessageRepository(db)
		deps.Friends = postgres.NewFriendRepository(db)
		deps.DB = db
	}

	// Redis is optional. Without it the server runs with no rate limiting
	// and no history cache.
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without it")
	} else {
		closers = append(closers, func() { redisClient.Close() })
		deps.Redis = redisClient
	}

	// Optional Mongo archive decorating the message repository.
	if cfg.Mongo.Enabled {
		archive, err := mongo.NewArchive(ctx, cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("Mongo archive unavailable, continuing without it")
		} else {
			closers = append(closers, func() { archive.Close(context.Background()) })
			deps.Messages = mongo.NewArchivingMessageRepository(deps.Messages, archive)
		}
	}

	return deps, cleanup, nil
}
