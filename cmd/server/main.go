package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avlahov/forum-api/internal/config"
	"github.com/avlahov/forum-api/internal/server"
	"github.com/avlahov/forum-api/internal/server/access"
	"github.com/avlahov/forum-api/internal/server/handlers"
	"github.com/avlahov/forum-api/internal/server/storage"
	"github.com/avlahov/forum-api/internal/server/storage/boltdb"
	"github.com/avlahov/forum-api/internal/server/storage/sqlite"
	"github.com/avlahov/forum-api/internal/server/token"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info("starting forum server",
		slog.String("version", Version),
		slog.String("addr", cfg.Addr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	blacklist, err := boltdb.New(ctx, cfg.BlacklistPath)
	if err != nil {
		return fmt.Errorf("failed to open revocation ledger: %w", err)
	}
	defer func() {
		if err := blacklist.Close(); err != nil {
			logger.Error("failed to close revocation ledger", slog.Any("error", err))
		}
	}()

	// Expired entries serve no purpose once their tokens cannot validate
	// anyway, so sweep them at startup.
	if n, err := blacklist.DeleteExpiredTokens(ctx, time.Now()); err != nil {
		logger.Warn("failed to sweep revocation ledger", slog.Any("error", err))
	} else if n > 0 {
		logger.Info("swept expired revoked tokens", slog.Int("count", n))
	}

	if cfg.AdminUsername != "" {
		if err := bootstrapAdmin(ctx, logger, store, cfg.AdminUsername); err != nil {
			return err
		}
	}

	tokens := token.NewService(token.Config{
		Issuer: cfg.TokenIssuer,
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
	}, store, blacklist)

	engine := access.NewEngine(store, store, store, store, store)

	router := server.NewRouter(logger, tokens, server.Handlers{
		Auth:       handlers.NewAuthHandler(logger, store, tokens),
		Users:      handlers.NewUsersHandler(logger, store),
		Categories: handlers.NewCategoriesHandler(logger, store, store, store, engine),
		Topics:     handlers.NewTopicsHandler(logger, store, store, engine),
		Replies:    handlers.NewRepliesHandler(logger, store, engine),
		Votes:      handlers.NewVotesHandler(logger, store, engine),
		Messages:   handlers.NewMessagesHandler(logger, store, store, engine),
		Health:     handlers.NewHealthHandler(logger),
	}, server.RouterConfig{
		LoginRate:   cfg.LoginRate,
		LoginWindow: cfg.LoginWindow,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// bootstrapAdmin promotes the configured user to admin. The user must have
// registered already; a missing user is logged, not fatal, so the flag can
// be set before the first registration.
func bootstrapAdmin(ctx context.Context, logger *slog.Logger, store *sqlite.Storage, username string) error {
	user, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("admin bootstrap skipped: user not found",
				slog.String("username", username))
			return nil
		}
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	if user.IsAdmin {
		return nil
	}

	if err := store.SetAdmin(ctx, user.ID, true); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	logger.Info("admin bootstrapped",
		slog.String("username", username),
		slog.Int64("user_id", user.ID))
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func printVersion() {
	fmt.Printf("Forum API Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
