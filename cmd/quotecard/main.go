// Command quotecard runs the quote-card Discord bot: it collects quotes in a
// guided conversation, renders them onto a card, and publishes the result.
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

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"quotecard/internal/config"
	discordbot "quotecard/internal/discord"
	"quotecard/internal/health"
	"quotecard/internal/observe"
	"quotecard/internal/render"
	"quotecard/internal/session"
	"quotecard/internal/speaker"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "quotecard: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "quotecard: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("quotecard starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"store_backend", cfg.Store.Backend,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "quotecard",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Speaker store ─────────────────────────────────────────────────────────
	store, closeStore, err := buildStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to initialise speaker store", "err", err)
		return 1
	}
	defer closeStore()

	// ── Renderer ──────────────────────────────────────────────────────────────
	compositor, err := render.NewCompositor(render.CompositorConfig{
		AssetsDir:   cfg.Render.AssetsDir,
		BodyFont:    cfg.Render.BodyFont,
		CaptionFont: cfg.Render.CaptionFont,
	})
	if err != nil {
		slog.Error("failed to initialise renderer", "err", err)
		return 1
	}

	// ── Discord bot and session registry ──────────────────────────────────────
	bot, err := discordbot.New(cfg.Discord)
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}
	sender := bot.Sender()

	registry := session.NewRegistry(session.Deps{
		Store:     store,
		Out:       sender,
		Images:    discordbot.NewGuardedFetcher(sender),
		Renderer:  compositor,
		ChannelID: cfg.Discord.ChannelID,
		Metrics:   observe.DefaultMetrics(),
	})
	bot.Attach(registry)

	// ── HTTP operations server ────────────────────────────────────────────────
	mux := http.NewServeMux()
	health.New(health.StoreChecker(store)).Register(mux)
	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discord bot: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info("quotecard ready — press Ctrl+C to shut down")

	runErr := g.Wait()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down…")

	if err := bot.Close(); err != nil {
		slog.Warn("discord bot close error", "err", err)
	}

	// Let queued session events finish before the process exits.
	registry.Wait()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run error", "err", runErr)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildStore creates the speaker store selected by cfg and returns it with a
// cleanup function.
func buildStore(ctx context.Context, cfg config.StoreConfig) (speaker.Store, func(), error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return speaker.NewMemStore(), func() {}, nil

	case config.StoreDisk:
		return speaker.NewDiskStore(cfg.Path), func() {}, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := speaker.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
