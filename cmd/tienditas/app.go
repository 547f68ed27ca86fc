package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c360studio/tienditas/admin"
	"github.com/c360studio/tienditas/chat"
	"github.com/c360studio/tienditas/config"
	"github.com/c360studio/tienditas/llm"
	"github.com/c360studio/tienditas/media"
	"github.com/c360studio/tienditas/render"
	"github.com/c360studio/tienditas/storage"
	"github.com/c360studio/tienditas/store"
	"github.com/c360studio/tienditas/web"
)

// run wires the whole server together and blocks until shutdown.
func run(configPath, addr, logLevel string) error {
	// Configure logging
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(logger)
	cfg, err := loader.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backend
	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	// Repository and editor
	repo := store.NewRepository(backend, store.WithLogger(logger))
	editor := admin.NewEditor(ctx, repo, admin.WithEditorLogger(logger))

	// Render engine, optionally watching a template override directory
	engine, err := render.NewEngine(logger)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	if cfg.Templates.Dir != "" {
		if err := engine.WatchDir(ctx, cfg.Templates.Dir); err != nil {
			return fmt.Errorf("watch templates: %w", err)
		}
		logger.Info("Watching template overrides", "dir", cfg.Templates.Dir)
	}

	// Model clients
	chatClient, err := modelClient(cfg.Chat, logger)
	if err != nil {
		return fmt.Errorf("chat model: %w", err)
	}
	paletteClient, err := modelClient(cfg.Palette, logger)
	if err != nil {
		return fmt.Errorf("palette model: %w", err)
	}
	chats := chat.NewManager(
		&temperatureStreamer{client: chatClient, temperature: cfg.Chat.Temperature},
		logger,
	)

	// Media uploads
	uploader, err := media.NewCloudinaryUploader(cfg.Media.CloudinaryURL, cfg.Media.Folder,
		media.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("media uploader: %w", err)
	}

	server := web.NewServer(editor, engine,
		web.WithLogger(logger),
		web.WithMetrics(web.NewMetrics()),
		web.WithChatManager(chats),
		web.WithPaletteClient(paletteClient),
		web.WithUploader(uploader),
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Tienditas ready",
			"version", Version,
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Backend)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// openBackend creates the configured blob backend.
func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return storage.NewSQLiteBackend(cfg.Path)
	case config.BackendNATS:
		return storage.NewNATSBackend(ctx, cfg.NATSURL)
	case config.BackendMemory:
		return storage.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// modelClient builds an LLM client from one model section.
func modelClient(cfg config.ModelConfig, logger *slog.Logger) (*llm.Client, error) {
	if llm.GetProvider(cfg.Provider) == nil {
		return nil, fmt.Errorf("unknown provider %q (have %v)", cfg.Provider, llm.ListProviders())
	}
	return llm.NewClient(llm.Endpoint{
		Provider: cfg.Provider,
		URL:      cfg.Endpoint,
		Model:    cfg.Model,
	}, llm.WithLogger(logger)), nil
}

// temperatureStreamer injects the configured chat temperature into every
// streamed request.
type temperatureStreamer struct {
	client      *llm.Client
	temperature float64
}

func (s *temperatureStreamer) Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamChunk, error) {
	if req.Temperature == nil {
		t := s.temperature
		req.Temperature = &t
	}
	return s.client.Stream(ctx, req)
}
