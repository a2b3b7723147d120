// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"slidesmith/internal/agent"
	"slidesmith/internal/ai"
	"slidesmith/internal/autosave"
	"slidesmith/internal/cache"
	"slidesmith/internal/config"
	"slidesmith/internal/database"
	"slidesmith/internal/engine"
	"slidesmith/internal/handlers"
	"slidesmith/internal/middleware"
	"slidesmith/internal/normalize"
	"slidesmith/internal/render"
	"slidesmith/internal/router"
	"slidesmith/internal/session"
	"slidesmith/internal/sharing"
	"slidesmith/internal/storage"
	"slidesmith/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	slog.Info("configuration loaded",
		"env", cfg.Server.Env,
		"addr", cfg.Addr(),
		"base_url", cfg.Server.BaseURL,
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	// Valkey backs sessions and the rendered-slide cache.
	valkeyClient, err := cache.ConnectValkey(cfg.Valkey.Host, cfg.Valkey.Port, cfg.Valkey.Password, cfg.Valkey.DB)
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	userStore := store.NewUserStore(db)
	carouselStore := store.NewCarouselStore(db)
	viewStore := store.NewViewStore(db)

	registry := ai.NewRegistry(cfg.AI.Provider, providerConfigs(cfg.AI))
	slog.Info("ai providers initialized",
		"active", registry.ActiveName(),
		"available", registry.Available(),
		"images", registry.SupportsImageGeneration(),
	)

	// Object storage is optional; image generation and export report
	// that they are unavailable without it.
	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		PublicURL: cfg.S3.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	var objects agent.ObjectStore
	if storageClient != nil {
		objects = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
	} else {
		slog.Warn("s3 storage not configured, image generation and export disabled")
	}

	var images agent.ImageSource
	if registry.SupportsImageGeneration() {
		images = registry
	}
	slideAgent := agent.New(registry, agent.NewImageService(images, objects))

	var transcripts normalize.TranscriptClient
	if cfg.Fetch.TranscriptEndpoint != "" {
		transcripts = normalize.NewHTTPTranscriptClient(cfg.Fetch.TranscriptEndpoint, cfg.Fetch.TranscriptAPIKey, cfg.Fetch.Timeout)
	} else {
		slog.Warn("transcript endpoint not configured, video sources disabled")
	}
	normalizer := normalize.New(normalize.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxChars), transcripts)

	eng := engine.New(0)
	slideCache := cache.NewSlideCache(valkeyClient, cfg.Valkey.SlideTTL)

	pages, err := render.New()
	if err != nil {
		return fmt.Errorf("init page renderer: %w", err)
	}

	shares := sharing.New(carouselStore, viewStore)
	editorSessions := autosave.NewManager(carouselStore, autosave.Config{
		Debounce:    cfg.Editor.Debounce,
		ResetAfter:  cfg.Editor.ResetAfter,
		SaveTimeout: cfg.Editor.SaveTimeout,
		IdleTimeout: cfg.Editor.IdleTimeout,
	})

	var aiLimiter, loginLimiter *middleware.RateLimiter
	if cfg.RateLimit.AIRequests > 0 {
		aiLimiter = middleware.NewRateLimiter(cfg.RateLimit.AIRequests, cfg.RateLimit.Window)
		defer aiLimiter.Stop()
	}
	if cfg.RateLimit.Login > 0 {
		loginLimiter = middleware.NewRateLimiter(cfg.RateLimit.Login, cfg.RateLimit.Window)
		defer loginLimiter.Stop()
	}

	r := router.New(router.Deps{
		Sessions:     sessionStore,
		Auth:         handlers.NewAuth(sessionStore, userStore),
		Studio:       handlers.NewStudio(normalizer, slideAgent, registry, eng),
		Library:      handlers.NewLibrary(carouselStore, viewStore, slideCache, eng, objects, cfg.Server.BaseURL),
		Editor:       handlers.NewEditor(editorSessions, carouselStore, eng),
		Public:       handlers.NewPublic(shares, eng, slideCache, pages, cfg.Server.BaseURL),
		Secure:       secureCookies,
		CORSOrigins:  cfg.Server.CORSOrigins,
		AILimiter:    aiLimiter,
		LoginLimiter: loginLimiter,
	})

	// WriteTimeout must cover generation requests that wait on a model
	// (typically 10-30s, up to 60s for long sources).
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Open editors get their pending change written before the pool closes.
	editorSessions.Shutdown()
	shares.Wait()

	slog.Info("server stopped gracefully")
	return nil
}

func providerConfigs(a config.AIConfig) map[string]ai.ProviderConfig {
	out := make(map[string]ai.ProviderConfig, 4)
	for name, pc := range a.Providers() {
		out[name] = ai.ProviderConfig{
			APIKey:     pc.APIKey,
			Model:      pc.Model,
			ModelImage: pc.ModelImage,
			BaseURL:    pc.BaseURL,
		}
	}
	return out
}
