package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leca/photo-editor/internal/aitext"
	"github.com/leca/photo-editor/internal/config"
	"github.com/leca/photo-editor/internal/database"
	"github.com/leca/photo-editor/internal/editor"
	"github.com/leca/photo-editor/internal/imagecache"
	"github.com/leca/photo-editor/internal/imageproc"
	"github.com/leca/photo-editor/internal/jobs"
	"github.com/leca/photo-editor/internal/quota"
	"github.com/leca/photo-editor/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var (
		cache  imagecache.Cache
		purger jobs.Purger
	)
	switch cfg.CacheBackend {
	case config.CacheRedis:
		client, err := imagecache.NewRedisClient(ctx, imagecache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		cache = imagecache.NewRedis(client, cfg.CacheTTL)
	case config.CacheDisk:
		disk := imagecache.NewDisk(cfg.CacheDir, cfg.CacheTTL)
		cache, purger = disk, disk
	default:
		cache = imagecache.NewMemory(imagecache.MemoryConfig{
			MaxEntries: cfg.CacheMaxEntries,
			MaxBytes:   cfg.CacheMaxBytes,
			TTL:        cfg.CacheTTL,
		})
	}

	ledger := quota.New(db, quota.Config{
		FreeDailyLimit:    cfg.FreeDailyLimit,
		PremiumDailyLimit: cfg.PremiumDailyLimit,
		GrantPolicy:       cfg.GrantPolicy,
		Location:          cfg.Location,
	})

	proc := imageproc.New(imageproc.WithUnknownActionPolicy(cfg.UnknownAction))

	edCfg := editor.Config{Workers: cfg.Workers, MaxUploadBytes: cfg.MaxUploadBytes, MaxPixels: cfg.MaxPixels}
	if cfg.AIEnabled() {
		client, err := aitext.NewClient(aitext.Config{
			APIKey:  cfg.AIAPIKey,
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
		})
		if err != nil {
			return err
		}
		edCfg.Describer = client
	} else {
		slog.Warn("PHOTO_AI_API_KEY not set, AI features disabled")
	}
	svc := editor.New(cache, ledger, proc, edCfg)

	sched := jobs.NewScheduler(purger, svc, cfg.Location, slog.Default())
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	srv := router.New(svc, cfg)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ListenAddr, "cache", cfg.CacheBackend, "ai_enabled", cfg.AIEnabled())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
