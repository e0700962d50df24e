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

	"pathways-server/internal/config"
	"pathways-server/internal/content"
	"pathways-server/internal/handler"
	"pathways-server/internal/service"
	"pathways-server/pkg/authutils"
	"pathways-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogEncoding,
		OutputPath: cfg.LogOutput,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	cfg.Log(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exiting")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// --- Content ---
	lib, issues, err := content.Load(content.Source(cfg.ContentDir))
	for _, issue := range issues {
		log.Warn("Content issue", zap.String("issue", issue.String()))
	}
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	store := content.NewStore(lib)
	log.Info("Content loaded", zap.String("revision", lib.Revision()), zap.Int("characters", len(lib.Characters())))

	// --- Persistence ---
	stores, err := setupStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	// --- Messaging ---
	publisher := setupPublisher(cfg, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("Error closing notification publisher", zap.Error(err))
		}
	}()

	// --- Dependency Injection ---
	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, log)
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}
	gameService := service.NewGameService(service.Deps{
		Saves:     stores.Saves,
		Profiles:  stores.Profiles,
		Lock:      stores.Lock,
		Content:   store,
		Publisher: publisher,
		Logger:    log,
		MaxSaves:  cfg.MaxSavesPerPlayer,
	})
	gameHandler := handler.NewGameHandler(gameService, verifier.VerifyToken, log)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}
	router := handler.NewRouter(gameHandler, handler.RouterConfig{
		CORSOrigins:   cfg.CORSOrigins,
		EnableMetrics: true,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Горячая перезагрузка только для каталога на диске.
	if cfg.ContentDir != "" {
		watcher, err := content.NewWatcher(cfg.ContentDir, store, log)
		if err != nil {
			return fmt.Errorf("create content watcher: %w", err)
		}
		if err := watcher.Start(gctx); err != nil {
			return fmt.Errorf("start content watcher: %w", err)
		}
		defer watcher.Stop()
	}

	g.Go(func() error {
		log.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server listen error: %w", err)
		}
		return nil
	})

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server forced to shutdown", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
