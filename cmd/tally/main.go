package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/adapter"
	"tally/internal/backend"
	"tally/internal/cli"
	apphttp "tally/internal/http"
	"tally/internal/identity"
	applog "tally/internal/log"
	"tally/internal/status"
)

func main() {
	logger, cfg, err := cli.Bootstrap(applog.ComponentApp)
	if err != nil {
		logger.Error("Startup failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the record store. A broken sqlite setup degrades to the memory
	// backend instead of refusing to start.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Warn("Backend unavailable, falling back to memory store",
			applog.FieldBackend, backendCfg.Type.String(), applog.FieldError, err)
		result, err = factory.CreateBackend(ctx, backend.Config{Type: backend.MemoryBackend})
		if err != nil {
			logger.Error("Failed to initialize fallback store", applog.FieldError, err)
			os.Exit(1)
		}
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Store cleanup failed", applog.FieldError, err)
		}
	}()

	box := status.New(cfg.StatusTTL)
	defer box.Close()

	resolver := identity.NewResolver(identity.NewGoogleAuthenticator(cfg.AuthAudience), cfg.AuthToken)
	ledger := adapter.New(result.Store, box, cfg.Namespace, cfg.AppID)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, box)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ledger.Run(gctx, resolver.Identities()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.StartPush(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting tally server",
			"port", cfg.Port,
			applog.FieldBackend, backendCfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Sign in once the pipeline is running; the resolved identity reaches the
	// adapter through the identities channel.
	id := resolver.Resolve(ctx)
	logger.Info("Identity resolved",
		applog.FieldUserID, id.UserID,
		"anonymous", id.Anonymous,
		"synthesized", id.Synthesized)

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
