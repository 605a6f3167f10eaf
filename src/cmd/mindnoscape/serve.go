package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mindnoscape/web-app/src/pkg/api"
	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/session"
	"mindnoscape/web-app/src/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mind map REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cleanup, err := bootstrap(opts, true)
			if err != nil {
				return err
			}
			defer cleanup()
			if addr != "" {
				cfg.ServerAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server_addr)")
	return cmd
}

// serve runs the API until ctx is done, then shuts the listener down and
// waits for the session sweeper.
func serve(ctx context.Context, cfg *model.Config, logger *log.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	logger.Info(ctx, "Application started", nil)

	store, err := storage.NewStorage(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize storage", log.Fields{"error": err})
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error(context.Background(), "Failed to close storage", log.Fields{"error": err})
		}
	}()
	logger.Info(ctx, "Storage initialized", log.Fields{"driver": store.Driver})

	em := event.NewEventManager(logger)
	dm, err := data.NewDataManager(store.UserStore, store.MindmapStore, cfg, em, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize data manager", log.Fields{"error": err})
		return fmt.Errorf("failed to initialize data manager: %w", err)
	}

	sm := session.NewSessionManager(
		time.Duration(cfg.SessionTimeout)*time.Minute,
		time.Duration(cfg.CleanupInterval)*time.Minute,
		em, logger,
	)

	srv, err := api.NewServer(dm, sm, cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize API server", log.Fields{"error": err})
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sm.Run(gctx)
	})
	g.Go(func() error {
		logger.Info(gctx, "API listening", log.Fields{"addr": cfg.ServerAddr})
		fmt.Printf("Mindnoscape API listening on %s\n", cfg.ServerAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil {
		logger.Error(context.Background(), "Server stopped with error", log.Fields{"error": err})
	}
	logger.Info(context.Background(), "Application shutting down", nil)
	return err
}
