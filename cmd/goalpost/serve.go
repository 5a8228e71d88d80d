package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/goalpost/internal/backup"
	"github.com/dukerupert/goalpost/internal/logging"
	"github.com/dukerupert/goalpost/internal/server"
	ws "github.com/dukerupert/goalpost/internal/websocket"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		origins    []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and change feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, configPath, origins)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "extra origin patterns accepted on /ws")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, configPath string, origins []string) error {
	a, err := openApp(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.New(a.svc, server.Config{
		UserID:         a.cfg.UserID,
		OriginPatterns: origins,
	}, a.logger)
	hub := srv.Hub()
	defer hub.Close()

	if a.cfg.Backup.Enabled() {
		mgr := newBackupManager(a, func(s backup.Status) {
			extra := map[string]any{"state": s.State, "in_progress": s.InProgress}
			if s.Error != "" {
				extra["error"] = s.Error
			}
			hub.Broadcast(ws.NewMessage(ws.EntitySnapshot, ws.ActionUpdated, "", extra))
		})
		if err := mgr.Start(ctx); err != nil {
			return err
		}
		defer mgr.Stop()
	}

	httpServer := &http.Server{
		Addr:         a.cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("goalpost listening", "addr", a.cfg.Addr, "engine", a.cfg.Storage.Engine)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Component(a.logger, "http").Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
