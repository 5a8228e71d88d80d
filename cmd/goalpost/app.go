package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/dukerupert/goalpost/internal/auth"
	"github.com/dukerupert/goalpost/internal/config"
	"github.com/dukerupert/goalpost/internal/database"
	"github.com/dukerupert/goalpost/internal/gormstore"
	"github.com/dukerupert/goalpost/internal/logging"
	"github.com/dukerupert/goalpost/internal/store"
	"github.com/dukerupert/goalpost/internal/tracker"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "goalpost.yaml"

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to goalpost config file")
}

// app is the wiring shared by every command that touches the store.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *tracker.Service
	// db is the SQLite handle. It is nil for the mysql engine.
	db    *sql.DB
	close func() error
}

func openApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.SetupWriter(logOut, cfg.LogLevel)

	a := &app{cfg: cfg, logger: logger}
	var (
		goals      tracker.GoalRepository
		categories tracker.CategoryRepository
		tasks      tracker.TaskRepository
	)

	switch cfg.Storage.Engine {
	case config.EngineMySQL:
		gdb, err := gormstore.Open(gormstore.EngineMySQL, cfg.Storage.MySQLDSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("mysql handle: %w", err)
		}
		a.close = sqlDB.Close
		goals = gormstore.NewGoalStore(gdb)
		categories = gormstore.NewCategoryStore(gdb)
		tasks = gormstore.NewTaskStore(gdb)
	default:
		db, err := database.Open(cfg.Storage.DBPath)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.close = db.Close
		goals = store.NewGoalStore(db)
		categories = store.NewCategoryStore(db)
		tasks = store.NewTaskStore(db)
	}

	logger.Debug("storage opened", "engine", cfg.Storage.Engine)
	a.svc = tracker.NewService(goals, categories, tasks, logging.Component(logger, "tracker"))
	return a, nil
}

// userContext carries the configured user, the same way the HTTP middleware
// does for requests.
func (a *app) userContext(ctx context.Context) context.Context {
	return auth.WithUser(ctx, a.cfg.UserID)
}
