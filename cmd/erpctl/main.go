package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/pkg/config"
	"github.com/nsets/erp-backend/pkg/db"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "erpctl",
		Usage: "Operator tooling for the ERP backend",
		Commands: []*cli.Command{
			seedAdminCommand(),
			resetPasswordCommand(),
			purgeNowCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "erpctl:", err)
		os.Exit(1)
	}
}

const drainTimeout = 10 * time.Second

// env is the configuration, database and audit sink shared by every command.
type env struct {
	cfg      *config.Config
	logg     *logger.Logger
	db       *db.Client
	activity *activity.AsyncRecorder
}

func openEnv(ctx context.Context) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "erpctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	recorder, err := activity.NewRecorder(activity.RecorderParams{
		Repository: activity.NewRepository(client.DB()),
		Logger:     logg,
		BufferSize: cfg.Activity.BufferSize,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &env{cfg: cfg, logg: logg, db: client, activity: recorder}, nil
}

// Close drains pending audit entries before the database goes away.
func (e *env) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := e.activity.Close(ctx); err != nil {
		e.logg.Error(ctx, "activity entries lost on exit", err)
	}
	if err := e.db.Close(); err != nil {
		e.logg.Error(context.Background(), "error closing database", err)
	}
}
