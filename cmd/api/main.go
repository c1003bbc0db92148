package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nsets/erp-backend/api/controllers"
	"github.com/nsets/erp-backend/api/routes"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/approval"
	"github.com/nsets/erp-backend/internal/auth"
	"github.com/nsets/erp-backend/internal/exports"
	"github.com/nsets/erp-backend/internal/invoices"
	"github.com/nsets/erp-backend/internal/linkage"
	"github.com/nsets/erp-backend/internal/purchaseorders"
	"github.com/nsets/erp-backend/internal/queries"
	"github.com/nsets/erp-backend/internal/quotations"
	"github.com/nsets/erp-backend/internal/suggestions"
	"github.com/nsets/erp-backend/internal/system"
	"github.com/nsets/erp-backend/internal/users"
	"github.com/nsets/erp-backend/pkg/auth/session"
	"github.com/nsets/erp-backend/pkg/config"
	"github.com/nsets/erp-backend/pkg/db"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/migrate"
	"github.com/nsets/erp-backend/pkg/pubsub"
	"github.com/nsets/erp-backend/pkg/redis"
	"github.com/nsets/erp-backend/pkg/storage/local"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	startedAt := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	readiness := []controllers.ReadinessCheck{
		{Name: "database", Ping: dbClient.Ping},
		{Name: "redis", Ping: redisClient.Ping},
	}

	var mirror activity.Mirror
	if cfg.PubSub.Enabled(cfg.GCP) {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		publisher := psClient.ActivityPublisher()
		defer func() {
			publisher.Stop()
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		mirror = publisher
		readiness = append(readiness, controllers.ReadinessCheck{Name: "pubsub", Ping: psClient.Ping})
	}

	conn := dbClient.DB()
	activityRepo := activity.NewRepository(conn)
	recorder, err := activity.NewRecorder(activity.RecorderParams{
		Repository: activityRepo,
		Logger:     logg,
		Mirror:     mirror,
		BufferSize: cfg.Activity.BufferSize,
	})
	if err != nil {
		return err
	}
	// Registered after the pubsub close so queued entries drain first.
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := recorder.Close(closeCtx); err != nil {
			logg.Error(closeCtx, "activity recorder did not drain", err)
		}
	}()

	attachments, err := local.New(cfg.Attachments, logg)
	if err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	userRepo := users.NewRepository(conn)
	userService, err := users.NewService(users.ServiceParams{
		Repository: userRepo,
		Tx:         dbClient,
		Password:   cfg.Password,
		Activity:   recorder,
		Logger:     logg,
	})
	if err != nil {
		return err
	}
	seed, err := userService.EnsureSeedAdmin(ctx, cfg.SeedAdmin)
	if err != nil {
		return err
	}
	if seed.Created && seed.GeneratedPassword != "" {
		// Printed once so the operator can log in; it is never stored in clear.
		logg.Warn(logg.WithFields(ctx, map[string]any{"username": seed.Username, "password": seed.GeneratedPassword}), "seed admin created with generated password")
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Password:       cfg.Password,
		Activity:       recorder,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	suggestionService, err := suggestions.NewService(suggestions.NewRepository(conn))
	if err != nil {
		return err
	}
	queryRepo := queries.NewRepository(conn)
	queryService, err := queries.NewService(queries.ServiceParams{
		Repository:  queryRepo,
		Tx:          dbClient,
		Attachments: attachments,
		Suggestions: suggestionService,
		Activity:    recorder,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	quotationRepo := quotations.NewRepository(conn)
	quotationService, err := quotations.NewService(quotations.ServiceParams{Repository: quotationRepo, Tx: dbClient, Activity: recorder, Logger: logg})
	if err != nil {
		return err
	}
	purchaseOrderService, err := purchaseorders.NewService(purchaseorders.ServiceParams{Repository: purchaseorders.NewRepository(conn), Tx: dbClient, Activity: recorder, Logger: logg})
	if err != nil {
		return err
	}
	invoiceRepo := invoices.NewRepository(conn)
	invoiceService, err := invoices.NewService(invoices.ServiceParams{Repository: invoiceRepo, Tx: dbClient, Activity: recorder, Logger: logg})
	if err != nil {
		return err
	}

	approvalService, err := approval.NewService(approval.ServiceParams{
		Quotations:      quotationRepo,
		Invoices:        invoiceRepo,
		Tx:              dbClient,
		Activity:        recorder,
		Logger:          logg,
		AllowDuplicates: cfg.Approval.AllowDuplicates(),
	})
	if err != nil {
		return err
	}

	linkageService, err := linkage.NewService(linkage.NewRepository(conn))
	if err != nil {
		return err
	}
	exportService, err := exports.NewService(exports.ServiceParams{
		Queries:        queryService,
		Quotations:     quotationService,
		PurchaseOrders: purchaseOrderService,
		Invoices:       invoiceService,
		Activity:       recorder,
	})
	if err != nil {
		return err
	}
	activityService, err := activity.NewService(activityRepo)
	if err != nil {
		return err
	}
	systemService, err := system.NewService(system.ServiceParams{
		Users:     userRepo,
		Queries:   queryRepo,
		Dialect:   dbClient.Dialect(),
		Version:   version,
		StartedAt: startedAt,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:         cfg,
			Logger:         logg,
			Redis:          redisClient,
			Registry:       registry,
			Readiness:      readiness,
			Attachments:    attachments,
			Auth:           authService,
			Users:          userService,
			Queries:        queryService,
			Quotations:     quotationService,
			PurchaseOrders: purchaseOrderService,
			Invoices:       invoiceService,
			Approval:       approvalService,
			Linkage:        linkageService,
			Exports:        exportService,
			Activity:       activityService,
			Suggestions:    suggestionService,
			System:         systemService,
		}),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"db":      dbClient.Dialect(),
		"version": version,
	})
	logg.Info(logCtx, "starting api server")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
