package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"questlog/handlers"
	"questlog/internal/notification"
	"questlog/internal/workers"
	"questlog/middleware"
	"questlog/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API and the reminder dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	app, closeStore, err := openApp()
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.InitPrometheus(reg)
	services.RegisterMetrics(reg)

	loc, _ := cfg.Location()
	dispatcher := services.NewNotificationDispatcher(notification.LogProvider{Logger: logger}, services.DispatcherOptions{
		Workers:  cfg.DispatchWorkers,
		Location: loc,
	}, logger)
	defer dispatcher.Stop()

	if cfg.PushConfigured() {
		fcm, err := notification.NewFCMProvider(ctx, cfg.FCMServiceAccountJSON, cfg.FCMCredentialsFile,
			notification.ParseDeviceTokens(cfg.FCMDeviceTokens), logger)
		if err != nil {
			logger.Warn("Could not initialize FCM, reminders go to the log", zap.Error(err))
		} else {
			dispatcher.SetPushProvider(fcm)
			logger.Info("FCM push provider initialized")
		}
	}

	app.SetPublisher(dispatcher)
	report := app.Load(ctx)
	logger.Info("state loaded", zap.Any("keys", report))

	today := workers.CatchUp(ctx, app, loc, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	router := handlers.NewRouter(app, dispatcher, handlers.RouterOptions{
		MetricsUser: cfg.MetricsUser,
		MetricsPass: cfg.MetricsPass,
		Gatherer:    reg,
		Limiter:     limiter,
	}, logger)

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.CleanupVisitors(gctx)
		return nil
	})
	g.Go(func() error {
		workers.StartRefreshWorker(gctx, app, today, time.Minute, loc, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := app.PersistErr(); err != nil {
		logger.Warn("unsaved changes at shutdown", zap.Error(err))
	}
	logger.Info("Server shutdown complete")
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print lifetime stats and the current streak as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeStore, err := openApp()
		if err != nil {
			return err
		}
		defer closeStore()
		app.Load(cmd.Context())

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"stats":  app.Stats(),
			"streak": app.Streak(),
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recycle yesterday's quests and sweep challenge windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeStore, err := openApp()
		if err != nil {
			return err
		}
		defer closeStore()
		app.Load(cmd.Context())

		res := app.RefreshDaily(cmd.Context())
		if err := app.PersistErr(); err != nil {
			return fmt.Errorf("failed to persist refresh: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recycled %d quests, %d challenges changed\n", res.Recycled, len(res.Challenges))
		return nil
	},
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all saved data and reseed the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return errors.New("refusing to reset without --yes")
		}
		app, closeStore, err := openApp()
		if err != nil {
			return err
		}
		defer closeStore()
		app.Load(cmd.Context())

		if err := app.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "all data reset")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deleting all data")
}
