package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"questlog/internal/config"
	"questlog/internal/seed"
	"questlog/internal/store"
	"questlog/services"
)

var (
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "questlog",
	Short:         "Daily quests, streaks and challenges on your own machine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		logger = l

		cfg, err = config.Load(logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, statsCmd, refreshCmd, resetCmd)
}

// openApp builds the store and an AppService over it. Callers run Load.
func openApp() (*services.AppService, func(), error) {
	kv, err := store.NewByEngine(cfg.Store, cfg.DataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	loc, _ := cfg.Location()
	weekStart, _ := cfg.FirstWeekday()
	app := services.NewAppService(store.NewGateway(kv, logger), seed.Default(), services.AppOptions{
		Location:  loc,
		WeekStart: weekStart,
		Now:       time.Now,
	}, logger)

	closeFn := func() {
		if err := kv.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}
	return app, closeFn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
