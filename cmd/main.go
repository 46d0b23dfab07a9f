package main

import (
	"fmt"
	"os"

	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/internal/store/gormstore"
	"github.com/boskojeremic/iflowx/internal/store/memstore"
	"github.com/boskojeremic/iflowx/pkg/config"
	"github.com/boskojeremic/iflowx/pkg/database"
	"github.com/boskojeremic/iflowx/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "iflowx"

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Multi-tenant module licensing service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createSuperAdminCmd())
	rootCmd.AddCommand(resetPasswordCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and initializes the process logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	err = logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}

// openStore connects the configured record store. The returned func
// releases it.
func openStore(cfg *config.Config, log *zap.Logger) (store.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		s, err := memstore.New()
		if err != nil {
			return nil, nil, err
		}
		log.Warn("Using the in-memory store; data is lost on exit")
		return s, func() {}, nil
	}

	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}
	return gormstore.New(db), closeDB, nil
}

// migrate creates or updates the schema when the store has one
func migrate(s store.Store) error {
	if m, ok := s.(interface{ Migrate() error }); ok {
		return m.Migrate()
	}
	return nil
}
