// Package cmd holds the bookfeed command line.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/bookfeed-be/internal/config"
	"github.com/isdelr/bookfeed-be/internal/database"
	"github.com/isdelr/bookfeed-be/internal/logger"
	"github.com/isdelr/bookfeed-be/internal/store"
	"github.com/isdelr/bookfeed-be/internal/store/mongostore"
	"github.com/isdelr/bookfeed-be/internal/store/sqlstore"
)

var rootCmd = &cobra.Command{
	Use:           "bookfeed",
	Short:         "Book management API with per-library access and a ranked feed",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newSeedCmd())
}

// ExecuteContext runs the root command with ctx as the base context of every subcommand.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration and initializes the global logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	return cfg, nil
}

// openStore connects to the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		db, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		s := mongostore.New(db)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create MongoDB indexes: %w", err)
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB store")
		return s, nil
	default:
		db, err := database.New(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		log.Info().Str("path", cfg.DatabasePath).Msg("Using SQLite store")
		return sqlstore.New(db), nil
	}
}
