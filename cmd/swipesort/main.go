package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/config"
	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/database"
	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/library"
	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/logging"
	"github.com/iam74k4/SwipeSort-iOS-sub000/internal/triage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swipesort",
		Short: "SwipeSort media triage maintenance tool",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Print triage counts from the decision store",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStatus(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "scan",
			Short: "List library assets with their categories",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runScan(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Irreversibly delete all triage decisions",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runReset(cmd.Context())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("library-path", defaults.GetString("library.path"), "Media library directory")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "library.path", "library-path")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func openStore(appConfig config.AppConfig, logger *zap.Logger) *triage.Store {
	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		logger.Error("database open failed; store will degrade", zap.Error(err))
		db = nil
	}
	return triage.NewStore(triage.StoreConfig{
		Database: db,
		Logger:   logger,
	})
}

func runStatus(ctx context.Context) error {
	appConfig, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store := openStore(appConfig, logger)
	counts := store.Counts()
	fmt.Printf("tier:     %s\n", store.Tier())
	fmt.Printf("keep:     %d\n", counts.Keep)
	fmt.Printf("delete:   %d\n", counts.Delete)
	fmt.Printf("favorite: %d\n", counts.Favorite)
	return nil
}

func runScan(ctx context.Context) error {
	appConfig, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	lib, err := library.New(library.Config{Root: appConfig.LibraryPath, Logger: logger})
	if err != nil {
		return err
	}
	found, err := lib.FetchAll(ctx)
	if err != nil {
		return err
	}

	store := openStore(appConfig, logger)
	for _, asset := range found {
		label := "unsorted"
		if category, ok := store.Category(asset.ID); ok {
			label = category.String()
		}
		fmt.Printf("%-10s %-6s %s\n", label, asset.Metadata.Kind, asset.ID)
	}
	fmt.Printf("%d assets\n", len(found))
	return nil
}

func runReset(ctx context.Context) error {
	appConfig, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store := openStore(appConfig, logger)
	store.Reset()
	fmt.Println("all triage decisions deleted")
	return nil
}

func setup() (config.AppConfig, *zap.Logger, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	return appConfig, logger, nil
}
