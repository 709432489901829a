package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load employees, users and the CV directory into the store",
	Run: func(_ *cobra.Command, _ []string) {
		seedStore()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("employees", "", "employees fixture (yaml)")
	seedCmd.Flags().String("users", "", "users fixture (yaml)")
	seedCmd.Flags().String("cv-dir", "", "directory with resumes to ingest")

	viper.BindPFlag("seed.employees", seedCmd.Flags().Lookup("employees"))
	viper.BindPFlag("seed.users", seedCmd.Flags().Lookup("users"))
	viper.BindPFlag("seed.cv-dir", seedCmd.Flags().Lookup("cv-dir"))
}

func seedStore() {
	withServices(func(ctx context.Context, svc *services, config *Config, logger *zap.Logger) error {
		return runSeed(ctx, svc, config.Seed, logger)
	})
}

// runSeed loads fixtures, then ingests the CV directory when it exists.
func runSeed(ctx context.Context, svc *services, cfg *SeedConfig, logger *zap.Logger) error {
	res, err := seed.Bootstrap(ctx, svc.store, svc.auth, cfg.Employees, cfg.Users, logger)
	if err != nil {
		return err
	}

	if cfg.CVDir == "" {
		logger.Info("seed finished", zap.Int("employees", res.Employees), zap.Int("users", res.Users))
		return nil
	}

	if _, err := os.Stat(cfg.CVDir); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("cv directory does not exist, skipping", zap.String("dir", cfg.CVDir))
		return nil
	}

	summary, err := svc.ingester.IngestDir(ctx, cfg.CVDir)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", cfg.CVDir, err)
	}

	logger.Info("seed finished",
		zap.Int("employees", res.Employees),
		zap.Int("users", res.Users),
		zap.Int("candidates_added", summary.Added),
		zap.Int("candidates_duplicate", summary.Duplicates),
		zap.Int("candidates_failed", summary.Failed),
	)
	return nil
}
