package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tmstorey/libmirror/internal/adapter/catalog"
	"github.com/tmstorey/libmirror/internal/adapter/sqlite"
	"github.com/tmstorey/libmirror/internal/config"
	"github.com/tmstorey/libmirror/internal/logger"
	"github.com/tmstorey/libmirror/internal/pathnorm"
	"github.com/tmstorey/libmirror/internal/service/syncer"
)

var (
	syncDryRun  bool
	syncWorkers int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full synchronization pass",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "log intended downloads without touching disk or cache")
	syncCmd.Flags().IntVar(&syncWorkers, "workers", 0, "override the configured download worker count")
}

func runSync(cmd *cobra.Command, args []string) error {
	// A .env next to the binary may carry LIBMIRROR_API_TOKEN.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.L()
	log.Info("starting libmirror",
		zap.String("version", version),
		zap.String("config", cfgFile),
		zap.String("library", cfg.Library.Root))

	if syncDryRun {
		cfg.Sync.DryRun = true
	}
	if syncWorkers > 0 {
		cfg.Sync.Workers = syncWorkers
	}

	if err := os.MkdirAll(cfg.Library.Root, 0755); err != nil {
		return fmt.Errorf("failed to create library root: %w", err)
	}

	store, err := sqlite.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open metadata cache: %w", err)
	}
	defer store.Close()

	client := catalog.NewClient(cfg.API.BaseURL, cfg.API.Token, &catalog.ClientConfig{
		Timeout:   cfg.API.GetTimeout(),
		RateLimit: cfg.API.RateLimit,
	})
	fetcher := catalog.NewFetcher(cfg.API.GetDownloadTimeout())

	resolver := &pathnorm.Resolver{
		Root:          cfg.Library.Root,
		OmitPublisher: cfg.Library.OmitPublisher,
		Compatibility: cfg.Library.CompatibilityMode,
	}

	s := syncer.New(&syncer.Config{
		Workers:           cfg.Sync.Workers,
		UseChecksums:      cfg.Sync.UseChecksums,
		ValidateDownloads: cfg.Sync.ValidateDownloads,
		DryRun:            cfg.Sync.DryRun,
	}, client, store, store, fetcher, resolver, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := s.Sync(ctx)
	if err != nil {
		log.Error("sync aborted", zap.Error(err))
		return err
	}

	fmt.Printf("considered %d items, %d needed download, %d updated, %d failed, %d cache entries removed\n",
		results.Considered, results.NeedDownload, results.Updated, results.Failed, results.Removed)
	if results.DryRun > 0 {
		fmt.Printf("dry run: %d items would have been downloaded\n", results.DryRun)
	}

	return nil
}
