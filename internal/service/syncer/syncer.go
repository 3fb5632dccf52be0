// Package syncer drives one full synchronization pass of the remote
// library against the local mirror: enumerate, detect changes, download
// concurrently, and retire stale cache entries.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tmstorey/libmirror/internal/domain"
	"github.com/tmstorey/libmirror/internal/pathnorm"
	"github.com/tmstorey/libmirror/internal/port"
)

// Config contains syncer configuration
type Config struct {
	Workers           int
	UseChecksums      bool
	ValidateDownloads bool
	DryRun            bool
}

// DefaultConfig returns default syncer configuration
func DefaultConfig() *Config {
	return &Config{
		Workers: 5,
	}
}

// Syncer performs one synchronization pass against the remote catalog
type Syncer struct {
	config   *Config
	catalog  port.CatalogClient
	products port.ProductRepository
	files    port.FileRepository
	detector *Detector
	pipeline *Pipeline
	logger   *zap.Logger
}

// New creates a new Syncer
func New(
	cfg *Config,
	catalog port.CatalogClient,
	products port.ProductRepository,
	files port.FileRepository,
	fetcher port.Fetcher,
	resolver *pathnorm.Resolver,
	logger *zap.Logger,
) *Syncer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 5
	}

	return &Syncer{
		config:   cfg,
		catalog:  catalog,
		products: products,
		files:    files,
		detector: NewDetector(files, resolver, cfg.UseChecksums, logger),
		pipeline: NewPipeline(catalog, fetcher, files, resolver, cfg.ValidateDownloads, cfg.DryRun, logger),
		logger:   logger,
	}
}

// Results summarizes one sync pass
type Results struct {
	Considered   int // items seen in the remote enumeration
	NeedDownload int // items flagged by change detection
	Updated      int // items downloaded and recorded
	DryRun       int // items that would have been downloaded
	Failed       int // items abandoned by the pipeline
	Removed      int // orphaned cache rows deleted
}

type workItem struct {
	product *domain.Product
	item    *domain.DownloadItem
}

// Sync runs one full synchronization pass. It returns an error only when
// the pass as a whole cannot run (authentication or enumeration failure);
// per-item download failures are counted in Results and logged.
func (s *Syncer) Sync(ctx context.Context) (*Results, error) {
	start := time.Now()

	s.logger.Info("authenticating against catalog")
	if err := s.catalog.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	s.logger.Info("fetching product list")
	products, err := s.catalog.ListPurchasedProducts(ctx)
	if err != nil {
		// Fatal for the pass: no downloads, no cleanup. Product rows
		// upserted before the failure stay committed.
		return nil, fmt.Errorf("failed to enumerate products: %w", err)
	}

	// The touched set is pass-local; it starts empty and is discarded
	// when the pass ends.
	touched := make(map[domain.FileKey]struct{})
	results := &Results{}
	var pending []workItem

	checkedAt := time.Now().UTC()
	for pi := range products {
		product := &products[pi]
		if !s.config.DryRun {
			if err := s.products.UpsertProduct(product, checkedAt); err != nil {
				s.logger.Warn("failed to upsert product",
					zap.Int64("product_id", product.ID),
					zap.Error(err))
			}
		}
		for fi := range product.Files {
			item := &product.Files[fi]
			touched[domain.FileKey{ProductID: product.ID, ItemID: item.Index}] = struct{}{}
			results.Considered++
			if s.detector.NeedsDownload(product, item) {
				pending = append(pending, workItem{product: product, item: item})
			}
		}
	}
	results.NeedDownload = len(pending)

	s.logger.Info("change detection complete",
		zap.Int("considered", results.Considered),
		zap.Int("need_download", results.NeedDownload))

	if len(pending) > 0 {
		s.runDownloads(ctx, pending, results)
	}

	// The pool is fully drained above, so the touched set is final here.
	results.Removed = s.cleanup(touched)

	s.logger.Info("sync finished",
		zap.Duration("duration", time.Since(start)),
		zap.Int("considered", results.Considered),
		zap.Int("need_download", results.NeedDownload),
		zap.Int("updated", results.Updated),
		zap.Int("failed", results.Failed),
		zap.Int("removed", results.Removed))

	return results, nil
}

// runDownloads dispatches the pending items across a fixed-size worker
// pool and aggregates every result before returning.
func (s *Syncer) runDownloads(ctx context.Context, pending []workItem, results *Results) {
	jobs := make(chan workItem)
	out := make(chan *domain.ItemResult)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				out <- s.pipeline.Process(ctx, job.product, job.item)
			}
		}()
	}

	go func() {
		for _, job := range pending {
			jobs <- job
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	for result := range out {
		switch result.Status {
		case domain.ItemUpdated:
			results.Updated++
		case domain.ItemDryRun:
			results.DryRun++
		case domain.ItemFailed:
			results.Failed++
			s.logger.Warn("item abandoned",
				zap.String("key", result.Key.String()),
				zap.String("product", result.Product),
				zap.String("filename", result.Filename),
				zap.String("kind", result.FailureKind().String()),
				zap.Error(result.Err))
		}
	}
}

// cleanup deletes cache rows whose keys were absent from this pass's
// enumeration. Metadata only: the files on disk are never touched.
func (s *Syncer) cleanup(touched map[domain.FileKey]struct{}) int {
	if len(touched) == 0 {
		// An empty enumeration is more likely an upstream hiccup than a
		// truly emptied library; keep the cache.
		s.logger.Debug("skipping cache cleanup, no items seen this pass")
		return 0
	}

	keys, err := s.files.AllFileKeys()
	if err != nil {
		s.logger.Error("failed to enumerate cache keys for cleanup", zap.Error(err))
		return 0
	}

	var orphans []domain.FileKey
	for _, key := range keys {
		if _, ok := touched[key]; !ok {
			orphans = append(orphans, key)
		}
	}
	if len(orphans) == 0 {
		return 0
	}

	if s.config.DryRun {
		s.logger.Info("dry run - would remove orphaned cache entries",
			zap.Int("count", len(orphans)))
		return 0
	}

	s.logger.Info("removing orphaned cache entries", zap.Int("count", len(orphans)))
	if err := s.files.DeleteFiles(orphans); err != nil {
		s.logger.Error("failed to delete orphaned cache entries", zap.Error(err))
		return 0
	}

	return len(orphans)
}
