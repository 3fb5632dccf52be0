package syncer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tmstorey/libmirror/internal/domain"
	"github.com/tmstorey/libmirror/internal/pathnorm"
	"github.com/tmstorey/libmirror/internal/port"
)

// Pipeline executes the per-item download sequence: issue a URL, fetch the
// content, validate it, write it, and persist the cache row. Each step's
// failure abandons the item without touching the cache, and is returned as
// a classified ItemResult rather than propagated.
type Pipeline struct {
	catalog  port.CatalogClient
	fetcher  port.Fetcher
	files    port.FileRepository
	resolver *pathnorm.Resolver
	validate bool
	dryRun   bool
	logger   *zap.Logger
}

// NewPipeline creates a new download Pipeline
func NewPipeline(
	catalog port.CatalogClient,
	fetcher port.Fetcher,
	files port.FileRepository,
	resolver *pathnorm.Resolver,
	validate, dryRun bool,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		catalog:  catalog,
		fetcher:  fetcher,
		files:    files,
		resolver: resolver,
		validate: validate,
		dryRun:   dryRun,
		logger:   logger,
	}
}

func fail(result *domain.ItemResult, kind domain.FailureKind, err error) *domain.ItemResult {
	result.Status = domain.ItemFailed
	result.Err = domain.NewItemFailure(kind, err)
	return result
}

// Process runs the full download sequence for one item. It never panics
// and never returns an error: failures are carried inside the result so
// one item cannot abort its worker or its siblings.
func (p *Pipeline) Process(ctx context.Context, product *domain.Product, item *domain.DownloadItem) *domain.ItemResult {
	result := &domain.ItemResult{
		Key:      domain.FileKey{ProductID: product.ID, ItemID: item.Index},
		Product:  product.Name,
		Filename: item.Filename,
	}

	path := p.resolver.FilePath(product.Name, product.Publisher, item.Filename)

	fields := []zap.Field{
		zap.String("product", product.Name),
		zap.String("filename", item.Filename),
		zap.String("path", path),
	}

	if p.dryRun {
		p.logger.Info("dry run - would download file", fields...)
		result.Status = domain.ItemDryRun
		return result
	}

	p.logger.Info("processing item",
		zap.String("product", product.Name),
		zap.String("filename", item.Filename))

	url, err := p.catalog.PrepareDownloadURL(ctx, product.ID, item.Index)
	if err != nil {
		p.logger.Warn("could not get download url", append(fields, zap.Error(err))...)
		return fail(result, domain.FailureURLIssuance, err)
	}

	content, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.logger.Error("download failed", append(fields, zap.Error(err))...)
		return fail(result, domain.FailureTransport, err)
	}

	apiChecksum := item.NewestChecksum()

	var localChecksum string
	if p.validate && apiChecksum != "" {
		sum := md5.Sum(content)
		localChecksum = hex.EncodeToString(sum[:])
		if localChecksum != apiChecksum {
			p.logger.Error("invalid checksum, file not written",
				append(fields,
					zap.String("expected", apiChecksum),
					zap.String("computed", localChecksum))...)
			return fail(result, domain.FailureIntegrity, domain.ErrChecksumMismatch)
		}
		p.logger.Debug("checksum validated", fields...)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.logger.Error("failed to create parent directory", append(fields, zap.Error(err))...)
		return fail(result, domain.FailureFilesystem, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		p.logger.Error("failed to write file", append(fields, zap.Error(err))...)
		return fail(result, domain.FailureFilesystem, err)
	}

	record := &domain.FileRecord{
		ProductID:       product.ID,
		ItemID:          item.Index,
		Filename:        item.Filename,
		APILastModified: item.LastModified,
		APIChecksum:     apiChecksum,
		LocalPath:       path,
		LocalLastSynced: time.Now().UTC(),
		LocalChecksum:   localChecksum,
	}
	if err := p.files.UpsertFile(record); err != nil {
		p.logger.Error("failed to update cache row", append(fields, zap.Error(err))...)
		return fail(result, domain.FailureCacheStore, err)
	}

	p.logger.Info("file downloaded",
		append(fields, zap.Int("size", len(content)))...)
	result.Status = domain.ItemUpdated
	return result
}
