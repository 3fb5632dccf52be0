package syncer

import (
	"os"

	"go.uber.org/zap"

	"github.com/tmstorey/libmirror/internal/domain"
	"github.com/tmstorey/libmirror/internal/pathnorm"
	"github.com/tmstorey/libmirror/internal/port"
)

// Detector decides whether a remote item must be downloaded, by comparing
// the catalog's reported state against the metadata cache and the
// filesystem. Decisions are made sequentially before the download phase
// starts, so they stay stable for the whole pass.
type Detector struct {
	files        port.FileRepository
	resolver     *pathnorm.Resolver
	useChecksums bool
	logger       *zap.Logger
}

// NewDetector creates a new Detector
func NewDetector(files port.FileRepository, resolver *pathnorm.Resolver, useChecksums bool, logger *zap.Logger) *Detector {
	return &Detector{
		files:        files,
		resolver:     resolver,
		useChecksums: useChecksums,
		logger:       logger,
	}
}

// NeedsDownload checks the metadata cache and filesystem to determine
// whether the item must be fetched. The checks short-circuit in order:
// missing cache row, destination path divergence, remote modification
// timestamp change, newest-checksum change (when enabled), and finally a
// missing file at the cached path.
func (d *Detector) NeedsDownload(product *domain.Product, item *domain.DownloadItem) bool {
	fields := []zap.Field{
		zap.Int64("product_id", product.ID),
		zap.Int64("item_id", item.Index),
		zap.String("product", product.Name),
		zap.String("filename", item.Filename),
	}

	expectedPath := d.resolver.FilePath(product.Name, product.Publisher, item.Filename)

	record, err := d.files.GetFile(product.ID, item.Index)
	if err != nil {
		// A re-download is always safe; a missed skip is not.
		d.logger.Warn("cache lookup failed, forcing download", append(fields, zap.Error(err))...)
		return true
	}

	if record == nil {
		d.logger.Debug("needs download: no cache record", fields...)
		return true
	}

	if record.LocalPath != expectedPath {
		d.logger.Debug("needs download: destination path changed",
			append(fields,
				zap.String("cached_path", record.LocalPath),
				zap.String("expected_path", expectedPath))...)
		return true
	}

	if item.LastModified != record.APILastModified {
		d.logger.Debug("needs download: remote modification time changed",
			append(fields,
				zap.String("cached", record.APILastModified),
				zap.String("remote", item.LastModified))...)
		return true
	}

	if d.useChecksums {
		if remote := item.NewestChecksum(); remote != record.APIChecksum {
			d.logger.Debug("needs download: remote checksum changed",
				append(fields,
					zap.String("cached", record.APIChecksum),
					zap.String("remote", remote))...)
			return true
		}
	}

	// Recovers from out-of-band deletion without waiting for the remote
	// metadata to change.
	if _, err := os.Stat(record.LocalPath); err != nil {
		d.logger.Debug("needs download: file missing at cached path",
			append(fields, zap.String("path", record.LocalPath))...)
		return true
	}

	d.logger.Debug("up to date", fields...)
	return false
}
