// Package download moves converted bytes to the user's filesystem: single
// files, sequential batches and ZIP archives, plus the helpers the views need
// (stats, file names, sizes, environment checks).
//
// A "download" writes the payload into the output directory through a
// transient handle, the way a browser saves an object URL behind a link:
// the handle stays valid for a short while after the save is triggered and
// is revoked afterwards, never synchronously.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/handles"
	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/samber/lo"
)

const (
	// DefaultBatchDelay separates consecutive saves of a batch.
	DefaultBatchDelay = 100 * time.Millisecond
	// DefaultZipFilename is used when DownloadAsZip gets no name.
	DefaultZipFilename = "converted-images.zip"

	revokeDelay = time.Second
)

type Service struct {
	dir     string
	handles *handles.Registry
	logger  logging.Logger

	revokeDelay time.Duration
	afterFunc   func(time.Duration, func())
}

func NewService(dir string, h *handles.Registry, l logging.Logger) *Service {
	return &Service{
		dir:         dir,
		handles:     h,
		logger:      logging.OrNop(l).With("module", "download"),
		revokeDelay: revokeDelay,
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Dir is the output directory.
func (s *Service) Dir() string { return s.dir }

// BatchDownload reports a sequential batch save. Successful equals Attempted:
// per-item failures are logged, not counted.
type BatchDownload struct {
	Attempted  int `json:"attempted"`
	Successful int `json:"successful"`
}

// ZipDownload reports an archive save.
type ZipDownload struct {
	Attempted   int    `json:"attempted"`
	Successful  int    `json:"successful"`
	ZipSize     int64  `json:"zip_size"`
	ZipFilename string `json:"zip_filename"`
	Path        string `json:"path"`
}

// DownloadFile saves blob as filename in the output directory and returns the
// path written. An existing file is never overwritten; a " (n)" suffix is
// added instead.
func (s *Service) DownloadFile(ctx context.Context, blob *models.Blob, filename string) (string, error) {
	if blob == nil || blob.Released() {
		return "", ErrInvalidBlob
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if filename == "" || name == "." || name == string(filepath.Separator) {
		return "", ErrInvalidFilename
	}

	h := s.handles.Create(blob)

	path, err := s.save(h, name)
	if err != nil {
		s.handles.Revoke(h)
		return "", fmt.Errorf("download failed: %w", err)
	}

	s.afterFunc(s.revokeDelay, func() { s.handles.Revoke(h) })
	s.logger.Debug(ctx, "file saved", "path", path, "bytes", blob.Size())
	return path, nil
}

func (s *Service) save(h, name string) (string, error) {
	b, ok := s.handles.Resolve(h)
	if !ok {
		return "", errors.New("handle revoked before save")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", s.dir, err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(b.Bytes()); err != nil {
			f.Close()
			return "", err
		}
		return path, f.Close()
	}
}

// DownloadBatch saves every downloadable result one after another, waiting
// delay between saves.
func (s *Service) DownloadBatch(ctx context.Context, results []models.BatchResult, delay time.Duration) (BatchDownload, error) {
	ok := lo.Filter(results, func(r models.BatchResult, _ int) bool { return r.Downloadable() })
	if len(ok) == 0 {
		return BatchDownload{}, ErrNothingToDownload
	}
	if len(ok) > 1 {
		s.logger.Warn(ctx, "saving several files one by one; consider a zip download", "count", len(ok))
	}

	for i, r := range ok {
		if _, err := s.DownloadFile(ctx, r.Result.Blob, r.Result.Filename); err != nil {
			s.logger.Error(ctx, "failed to download", "filename", r.Result.Filename, "error", err)
		}
		if i < len(ok)-1 {
			select {
			case <-ctx.Done():
				return BatchDownload{Attempted: len(ok), Successful: len(ok)}, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return BatchDownload{Attempted: len(ok), Successful: len(ok)}, nil
}

// DownloadAsZip packs every downloadable result into one archive and saves it.
func (s *Service) DownloadAsZip(ctx context.Context, results []models.BatchResult, zipFilename string) (ZipDownload, error) {
	ok := lo.Filter(results, func(r models.BatchResult, _ int) bool { return r.Downloadable() })
	if len(ok) == 0 {
		return ZipDownload{}, ErrNothingToDownload
	}
	if zipFilename == "" {
		zipFilename = DefaultZipFilename
	}

	blob, err := CreateZipBlob(ctx, ok)
	if err != nil {
		return ZipDownload{}, fmt.Errorf("zip creation failed: %w", err)
	}

	path, err := s.DownloadFile(ctx, blob, zipFilename)
	if err != nil {
		return ZipDownload{}, fmt.Errorf("zip creation failed: %w", err)
	}

	s.logger.Info(ctx, "zip saved", "path", path, "files", len(ok), "bytes", blob.Size())
	return ZipDownload{
		Attempted:   len(ok),
		Successful:  len(ok),
		ZipSize:     blob.Size(),
		ZipFilename: zipFilename,
		Path:        path,
	}, nil
}
