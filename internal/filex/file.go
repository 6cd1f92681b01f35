// Package filex turns paths on disk into in-memory input files.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/models"
)

// EnsureDir creates dir (and parents) if needed and returns its absolute
// path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// TypeByName guesses a MIME type from the file extension.
func TypeByName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == common.AvifExt {
		return common.AvifMIMEType
	}
	return mime.TypeByExtension(ext)
}

// ReadFile loads one file into memory.
func ReadFile(path string) (*models.File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &models.File{
		Name:    filepath.Base(path),
		Type:    TypeByName(path),
		Data:    data,
		ModTime: fi.ModTime(),
	}, nil
}

// Collect reads every path. Directories are walked recursively and only
// their .avif files are taken; plain files are read whatever their type so
// the caller can decide what to reject. Unreadable entries are reported in
// the joined error while the rest are still returned.
func Collect(paths []string) ([]*models.File, error) {
	var (
		files []*models.File
		errs  []error
	)

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !fi.IsDir() {
			f, err := ReadFile(p)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			files = append(files, f)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), common.AvifExt) {
				return nil
			}
			f, err := ReadFile(path)
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			files = append(files, f)
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	return files, errors.Join(errs...)
}
