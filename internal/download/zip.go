package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/samber/lo"
)

const deflateLevel = 6

type zipEntry struct {
	name string
	data []byte
}

// CreateZipBlob builds an archive holding every successful result whose
// output has not been released.
// PNG payloads are already compressed, so an archive containing any .png
// entry is stored uncompressed as a whole; otherwise entries are deflated at
// level 6. When two results share a file name the later payload wins and the
// entry keeps the position of the first one.
func CreateZipBlob(ctx context.Context, results []models.BatchResult) (*models.Blob, error) {
	entries := collectEntries(results)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		fw, err := flate.NewWriter(out, deflateLevel)
		if err != nil {
			return nil, err
		}
		return fw, nil
	})

	method := compressionFor(entries)
	modified := now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   method,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	return models.NewBlob(buf.Bytes(), common.ZipMIMEType), nil
}

func collectEntries(results []models.BatchResult) []zipEntry {
	var entries []zipEntry
	index := make(map[string]int)

	for _, r := range lo.Filter(results, func(r models.BatchResult, _ int) bool { return r.Downloadable() }) {
		data := r.Result.Blob.Bytes()
		if data == nil {
			// released since the filter ran
			continue
		}
		e := zipEntry{name: r.Result.Filename, data: data}
		if i, ok := index[e.name]; ok {
			entries[i] = e
			continue
		}
		index[e.name] = len(entries)
		entries = append(entries, e)
	}
	return entries
}

func compressionFor(entries []zipEntry) uint16 {
	if lo.SomeBy(entries, func(e zipEntry) bool {
		return strings.HasSuffix(strings.ToLower(e.name), ".png")
	}) {
		return zip.Store
	}
	return zip.Deflate
}

var now = time.Now
