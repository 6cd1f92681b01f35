package download

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/samber/lo"
)

// Stats summarizes a set of batch results for display.
type Stats struct {
	Total         int    `json:"total"`
	Downloadable  int    `json:"downloadable"`
	Failed        int    `json:"failed"`
	TotalSize     int64  `json:"total_size"`
	FormattedSize string `json:"formatted_size"`
}

func DownloadStats(results []models.BatchResult) Stats {
	ok := lo.Filter(results, func(r models.BatchResult, _ int) bool { return r.Downloadable() })
	size := lo.SumBy(ok, func(r models.BatchResult) int64 { return r.Result.Size })

	return Stats{
		Total:         len(results),
		Downloadable:  len(ok),
		Failed:        len(results) - len(ok),
		TotalSize:     size,
		FormattedSize: FormatFileSize(size),
	}
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders bytes with a binary unit, rounded to an integer.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	i = min(i, len(sizeUnits)-1)
	v := math.Round(float64(bytes) / math.Pow(1024, float64(i)))
	return fmt.Sprintf("%d %s", int64(v), sizeUnits[i])
}

// GenerateZipFilename names an archive after its size, format and the
// current UTC time.
func GenerateZipFilename(fileCount int, format string) string {
	if format == "" {
		format = "jpg"
	}
	ts := now().UTC().Format("20060102T150405")
	return fmt.Sprintf("converted-%d-images-%s-%s.zip", fileCount, format, ts)
}

type Method string

const (
	MethodNone   Method = "none"
	MethodSingle Method = "single"
	MethodZip    Method = "zip"
)

func RecommendedDownloadMethod(fileCount int) Method {
	switch {
	case fileCount <= 0:
		return MethodNone
	case fileCount == 1:
		return MethodSingle
	default:
		return MethodZip
	}
}
