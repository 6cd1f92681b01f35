package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveConversion(t *testing.T) {
	c := New()

	c.ObserveConversion(models.FormatJPEG, models.StatusCompleted, 20*time.Millisecond)
	c.ObserveConversion(models.FormatJPEG, models.StatusCompleted, 30*time.Millisecond)
	c.ObserveConversion(models.FormatPNG, models.StatusFailed, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.conversions.WithLabelValues("jpeg", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversions.WithLabelValues("png", "failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
}

func TestObserveArchive(t *testing.T) {
	c := New()

	c.ObserveArchive(3, 1024, nil)
	c.ObserveArchive(2, 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.archives))
	assert.Equal(t, 1024.0, testutil.ToFloat64(c.archiveBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.archiveErrors))

	expected := `
# HELP avifconv_archive_failures_total Prepackaging attempts that failed.
# TYPE avifconv_archive_failures_total counter
avifconv_archive_failures_total 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "avifconv_archive_failures_total"))
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveArchive(1, 10, nil)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "avifconv_archives_built_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
