// Package metrics exposes conversion and archive counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "avifconv"

// Collector records what the conversion manager does. It satisfies
// conversion.Recorder.
type Collector struct {
	registry *prometheus.Registry

	conversions   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	archives      prometheus.Counter
	archiveBytes  prometheus.Counter
	archiveFiles  prometheus.Histogram
	archiveErrors prometheus.Counter
}

// New registers every metric on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Finished conversions by target format and outcome.",
		}, []string{"format", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting one image.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"format"}),
		archives: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_built_total",
			Help:      "ZIP archives prepackaged successfully.",
		}),
		archiveBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_bytes_total",
			Help:      "Bytes written into prepackaged archives.",
		}),
		archiveFiles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_files",
			Help:      "Entries per prepackaged archive.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		archiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Prepackaging attempts that failed.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.conversions,
		c.duration,
		c.archives,
		c.archiveBytes,
		c.archiveFiles,
		c.archiveErrors,
	)
	return c
}

func (c *Collector) ObserveConversion(format models.Format, status models.TaskStatus, elapsed time.Duration) {
	c.conversions.WithLabelValues(string(format), string(status)).Inc()
	c.duration.WithLabelValues(string(format)).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveArchive(files int, size int64, err error) {
	if err != nil {
		c.archiveErrors.Inc()
		return
	}
	c.archives.Inc()
	c.archiveBytes.Add(float64(size))
	c.archiveFiles.Observe(float64(files))
}

// Registry is the registry every metric lives on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
