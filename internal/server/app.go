// Package server runs the avifconv watch daemon. It converts every AVIF file
// that lands in the watch directory, writes the results into the output
// directory, keeps a prepackaged archive of the last batch and serves status
// over gRPC and metrics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/conversion"
	"github.com/dmitrijs2005/avifconv/internal/converter"
	"github.com/dmitrijs2005/avifconv/internal/download"
	"github.com/dmitrijs2005/avifconv/internal/filex"
	"github.com/dmitrijs2005/avifconv/internal/handles"
	"github.com/dmitrijs2005/avifconv/internal/i18n"
	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/metrics"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/dmitrijs2005/avifconv/internal/queue"
	"github.com/dmitrijs2005/avifconv/internal/server/config"
	"github.com/dmitrijs2005/avifconv/internal/server/watcher"
	"github.com/samber/lo"
	"golang.org/x/text/language"

	gs "github.com/dmitrijs2005/avifconv/internal/server/grpc"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	locale  language.Tag
	metrics *metrics.Collector

	queue     *queue.Manager
	conv      *conversion.Manager
	downloads *download.Service
	status    *gs.GRPCServer

	// processMu serializes batches.
	processMu sync.Mutex
}

// Option customizes NewApp.
type Option func(*appOptions)

type appOptions struct {
	converter   *converter.Converter
	registry    *handles.Registry
	managerOpts []conversion.Option
}

func WithConverter(c *converter.Converter) Option {
	return func(o *appOptions) { o.converter = c }
}

func WithRegistry(r *handles.Registry) Option {
	return func(o *appOptions) { o.registry = r }
}

func WithManagerOptions(opts ...conversion.Option) Option {
	return func(o *appOptions) { o.managerOpts = append(o.managerOpts, opts...) }
}

func NewApp(c *config.Config, l logging.Logger, opts ...Option) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = handles.NewRegistry()
	}
	if o.converter == nil {
		o.converter = converter.New(converter.WithHandles(o.registry))
	}
	if !o.converter.IsSupported() {
		return nil, common.ErrNotSupported
	}

	l = logging.OrNop(l)
	m := metrics.New()

	managerOpts := append([]conversion.Option{conversion.WithRecorder(m)}, o.managerOpts...)

	app := &App{
		config:    c,
		logger:    l.With("module", "daemon"),
		locale:    i18n.Match(c.Locale),
		metrics:   m,
		queue:     queue.NewManager(o.registry, l),
		conv:      conversion.NewManager(o.converter, l, managerOpts...),
		downloads: download.NewService(c.OutputDir, o.registry, l),
	}
	app.status = gs.NewGRPCServer(c.GRPCAddr, l, app.conv, app.downloads)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.status.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "metrics server shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startWatcher(ctx context.Context, cancelFunc context.CancelFunc) {
	w, err := watcher.New(app.config.WatchDir, app.config.Debounce, app.logger)
	if err != nil {
		app.logger.Error(ctx, "watcher init failed", "error", err)
		cancelFunc()
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.consume(ctx, w.Paths())
	}()

	if err := w.Run(ctx); err != nil {
		app.logger.Error(ctx, "watcher failed", "error", err)
		cancelFunc()
	}
	wg.Wait()
}

// consume converts paths as they settle. Paths that are already waiting are
// converted together as one batch.
func (app *App) consume(ctx context.Context, paths <-chan string) {
	for p := range paths {
		batch := []string{p}
	drain:
		for {
			select {
			case more, ok := <-paths:
				if !ok {
					break drain
				}
				batch = append(batch, more)
			default:
				break drain
			}
		}
		if _, err := app.Process(ctx, lo.Uniq(batch)); err != nil {
			app.logger.Warn(ctx, "batch not processed", "error", err)
		}
	}
}

// Run starts the daemon and blocks until a signal arrives, ctx is done or a
// component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	for _, dir := range []string{app.config.WatchDir, app.config.OutputDir} {
		if _, err := filex.EnsureDir(dir); err != nil {
			return fmt.Errorf("prepare %s: %w", dir, err)
		}
	}

	env := app.downloads.ValidateEnvironment()
	for _, w := range env.Warnings {
		app.logger.Warn(ctx, i18n.Warning(app.locale, w), "key", w.Key)
	}

	var wg sync.WaitGroup
	for _, start := range []func(context.Context, context.CancelFunc){
		app.startGRPCServer,
		app.startMetricsServer,
		app.startWatcher,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start(ctx, cancelFunc)
		}()
	}

	if err := app.processExisting(ctx); err != nil {
		app.logger.Warn(ctx, "initial scan failed", "error", err)
	}

	wg.Wait()
	app.shutdown(context.WithoutCancel(ctx))
	return nil
}

// processExisting converts files that were in the watch directory before the
// daemon started, skipping those whose output already exists.
func (app *App) processExisting(ctx context.Context) error {
	paths, err := watcher.Existing(app.config.WatchDir)
	if err != nil {
		return err
	}
	format := app.config.TargetFormat()
	pending := lo.Filter(paths, func(p string, _ int) bool {
		out := filepath.Join(app.config.OutputDir, converter.GenerateOutputFilename(filepath.Base(p), format))
		_, err := os.Stat(out)
		return errors.Is(err, os.ErrNotExist)
	})
	if len(pending) == 0 {
		return nil
	}
	_, err = app.Process(ctx, pending)
	return err
}

// ProcessResult summarizes one Process call.
type ProcessResult struct {
	Queued    int
	Converted int
	Saved     []string
	Failed    []string
}

// Process converts paths as one batch and writes every result into the
// output directory. Results of the previous batch are dropped first; the
// archive of this batch stays available to SaveArchive.
func (app *App) Process(ctx context.Context, paths []string) (ProcessResult, error) {
	app.processMu.Lock()
	defer app.processMu.Unlock()

	var res ProcessResult

	files, err := filex.Collect(paths)
	if err != nil {
		app.logger.Warn(ctx, "some files could not be read", "error", err)
	}

	items := app.queue.AddFiles(ctx, files)
	res.Queued = len(items)
	if len(items) == 0 {
		return res, nil
	}
	defer func() {
		for _, it := range items {
			app.queue.RemoveItem(ctx, it.ID)
		}
	}()

	app.conv.Wait()
	app.conv.ClearCompletedTasks(ctx)

	batch := lo.Map(items, func(it models.QueueItem, _ int) models.BatchItem {
		return models.BatchItem{ID: it.ID, File: it.File}
	})
	results, err := app.conv.StartBatchConversion(ctx, batch, app.config.TargetFormat(), app.config.Quality, nil)
	if err != nil {
		return res, err
	}

	names := lo.SliceToMap(items, func(it models.QueueItem) (string, string) { return it.ID, it.Name })
	for _, r := range results {
		if !r.Success {
			res.Failed = append(res.Failed, names[r.ImageID])
			app.logger.Warn(ctx, "conversion failed", "file", names[r.ImageID], "error", r.Error)
			continue
		}
		res.Converted++
		path, err := app.downloads.DownloadFile(ctx, r.Result.Blob, r.Result.Filename)
		if err != nil {
			res.Failed = append(res.Failed, names[r.ImageID])
			app.logger.Error(ctx, "saving result failed", "file", names[r.ImageID], "error", err)
			continue
		}
		res.Saved = append(res.Saved, path)
	}

	app.conv.Wait()
	app.logger.Info(ctx, "batch saved", "queued", res.Queued, "saved", len(res.Saved), "failed", len(res.Failed))
	return res, nil
}

func (app *App) shutdown(ctx context.Context) {
	app.logger.Info(ctx, "Stopping app...")
	app.conv.Wait()
	app.conv.Destroy(ctx)
	app.queue.Destroy(ctx)
}
