package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/avifconv/internal/appstate"
	"github.com/dmitrijs2005/avifconv/internal/client/config"
	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/conversion"
	"github.com/dmitrijs2005/avifconv/internal/converter"
	"github.com/dmitrijs2005/avifconv/internal/download"
	"github.com/dmitrijs2005/avifconv/internal/handles"
	"github.com/dmitrijs2005/avifconv/internal/i18n"
	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/queue"
	"golang.org/x/term"
	"golang.org/x/text/language"
)

// BatchProgress mirrors the progress of the last batch on the 0..100 scale.
type BatchProgress struct {
	Completed int
	Total     int
	Progress  float64
	Stage     conversion.Stage
}

type App struct {
	config *config.Config
	logger logging.Logger
	locale language.Tag
	out    io.Writer

	queue     *queue.Manager
	conv      *conversion.Manager
	downloads *download.Service
	state     *appstate.State

	quality float64
	bar     *progressView

	mu       sync.Mutex
	progress *BatchProgress
	zipReady bool
	packing  bool

	unsubscribe []func()
}

// Option customizes NewApp.
type Option func(*appOptions)

type appOptions struct {
	converter   *converter.Converter
	registry    *handles.Registry
	out         io.Writer
	managerOpts []conversion.Option
}

func WithConverter(c *converter.Converter) Option {
	return func(o *appOptions) { o.converter = c }
}

func WithRegistry(r *handles.Registry) Option {
	return func(o *appOptions) { o.registry = r }
}

// WithOutput redirects the progress bar. A writer that is not a terminal
// gets no bar.
func WithOutput(w io.Writer) Option {
	return func(o *appOptions) { o.out = w }
}

func WithManagerOptions(opts ...conversion.Option) Option {
	return func(o *appOptions) { o.managerOpts = append(o.managerOpts, opts...) }
}

func NewApp(c *config.Config, l logging.Logger, opts ...Option) (*App, error) {
	o := &appOptions{out: os.Stdout}
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

	state, err := appstate.New(l, map[appstate.Key]string{appstate.KeyMode: c.Format().Extension()})
	if err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}

	a := &App{
		config:    c,
		logger:    l.With("module", "cli"),
		locale:    i18n.Match(c.Locale),
		out:       o.out,
		queue:     queue.NewManager(o.registry, l),
		conv:      conversion.NewManager(o.converter, l, o.managerOpts...),
		downloads: download.NewService(c.OutputDir, o.registry, l),
		state:     state,
		quality:   c.Quality,
	}
	if c.Progress && isTerminal(o.out) {
		a.bar = newProgressView(o.out, terminalWidth(o.out))
	}

	unsub, err := a.conv.Subscribe(a.onConversionEvent)
	if err != nil {
		return nil, err
	}
	a.unsubscribe = append(a.unsubscribe, unsub)

	return a, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// onConversionEvent keeps the batch progress and the archive readiness in
// sync with the conversion manager.
func (a *App) onConversionEvent(e conversion.Event) {
	a.mu.Lock()
	switch e.Name {
	case conversion.EventBatchStarted:
		a.progress = &BatchProgress{Total: e.Batch.Total, Stage: conversion.StageConverting}
	case conversion.EventPrepackagingStarted:
		a.packing = true
		a.zipReady = false
		if a.progress != nil {
			a.progress.Stage = conversion.StagePacking
		}
	case conversion.EventPrepackagingProgress:
		if a.progress != nil {
			a.progress.Progress = float64(e.Packing.Progress)
			a.progress.Stage = e.Packing.Stage
		}
	case conversion.EventPrepackagingCompleted:
		a.packing = false
		a.zipReady = true
		if a.progress != nil {
			a.progress.Progress = 100
			a.progress.Stage = conversion.StageCompleted
		}
	case conversion.EventPrepackagingFailed:
		a.packing = false
		a.zipReady = false
	case conversion.EventZipCacheCleared, conversion.EventAllTasksCleared:
		a.zipReady = false
		a.packing = false
	}
	snapshot := a.progressSnapshot()
	a.mu.Unlock()

	switch e.Name {
	case conversion.EventPrepackagingProgress, conversion.EventPrepackagingCompleted:
		a.renderProgress(snapshot)
	case conversion.EventPrepackagingFailed:
		a.logger.Warn(context.Background(), "zip prepackaging failed", "error", e.Packing.Error)
	}
}

func (a *App) progressSnapshot() *BatchProgress {
	if a.progress == nil {
		return nil
	}
	p := *a.progress
	return &p
}

// Progress returns the progress of the last batch, if any.
func (a *App) Progress() (BatchProgress, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.progress == nil {
		return BatchProgress{}, false
	}
	return *a.progress, true
}

// ZipReady reports whether a prepackaged archive of the current results is
// available.
func (a *App) ZipReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.zipReady
}

func (a *App) renderProgress(p *BatchProgress) {
	if a.bar == nil || p == nil {
		return
	}
	a.bar.render(p.Progress, p.Stage)
}

// status is shown in the prompt.
func (a *App) status() string {
	return fmt.Sprintf("(%s, %s, %d queued)", a.state.Get(appstate.KeyMode), a.state.Get(appstate.KeyCurrentView), a.queue.Len())
}

// describe renders err in the configured locale.
func (a *App) describe(err error) string {
	return i18n.Message(a.locale, err)
}

// Close stops background work and drops every listener and result.
func (a *App) Close(ctx context.Context) {
	a.conv.Wait()
	for _, u := range a.unsubscribe {
		u()
	}
	a.conv.Destroy(ctx)
	a.queue.Destroy(ctx)
	a.state.Destroy()
}
