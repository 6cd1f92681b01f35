// Package conversion orchestrates conversions: it tracks a task per queue
// item, runs batches sequentially with staged progress, and builds a ZIP of
// the finished results in the background so a later "download all" costs
// nothing.
//
// Progress of a batch is reported on a single 0..100 scale: converting takes
// 0..80, packing 80..100.
package conversion

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/converter"
	"github.com/dmitrijs2005/avifconv/internal/download"
	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/dmitrijs2005/avifconv/internal/pubsub"
	"github.com/samber/lo"
)

const (
	MaxConvertingProgress = 80

	batchYield = 10 * time.Millisecond
)

// Converter turns one AVIF file into the target encoding.
type Converter interface {
	ConvertToFormat(ctx context.Context, file *models.File, target models.Format, quality float64) (*models.Blob, error)
}

// ZipBuilder packs results into one archive.
type ZipBuilder func(ctx context.Context, results []models.BatchResult) (*models.Blob, error)

// Recorder observes finished conversions and archive builds.
type Recorder interface {
	ObserveConversion(format models.Format, status models.TaskStatus, elapsed time.Duration)
	ObserveArchive(files int, size int64, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveConversion(models.Format, models.TaskStatus, time.Duration) {}
func (nopRecorder) ObserveArchive(int, int64, error)                                {}

type Option func(*Manager)

func WithZipBuilder(b ZipBuilder) Option {
	return func(m *Manager) { m.buildZip = b }
}

func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithTickInterval sets the pace of the packing progress ticker.
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tick = d }
}

type Manager struct {
	conv     Converter
	hub      *pubsub.Hub[Event]
	logger   logging.Logger
	recorder Recorder
	buildZip ZipBuilder
	tick     time.Duration

	// yield runs between batch items.
	yield func(ctx context.Context)

	mu         sync.Mutex
	tasks      map[string]*models.ConversionTask
	zip        *models.PrepackagedZip
	packing    bool
	generation uint64

	wg sync.WaitGroup
}

func NewManager(conv Converter, l logging.Logger, opts ...Option) *Manager {
	l = logging.OrNop(l).With("module", "conversion")
	m := &Manager{
		conv:     conv,
		hub:      pubsub.New[Event](l),
		logger:   l,
		recorder: nopRecorder{},
		buildZip: download.CreateZipBlob,
		tick:     packingTick,
		yield:    sleepCtx(batchYield),
		tasks:    make(map[string]*models.ConversionTask),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func sleepCtx(d time.Duration) func(context.Context) {
	return func(ctx context.Context) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
}

// StartConversion converts one file and records the outcome under id,
// replacing any earlier task with that id. A failed conversion is both
// recorded and returned.
func (m *Manager) StartConversion(ctx context.Context, id string, file *models.File, target models.Format, quality float64) (*models.ConversionResult, error) {
	if id == "" || file == nil {
		return nil, common.ErrInvalidParameters
	}
	if !converter.IsAvifFile(file) {
		return nil, common.ErrInvalidAvifFile
	}

	task := &models.ConversionTask{
		ID:           id,
		Status:       models.StatusProcessing,
		TargetFormat: target,
		StartTime:    time.Now(),
		File:         file,
	}

	m.mu.Lock()
	m.tasks[id] = task
	started := *task
	m.mu.Unlock()

	m.hub.Publish(ctx, Event{Name: EventTaskStarted, Task: &started})

	blob, err := m.conv.ConvertToFormat(ctx, file, target, quality)

	var result *models.ConversionResult
	if err == nil {
		result = &models.ConversionResult{
			Blob:     blob,
			Filename: converter.GenerateOutputFilename(file.Name, target),
			Size:     blob.Size(),
			Format:   target,
		}
	}

	m.mu.Lock()
	if m.tasks[id] != task {
		// cleared or replaced while converting
		m.mu.Unlock()
		return result, err
	}
	task.CompletedTime = time.Now()
	name := EventTaskCompleted
	if err != nil {
		task.Status = models.StatusFailed
		task.Error = err.Error()
		name = EventTaskFailed
	} else {
		task.Status = models.StatusCompleted
		task.Progress = 100
		task.Result = result
	}
	done := *task
	m.mu.Unlock()

	m.recorder.ObserveConversion(target, done.Status, done.CompletedTime.Sub(done.StartTime))
	m.hub.Publish(ctx, Event{Name: name, Task: &done})

	return result, err
}

// StartBatchConversion converts items one after another in input order.
// Item failures are recorded in the returned results; only an empty batch is
// an error. When anything succeeded, prepackaging starts in the background.
func (m *Manager) StartBatchConversion(ctx context.Context, items []models.BatchItem, target models.Format, quality float64, onProgress ProgressFunc) ([]models.BatchResult, error) {
	if len(items) == 0 {
		return nil, common.ErrInvalidImagesArray
	}

	total := len(items)
	m.hub.Publish(ctx, Event{Name: EventBatchStarted, Batch: &BatchSummary{Total: total, Format: target}})

	results := make([]models.BatchResult, 0, total)
	for i, item := range items {
		r := models.BatchResult{ImageID: item.ID}
		res, err := m.StartConversion(ctx, item.ID, item.File, target, quality)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Success = true
			r.Result = res
		}
		results = append(results, r)

		if onProgress != nil {
			onProgress(Progress{
				Completed: i + 1,
				Total:     total,
				Current:   item,
				Progress:  float64(i+1) / float64(total) * MaxConvertingProgress,
				Stage:     StageConverting,
				Results:   slices.Clone(results),
			})
		}

		if i < total-1 {
			m.yield(ctx)
		}
	}

	successful := lo.CountBy(results, func(r models.BatchResult) bool { return r.Success })
	m.logger.Info(ctx, "batch completed", "total", total, "successful", successful, "failed", total-successful)
	m.hub.Publish(ctx, Event{Name: EventBatchCompleted, Batch: &BatchSummary{
		Total:      total,
		Successful: successful,
		Failed:     total - successful,
		Format:     target,
		Results:    slices.Clone(results),
	}})

	if successful > 0 {
		m.startPrepackaging(context.WithoutCancel(ctx), target)
	}

	return results, nil
}

// TaskStatus returns a copy of the task recorded under id.
func (m *Manager) TaskStatus(id string) (models.ConversionTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return models.ConversionTask{}, false
	}
	return *t, true
}

// AllTasks returns copies of every task, oldest first.
func (m *Manager) AllTasks() []models.ConversionTask {
	m.mu.Lock()
	out := make([]models.ConversionTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b models.ConversionTask) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (m *Manager) Stats() Stats {
	tasks := m.AllTasks()
	return Stats{
		Total:      len(tasks),
		Processing: lo.CountBy(tasks, hasStatus(models.StatusProcessing)),
		Completed:  lo.CountBy(tasks, hasStatus(models.StatusCompleted)),
		Failed:     lo.CountBy(tasks, hasStatus(models.StatusFailed)),
	}
}

func hasStatus(s models.TaskStatus) func(models.ConversionTask) bool {
	return func(t models.ConversionTask) bool { return t.Status == s }
}

// ClearCompletedTasks drops every finished task, completed or failed, and
// releases its output bytes. An archive still being built from them is
// discarded. Nothing is published when nothing was removed.
func (m *Manager) ClearCompletedTasks(ctx context.Context) {
	m.mu.Lock()
	var removed []models.ConversionTask
	for id, t := range m.tasks {
		if t.Status != models.StatusCompleted && t.Status != models.StatusFailed {
			continue
		}
		releaseResult(t)
		removed = append(removed, *t)
		delete(m.tasks, id)
	}
	if len(removed) > 0 {
		m.generation++
	}
	m.mu.Unlock()

	if len(removed) > 0 {
		m.hub.Publish(ctx, Event{Name: EventTasksCleared, Tasks: removed})
	}
}

// ClearAllTasks drops every task and releases its output bytes. An archive
// still being built is discarded.
func (m *Manager) ClearAllTasks(ctx context.Context) {
	m.mu.Lock()
	removed := make([]models.ConversionTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		releaseResult(t)
		removed = append(removed, *t)
	}
	m.tasks = make(map[string]*models.ConversionTask)
	m.generation++
	m.mu.Unlock()

	m.hub.Publish(ctx, Event{Name: EventAllTasksCleared, Tasks: removed})
}

// RemoveTask drops the task recorded under id and releases its output. The
// cached archive includes that output, so it is cleared as well.
func (m *Manager) RemoveTask(ctx context.Context, id string) bool {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	releaseResult(t)
	removed := *t
	delete(m.tasks, id)
	m.mu.Unlock()

	m.hub.Publish(ctx, Event{Name: EventTasksCleared, Tasks: []models.ConversionTask{removed}})
	m.ClearZipCache(ctx)
	return true
}

func releaseResult(t *models.ConversionTask) {
	if t.Result != nil {
		t.Result.Blob.Release()
	}
}

// PrepackagedZip returns the cached archive, if any.
func (m *Manager) PrepackagedZip() (*models.PrepackagedZip, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.zip == nil {
		return nil, false
	}
	z := *m.zip
	return &z, true
}

// ClearZipCache forgets the cached archive and discards one still being
// built. The blob itself is left alone since a save may still be reading it.
func (m *Manager) ClearZipCache(ctx context.Context) {
	m.mu.Lock()
	m.zip = nil
	m.generation++
	m.mu.Unlock()

	m.hub.Publish(ctx, Event{Name: EventZipCacheCleared})
}

// Subscribe registers fn for every event and returns its unsubscribe func.
func (m *Manager) Subscribe(fn func(Event)) (func(), error) {
	return m.hub.Subscribe(fn)
}

// Destroy clears the archive cache, then every task, then every listener. A
// prepackaging job still running is discarded when it finishes.
func (m *Manager) Destroy(ctx context.Context) {
	m.mu.Lock()
	m.generation++
	m.mu.Unlock()

	m.ClearZipCache(ctx)
	m.ClearAllTasks(ctx)
	m.hub.Clear()
}

// Wait blocks until background prepackaging has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
