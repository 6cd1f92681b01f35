package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/avifconv/internal/appstate"
	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/conversion"
	"github.com/dmitrijs2005/avifconv/internal/download"
	"github.com/dmitrijs2005/avifconv/internal/filex"
	"github.com/dmitrijs2005/avifconv/internal/i18n"
	"github.com/dmitrijs2005/avifconv/internal/models"
	"github.com/samber/lo"
)

var (
	ErrUsage        = errors.New("usage")
	ErrItemNotFound = errors.New("no such item")
	ErrNotConverted = errors.New("item has not been converted successfully")
	ErrEmptyQueue   = errors.New("queue is empty")
)

// fail reports err to the user and returns it.
func (a *App) fail(ctx context.Context, what string, err error) error {
	a.logger.Debug(ctx, what+" failed", "error", err)
	printlnFn(errorStyle.Render(what+": "+a.describe(err)))
	return err
}

// Add queues every AVIF file found under paths.
func (a *App) Add(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		printlnFn("Usage: add <file|dir> [...]")
		return ErrUsage
	}

	files, err := filex.Collect(paths)
	if err != nil {
		printlnFn(errorStyle.Render(err.Error()))
	}

	added := a.queue.AddFiles(ctx, files)
	skipped := len(files) - len(added)

	msg := fmt.Sprintf("Added %d file(s)", len(added))
	if skipped > 0 {
		msg += fmt.Sprintf(", skipped %d non-AVIF file(s)", skipped)
	}
	printlnFn(okStyle.Render(msg))
	return nil
}

// List prints the queue together with each item's conversion status.
func (a *App) List(ctx context.Context) error {
	items := a.queue.Items()
	if len(items) == 0 {
		printlnFn(mutedStyle.Render("Queue is empty"))
		return nil
	}

	for i, it := range items {
		status := "queued"
		if t, ok := a.conv.TaskStatus(it.ID); ok {
			status = string(t.Status)
			if t.Status == models.StatusCompleted {
				status += " → " + t.Result.Filename + " (" + download.FormatFileSize(t.Result.Size) + ")"
			}
		}
		printlnFn(fmt.Sprintf("%3d. %-32s %8s  %s  %s",
			i+1, it.Name, download.FormatFileSize(it.Size), statusStyle(status).Render(status), mutedStyle.Render(it.ID)))
	}
	return nil
}

// resolve accepts a queue id or a 1-based position as shown by list.
func (a *App) resolve(ref string) (models.QueueItem, error) {
	if it, ok := a.queue.Get(ref); ok {
		return it, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		items := a.queue.Items()
		if n >= 1 && n <= len(items) {
			return items[n-1], nil
		}
	}
	return models.QueueItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, ref)
}

// Remove drops a queued file together with its converted output.
func (a *App) Remove(ctx context.Context, ref string) error {
	if ref == "" {
		printlnFn("Usage: remove <id|n>")
		return ErrUsage
	}
	it, err := a.resolve(ref)
	if err != nil {
		return a.fail(ctx, "remove", err)
	}
	a.conv.Wait()
	a.queue.RemoveItem(ctx, it.ID)
	a.conv.RemoveTask(ctx, it.ID)
	printlnFn(okStyle.Render("Removed " + it.Name))
	return nil
}

// Clear empties the queue, forgets every result and goes back to the upload
// view.
func (a *App) Clear(ctx context.Context) error {
	a.conv.Wait()
	a.queue.ClearAll(ctx)
	a.conv.ClearAllTasks(ctx)
	a.conv.ClearZipCache(ctx)

	a.mu.Lock()
	a.progress = nil
	a.mu.Unlock()

	if err := a.state.Set(ctx, appstate.KeyCurrentView, appstate.ViewUpload); err != nil {
		return err
	}
	printlnFn(okStyle.Render("Cleared"))
	return nil
}

func (a *App) Mode(ctx context.Context, arg string) error {
	if arg == "" {
		printlnFn("Mode: " + a.state.Get(appstate.KeyMode))
		return nil
	}
	f, ok := models.ParseFormat(arg)
	if !ok {
		return a.fail(ctx, "mode", common.ErrUnsupportedFormat)
	}
	if err := a.state.Set(ctx, appstate.KeyMode, f.Extension()); err != nil {
		return a.fail(ctx, "mode", err)
	}
	printlnFn("Mode: " + a.state.Get(appstate.KeyMode))
	return nil
}

func (a *App) Quality(ctx context.Context, arg string) error {
	if arg == "" {
		printlnFn(fmt.Sprintf("Quality: %.2f", a.quality))
		return nil
	}
	q, err := strconv.ParseFloat(arg, 64)
	if err != nil || q < 0 || q > 1 {
		return a.fail(ctx, "quality", common.ErrInvalidQuality)
	}
	a.quality = q
	printlnFn(fmt.Sprintf("Quality: %.2f", a.quality))
	return nil
}

// Convert runs the whole queue through the conversion manager and waits for
// the archive to be prepackaged, drawing progress on the way.
func (a *App) Convert(ctx context.Context) error {
	items := a.queue.Items()
	if len(items) == 0 {
		return a.fail(ctx, "convert", ErrEmptyQueue)
	}

	batch := lo.Map(items, func(it models.QueueItem, _ int) models.BatchItem {
		return models.BatchItem{ID: it.ID, File: it.File}
	})

	results, err := a.conv.StartBatchConversion(ctx, batch, a.state.Format(), a.quality, a.onBatchProgress)
	if err != nil {
		return a.fail(ctx, "convert", err)
	}
	a.conv.Wait()
	if a.bar != nil {
		a.bar.finish()
	}

	for _, r := range results {
		if r.Success {
			continue
		}
		it, _ := a.queue.Get(r.ImageID)
		printlnFn(errorStyle.Render(fmt.Sprintf("%s: %s", it.Name, r.Error)))
	}

	ok := lo.CountBy(results, func(r models.BatchResult) bool { return r.Success })
	printlnFn(okStyle.Render(fmt.Sprintf("Converted %d of %d file(s)", ok, len(results))))

	if ok > 0 {
		return a.state.Set(ctx, appstate.KeyCurrentView, appstate.ViewDownload)
	}
	return nil
}

func (a *App) onBatchProgress(p conversion.Progress) {
	a.mu.Lock()
	a.progress = &BatchProgress{Completed: p.Completed, Total: p.Total, Progress: p.Progress, Stage: p.Stage}
	snapshot := a.progressSnapshot()
	a.mu.Unlock()

	a.renderProgress(snapshot)
}

// Status prints task counts, download statistics and the archive state.
func (a *App) Status(ctx context.Context) error {
	st := a.conv.Stats()
	printlnFn(titleStyle.Render("Tasks") + fmt.Sprintf("  total %d, processing %d, completed %d, failed %d",
		st.Total, st.Processing, st.Completed, st.Failed))

	ds := download.DownloadStats(a.completedResults())
	printlnFn(titleStyle.Render("Results") + fmt.Sprintf("  %d downloadable, %s, recommended: %s",
		ds.Downloadable, ds.FormattedSize, download.RecommendedDownloadMethod(ds.Downloadable)))

	if p, ok := a.Progress(); ok {
		printlnFn(titleStyle.Render("Progress") + fmt.Sprintf("  %.0f%% (%s)", p.Progress, p.Stage))
	}
	a.mu.Lock()
	packing := a.packing
	a.mu.Unlock()
	if packing {
		printlnFn(titleStyle.Render("Archive") + mutedStyle.Render("  packing..."))
	}
	if z, ok := a.conv.PrepackagedZip(); ok && a.ZipReady() {
		printlnFn(titleStyle.Render("Archive") + fmt.Sprintf("  %s, %d file(s), %s",
			z.Info.Filename, z.Info.FileCount, download.FormatFileSize(z.Info.Size)))
	}
	return nil
}

// completedResults lists every completed task as a downloadable result.
func (a *App) completedResults() []models.BatchResult {
	var out []models.BatchResult
	for _, t := range a.conv.AllTasks() {
		if t.Status == models.StatusCompleted && t.Result != nil {
			out = append(out, models.BatchResult{ImageID: t.ID, Success: true, Result: t.Result})
		}
	}
	return out
}

// Save writes one converted file into the output directory.
func (a *App) Save(ctx context.Context, ref string) error {
	if ref == "" {
		printlnFn("Usage: save <id|n>")
		return ErrUsage
	}
	it, err := a.resolve(ref)
	if err != nil {
		return a.fail(ctx, "save", err)
	}
	t, ok := a.conv.TaskStatus(it.ID)
	if !ok || t.Status != models.StatusCompleted || t.Result == nil {
		a.logger.Warn(ctx, "task not completed or no result available", "id", it.ID)
		return a.fail(ctx, "save", fmt.Errorf("%w: %s", ErrNotConverted, it.Name))
	}

	path, err := a.downloads.DownloadFile(ctx, t.Result.Blob, t.Result.Filename)
	if err != nil {
		return a.fail(ctx, "save", err)
	}
	printlnFn(okStyle.Render("Saved " + path))
	return nil
}

// DownloadAllResult reports a "download everything" action.
type DownloadAllResult struct {
	Attempted   int
	Successful  int
	ZipSize     int64
	ZipFilename string
	Path        string
	Prepackaged bool
}

// DownloadAll saves every completed result as one archive. The prepackaged
// archive is used when it is ready; otherwise one is built on the spot.
func (a *App) DownloadAll(ctx context.Context) (DownloadAllResult, error) {
	a.mu.Lock()
	packing := a.packing
	a.mu.Unlock()
	if packing {
		printlnFn(titleStyle.Render("Archive") + mutedStyle.Render("  packing..."))
	}
	if z, ok := a.conv.PrepackagedZip(); ok && a.ZipReady() {
		path, err := a.downloads.DownloadFile(ctx, z.Blob, z.Info.Filename)
		if err != nil {
			return DownloadAllResult{}, err
		}
		a.logger.Info(ctx, "prepackaged zip saved", "filename", z.Info.Filename, "bytes", z.Info.Size)
		return DownloadAllResult{
			Attempted:   z.Info.FileCount,
			Successful:  z.Info.FileCount,
			ZipSize:     z.Info.Size,
			ZipFilename: z.Info.Filename,
			Path:        path,
			Prepackaged: true,
		}, nil
	}

	a.logger.Warn(ctx, "prepackaged zip not available, building one now")
	results := a.completedResults()
	if len(results) == 0 {
		a.logger.Warn(ctx, "no completed conversions to download")
		return DownloadAllResult{}, nil
	}

	name := download.GenerateZipFilename(len(results), a.state.Get(appstate.KeyMode))
	res, err := a.downloads.DownloadAsZip(ctx, results, name)
	if err != nil {
		return DownloadAllResult{}, err
	}
	return DownloadAllResult{
		Attempted:   res.Attempted,
		Successful:  res.Successful,
		ZipSize:     res.ZipSize,
		ZipFilename: res.ZipFilename,
		Path:        res.Path,
	}, nil
}

func (a *App) Download(ctx context.Context) error {
	res, err := a.DownloadAll(ctx)
	if err != nil {
		return a.fail(ctx, "download", err)
	}
	if res.Successful == 0 {
		printlnFn(mutedStyle.Render("Nothing to download"))
		return nil
	}
	how := "built now"
	if res.Prepackaged {
		how = "prepackaged"
	}
	printlnFn(okStyle.Render(fmt.Sprintf("Saved %s (%d file(s), %s, %s)",
		res.Path, res.Successful, download.FormatFileSize(res.ZipSize), how)))
	return nil
}

// Batch saves every completed result as a separate file.
func (a *App) Batch(ctx context.Context) error {
	results := a.completedResults()
	if len(results) == 0 {
		printlnFn(mutedStyle.Render("Nothing to download"))
		return nil
	}
	res, err := a.downloads.DownloadBatch(ctx, results, a.config.BatchDelay)
	if err != nil {
		return a.fail(ctx, "batch", err)
	}
	printlnFn(okStyle.Render(fmt.Sprintf("Saved %d of %d file(s) into %s", res.Successful, res.Attempted, a.downloads.Dir())))
	return nil
}

// Env checks that files can be saved and prints any warning.
func (a *App) Env(ctx context.Context) error {
	env := a.downloads.ValidateEnvironment()
	checks := []struct {
		name string
		ok   bool
	}{
		{"blob storage", env.Checks.BlobSupport},
		{"object handles", env.Checks.HandleSupport},
		{"writable output", env.Checks.LinkDownloadSupport},
		{"private output", env.Checks.SecureContext},
	}
	for _, c := range checks {
		mark := okStyle.Render("ok")
		if !c.ok {
			mark = errorStyle.Render("no")
		}
		printlnFn(fmt.Sprintf("%-16s %s", c.name, mark))
	}
	for _, w := range env.Warnings {
		printlnFn(warnStyle.Render(i18n.Warning(a.locale, w)))
	}
	return nil
}

func (a *App) View(ctx context.Context) error {
	all := a.state.All()
	printlnFn(strings.Join([]string{
		"View: " + all[appstate.KeyCurrentView],
		"Mode: " + all[appstate.KeyMode],
		fmt.Sprintf("Quality: %.2f", a.quality),
		"Output: " + a.downloads.Dir(),
		"Locale: " + a.locale.String(),
	}, "\n"))
	return nil
}
