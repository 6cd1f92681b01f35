package conversion

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/download"
	"github.com/dmitrijs2005/avifconv/internal/models"
)

const (
	packingTick    = 200 * time.Millisecond
	packingCeiling = 95
)

// startPrepackaging drops the archive of the previous batch, announces
// packing and collects the completed results synchronously, then builds the
// archive on its own goroutine. At most one job runs per manager; a request
// made while one is in flight is dropped.
func (m *Manager) startPrepackaging(ctx context.Context, format models.Format) {
	m.mu.Lock()
	if m.packing {
		m.mu.Unlock()
		m.logger.Debug(ctx, "prepackaging already running")
		return
	}
	m.packing = true
	stale := m.zip != nil
	m.zip = nil
	gen := m.generation
	m.mu.Unlock()

	if stale {
		m.hub.Publish(ctx, Event{Name: EventZipCacheCleared})
	}
	m.hub.Publish(ctx, Event{Name: EventPrepackagingStarted, Packing: &Packing{Format: format, Stage: StagePacking}})

	results := m.completedResults()
	if len(results) == 0 {
		m.mu.Lock()
		m.packing = false
		m.mu.Unlock()
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.prepackage(ctx, gen, format, results)
	}()
}

func (m *Manager) completedResults() []models.BatchResult {
	var out []models.BatchResult
	for _, t := range m.AllTasks() {
		if t.Status == models.StatusCompleted && t.Result != nil {
			out = append(out, models.BatchResult{ImageID: t.ID, Success: true, Result: t.Result})
		}
	}
	return out
}

func (m *Manager) prepackage(ctx context.Context, gen uint64, format models.Format, results []models.BatchResult) {
	filename := download.GenerateZipFilename(len(results), format.Extension())

	stop := m.simulatePackingProgress(ctx, format)
	blob, err := m.buildZip(ctx, results)
	stop()

	m.recorder.ObserveArchive(len(results), blob.Size(), err)

	m.mu.Lock()
	m.packing = false
	if m.generation != gen {
		m.mu.Unlock()
		m.logger.Debug(ctx, "discarding archive of cleared results")
		return
	}
	if err != nil {
		m.mu.Unlock()
		m.logger.Error(ctx, "prepackaging failed", "error", err)
		m.hub.Publish(ctx, Event{Name: EventPrepackagingFailed, Packing: &Packing{Format: format, Stage: StagePacking, Error: err.Error()}})
		return
	}
	info := models.ZipInfo{
		Filename:  filename,
		FileCount: len(results),
		Size:      blob.Size(),
		Format:    format,
		CreatedAt: time.Now(),
	}
	m.zip = &models.PrepackagedZip{Blob: blob, Info: info}
	m.mu.Unlock()

	m.logger.Info(ctx, "archive ready", "filename", filename, "files", info.FileCount, "bytes", info.Size)
	m.hub.Publish(ctx, Event{Name: EventPrepackagingCompleted, Packing: &Packing{
		Format:   format,
		Stage:    StageCompleted,
		Progress: 100,
		Info:     &info,
	}})
}

// simulatePackingProgress climbs from MaxConvertingProgress towards
// packingCeiling one point per tick. The archiver reports no progress of its
// own, so the numbers are cosmetic. The returned func stops the ticker and
// returns once no further progress event can be published.
func (m *Manager) simulatePackingProgress(ctx context.Context, format models.Format) func() {
	ticker := time.NewTicker(m.tick)
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		progress := MaxConvertingProgress
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if progress >= packingCeiling {
					continue
				}
				progress++
				m.hub.Publish(ctx, Event{Name: EventPrepackagingProgress, Packing: &Packing{Format: format, Stage: StagePacking, Progress: progress}})
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
		wg.Wait()
	}
}
