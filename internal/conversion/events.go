package conversion

import "github.com/dmitrijs2005/avifconv/internal/models"

type EventName string

const (
	EventTaskStarted           EventName = "taskStarted"
	EventTaskCompleted         EventName = "taskCompleted"
	EventTaskFailed            EventName = "taskFailed"
	EventBatchStarted          EventName = "batchStarted"
	EventBatchCompleted        EventName = "batchCompleted"
	EventPrepackagingStarted   EventName = "prepackagingStarted"
	EventPrepackagingProgress  EventName = "prepackagingProgress"
	EventPrepackagingCompleted EventName = "prepackagingCompleted"
	EventPrepackagingFailed    EventName = "prepackagingFailed"
	EventTasksCleared          EventName = "tasksCleared"
	EventAllTasksCleared       EventName = "allTasksCleared"
	EventZipCacheCleared       EventName = "zipCacheCleared"
)

// Stage names the part of the overall 0..100 batch scale a progress value
// belongs to.
type Stage string

const (
	StageConverting Stage = "converting"
	StagePacking    Stage = "packing"
	StageCompleted  Stage = "completed"
)

// Event is delivered to subscribers. Which payload field is set depends on
// Name: Task for task*, Tasks for *Cleared, Batch for batch*, Packing for
// prepackaging*.
type Event struct {
	Name    EventName
	Task    *models.ConversionTask
	Tasks   []models.ConversionTask
	Batch   *BatchSummary
	Packing *Packing
}

// BatchSummary describes a batch when it starts and when it completes.
// Results is only set on completion.
type BatchSummary struct {
	Total      int
	Successful int
	Failed     int
	Format     models.Format
	Results    []models.BatchResult
}

// Packing carries prepackaging state. Info is set on completion, Error on
// failure.
type Packing struct {
	Format   models.Format
	Stage    Stage
	Progress int
	Info     *models.ZipInfo
	Error    string
}

// Progress is reported to a batch caller after every item. Progress runs from
// 0 to MaxConvertingProgress during the converting stage.
type Progress struct {
	Completed int
	Total     int
	Current   models.BatchItem
	Progress  float64
	Stage     Stage
	Results   []models.BatchResult
}

type ProgressFunc func(Progress)

// Stats counts tasks by status.
type Stats struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
