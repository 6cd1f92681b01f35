package models

import "time"

type TaskStatus string

const (
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// ConversionResult is the output of a completed conversion.
type ConversionResult struct {
	Blob     *Blob  `json:"-"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Format   Format `json:"format"`
}

// ConversionTask tracks the conversion of one queue item. Result is set only
// when Status is completed, Error only when it is failed.
type ConversionTask struct {
	ID            string            `json:"id"`
	Status        TaskStatus        `json:"status"`
	Progress      int               `json:"progress"`
	Result        *ConversionResult `json:"result,omitempty"`
	Error         string            `json:"error,omitempty"`
	TargetFormat  Format            `json:"target_format"`
	StartTime     time.Time         `json:"start_time"`
	CompletedTime time.Time         `json:"completed_time,omitempty"`

	File *File `json:"-"`
}

// BatchItem is one (id, file) pair handed to a batch conversion.
type BatchItem struct {
	ID   string
	File *File
}

// BatchResult is the per-item outcome of a batch conversion.
type BatchResult struct {
	ImageID string            `json:"image_id"`
	Success bool              `json:"success"`
	Result  *ConversionResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Downloadable reports whether the result carries output bytes.
func (r BatchResult) Downloadable() bool {
	return r.Success && r.Result != nil && r.Result.Blob != nil && !r.Result.Blob.Released()
}
