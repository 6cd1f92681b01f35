package models

import "time"

// ZipInfo describes a prepackaged archive.
type ZipInfo struct {
	Filename  string    `json:"filename"`
	FileCount int       `json:"file_count"`
	Size      int64     `json:"size"`
	Format    Format    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
}

// PrepackagedZip is the cached archive together with its metadata.
type PrepackagedZip struct {
	Blob *Blob
	Info ZipInfo
}
