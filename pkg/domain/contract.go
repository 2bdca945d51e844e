package domain

import (
	"path"
	"strings"
	"time"
)

type UploadStatus string

const (
	StatusPending    UploadStatus = "pending"
	StatusProcessing UploadStatus = "processing"
	StatusCompleted  UploadStatus = "completed"
	StatusFailed     UploadStatus = "failed"
)

// Contract is the persistent record a run reads and writes. Its lifecycle up
// to "processing" is owned by the upload flow; this service only moves it to
// a terminal status and fills raw_text/processed_at.
type Contract struct {
	ID           string       `json:"id"`
	FileName     string       `json:"fileName"`
	StoragePath  string       `json:"storagePath"`
	UploadStatus UploadStatus `json:"uploadStatus"`
	RawText      string       `json:"rawText,omitempty"`
	ProcessedAt  *time.Time   `json:"processedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// DisplayName returns the name used for type inference and the envelope
// header, preferring the uploaded filename over the storage reference.
func (c Contract) DisplayName() string {
	if c.FileName != "" {
		return c.FileName
	}
	ref, _, _ := strings.Cut(c.StoragePath, "?")
	return path.Base(ref)
}

// ExtractionMeta summarizes one successful run; stored as JSON next to the
// text artifact.
type ExtractionMeta struct {
	Pages      int    `json:"pages"`
	OCRPages   int    `json:"ocrPages"`
	DurationMS int64  `json:"durationMs"`
	Method     string `json:"method"`
}
