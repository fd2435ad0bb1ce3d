package fetcher

import (
	"github.com/your-org/tubefetch/internal/models"
	"github.com/your-org/tubefetch/pkg/dto"
)

const (
	StateQueued      = "queued"
	StateDownloading = "downloading"
	StateFinished    = "finished"
	StateFailed      = "failed"
)

// ProgressEvent is one step of a download job.
type ProgressEvent struct {
	JobID    string
	VideoID  models.VideoID
	State    string
	Progress models.Progress
	Filename string
}

// DTO converts the event to its wire form. Percent is -1 while the total size
// is unknown.
func (e ProgressEvent) DTO() dto.ProgressEvent {
	return dto.ProgressEvent{
		JobID:           e.JobID,
		VideoID:         string(e.VideoID),
		State:           e.State,
		DownloadedBytes: e.Progress.DownloadedBytes,
		TotalBytes:      e.Progress.TotalBytes,
		Percent:         e.Progress.Percent(),
		ETA:             int64(e.Progress.ETA.Seconds()),
		Filename:        e.Filename,
	}
}
