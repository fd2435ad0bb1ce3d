package dto

// ProgressEvent is a download progress message, as published on NATS and
// delivered over the WebSocket.
type ProgressEvent struct {
	JobID           string  `json:"job_id"`
	VideoID         string  `json:"video_id"`
	State           string  `json:"state"` // queued, downloading, finished, failed
	DownloadedBytes int64   `json:"downloaded_bytes"`
	TotalBytes      int64   `json:"total_bytes,omitempty"`
	Percent         float64 `json:"percent"`
	ETA             int64   `json:"eta,omitempty"` // seconds
	Filename        string  `json:"filename,omitempty"`
}
