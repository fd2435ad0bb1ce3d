package dto

// InfoRequest is the body of POST /v1/info, as a form or JSON.
type InfoRequest struct {
	URL string `form:"url" json:"url"`
}

// DownloadRequest is the body of POST /v1/download, as a form or JSON.
type DownloadRequest struct {
	URL      string `form:"url" json:"url"`
	FormatID string `form:"format_id" json:"format_id"`
	JobID    string `form:"job_id" json:"job_id"`
}

type FormatResponse struct {
	FormatID string   `json:"format_id"`
	Quality  string   `json:"quality"`
	Ext      string   `json:"ext"`
	Filesize *int64   `json:"filesize"`
	FPS      *float64 `json:"fps"`
}

type VideoInfoResponse struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Duration  int64            `json:"duration"`
	Thumbnail string           `json:"thumbnail"`
	Uploader  string           `json:"uploader"`
	ViewCount int64            `json:"view_count"`
	Formats   []FormatResponse `json:"formats"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Retry bool   `json:"retry,omitempty"`
}

type StatsResponse struct {
	VideoID   string           `json:"video_id"`
	Downloads map[string]int64 `json:"downloads"`
	Total     int64            `json:"total"`
}
