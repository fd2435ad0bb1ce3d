package models

import "time"

// VideoID is the canonical 11-character identifier of a remote video.
type VideoID string

// RawFormat is one encoding option as reported by the resolution engine.
// Optional attributes are nil when the engine did not report them.
type RawFormat struct {
	FormatID string
	Ext      string
	Height   *int
	FPS      *float64
	Filesize *int64
	HasVideo bool
}

// RawMetadata is the engine's answer to a metadata query.
type RawMetadata struct {
	Title     string
	Duration  *float64
	Thumbnail string
	Uploader  string
	ViewCount *int64
	Formats   []RawFormat
}

// CatalogEntry is a user-selectable quality option.
type CatalogEntry struct {
	FormatID string   `json:"format_id"`
	Quality  string   `json:"quality"`
	Ext      string   `json:"ext"`
	Filesize *int64   `json:"filesize"`
	FPS      *float64 `json:"fps"`

	height int
}

// Height returns the vertical resolution the entry was built from, 0 for the audio entry.
func (e CatalogEntry) Height() int { return e.height }

// NewVideoEntry builds a catalog entry for a video encoding of the given height.
func NewVideoEntry(formatID, quality, ext string, height int, filesize *int64, fps *float64) CatalogEntry {
	return CatalogEntry{
		FormatID: formatID,
		Quality:  quality,
		Ext:      ext,
		Filesize: filesize,
		FPS:      fps,
		height:   height,
	}
}

// VideoMetadata is what a metadata request returns to the user.
type VideoMetadata struct {
	ID        VideoID        `json:"id"`
	Title     string         `json:"title"`
	Duration  int64          `json:"duration"`
	Thumbnail string         `json:"thumbnail"`
	Uploader  string         `json:"uploader"`
	ViewCount int64          `json:"view_count"`
	Formats   []CatalogEntry `json:"formats"`
}

type DirectiveKind string

const (
	DirectiveBest   DirectiveKind = "best"
	DirectiveFormat DirectiveKind = "format"
	DirectiveAudio  DirectiveKind = "audio"
)

// Directive tells the engine which stream to fetch and whether to transcode it.
type Directive struct {
	Kind   DirectiveKind
	Format string

	// Set only for DirectiveAudio.
	AudioCodec   string
	AudioQuality string
}

// ExtractAudio reports whether the engine must transcode to an audio-only file.
func (d Directive) ExtractAudio() bool {
	return d.Kind == DirectiveAudio
}

// Progress is a single download progress sample. TotalBytes is 0 when unknown.
type Progress struct {
	DownloadedBytes int64
	TotalBytes      int64
	ETA             time.Duration
}

// Percent returns completion in [0,100], or -1 when the total is unknown.
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return -1
	}
	pct := float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
