package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/tubefetch/internal/models"
)

// Subset of yt-dlp's -J output. Numbers are decoded as floats because
// extractors are not consistent about integer fields.
type infoJSON struct {
	Title     string       `json:"title"`
	Duration  *float64     `json:"duration"`
	Thumbnail string       `json:"thumbnail"`
	Uploader  string       `json:"uploader"`
	ViewCount *float64     `json:"view_count"`
	Formats   []formatJSON `json:"formats"`
}

type formatJSON struct {
	FormatID string   `json:"format_id"`
	Ext      string   `json:"ext"`
	Height   *float64 `json:"height"`
	FPS      *float64 `json:"fps"`
	Filesize *float64 `json:"filesize"`
	VCodec   *string  `json:"vcodec"`
}

func parseMetadata(data []byte) (*models.RawMetadata, error) {
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	meta := &models.RawMetadata{
		Title:     info.Title,
		Duration:  info.Duration,
		Thumbnail: info.Thumbnail,
		Uploader:  info.Uploader,
		ViewCount: toInt64(info.ViewCount),
		Formats:   make([]models.RawFormat, 0, len(info.Formats)),
	}

	for _, f := range info.Formats {
		rf := models.RawFormat{
			FormatID: f.FormatID,
			Ext:      f.Ext,
			FPS:      f.FPS,
			Filesize: toInt64(f.Filesize),
			// Only an explicit "none" rules out video.
			HasVideo: f.VCodec == nil || *f.VCodec != "none",
		}
		if f.Height != nil {
			h := int(math.Round(*f.Height))
			rf.Height = &h
		}
		meta.Formats = append(meta.Formats, rf)
	}
	return meta, nil
}

func toInt64(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(math.Round(*v))
	return &n
}

// parseProgress reads "<downloaded> <total> <estimate> <eta>", where any
// field may be "NA".
func parseProgress(s string) (models.Progress, bool) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return models.Progress{}, false
	}

	downloaded, ok := parseNumber(fields[0])
	if !ok {
		return models.Progress{}, false
	}

	p := models.Progress{DownloadedBytes: downloaded}
	if total, ok := parseNumber(fields[1]); ok {
		p.TotalBytes = total
	} else if estimate, ok := parseNumber(fields[2]); ok {
		p.TotalBytes = estimate
	}
	if eta, ok := parseNumber(fields[3]); ok {
		p.ETA = time.Duration(eta) * time.Second
	}
	return p, true
}

func parseNumber(s string) (int64, bool) {
	if s == "" || s == "NA" || s == "None" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int64(f), true
}
