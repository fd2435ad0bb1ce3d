package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/tubefetch/internal/fetcher"
	"github.com/your-org/tubefetch/internal/models"
)

func TestProgressSubject(t *testing.T) {
	assert.Equal(t, "downloads.job-42", ProgressSubject("job-42"))
}

func TestDecodeProgress_RoundTripsEventPayload(t *testing.T) {
	ev := fetcher.ProgressEvent{
		JobID:    "job-42",
		VideoID:  "dQw4w9WgXcQ",
		State:    fetcher.StateDownloading,
		Progress: models.Progress{DownloadedBytes: 25, TotalBytes: 100, ETA: 3 * time.Second},
	}
	payload, err := json.Marshal(ev.DTO())
	require.NoError(t, err)

	got, err := DecodeProgress(payload)
	require.NoError(t, err)
	assert.Equal(t, "job-42", got.JobID)
	assert.Equal(t, "dQw4w9WgXcQ", got.VideoID)
	assert.Equal(t, "downloading", got.State)
	assert.InDelta(t, 25.0, got.Percent, 0.001)
	assert.Equal(t, int64(3), got.ETA)
}

func TestDecodeProgress_Malformed(t *testing.T) {
	_, err := DecodeProgress([]byte("{"))
	assert.Error(t, err)
}
