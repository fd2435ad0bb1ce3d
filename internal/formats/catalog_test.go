package formats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/tubefetch/internal/models"
)

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }

func video(id string, height int) models.RawFormat {
	return models.RawFormat{FormatID: id, Ext: "mp4", Height: intPtr(height), HasVideo: true}
}

func TestBuildCatalog_Empty(t *testing.T) {
	got := BuildCatalog(nil)
	require.Len(t, got, 1)
	assert.Equal(t, AudioEntry(), got[0])
	assert.Equal(t, AudioSentinel, got[0].FormatID)
	assert.Equal(t, "Audio Only (MP3)", got[0].Quality)
	assert.Equal(t, "mp3", got[0].Ext)
	assert.Nil(t, got[0].Filesize)
	assert.Nil(t, got[0].FPS)
}

func TestBuildCatalog_DedupKeepsFirst(t *testing.T) {
	first := models.RawFormat{
		FormatID: "136", Ext: "mp4", Height: intPtr(720),
		FPS: floatPtr(30), Filesize: int64Ptr(1000), HasVideo: true,
	}
	dup := models.RawFormat{
		FormatID: "247", Ext: "webm", Height: intPtr(720),
		FPS: floatPtr(60), Filesize: int64Ptr(2000), HasVideo: true,
	}

	got := BuildCatalog([]models.RawFormat{first, video("135", 480), dup})

	require.Len(t, got, 3)
	assert.Equal(t, "136", got[0].FormatID)
	assert.Equal(t, "720p", got[0].Quality)
	assert.Equal(t, "mp4", got[0].Ext)
	assert.Equal(t, int64(1000), *got[0].Filesize)
	assert.Equal(t, 30.0, *got[0].FPS)
	assert.Equal(t, "135", got[1].FormatID)
	assert.Equal(t, "480p", got[1].Quality)
	assert.Equal(t, AudioEntry(), got[2])
}

func TestBuildCatalog_FiltersNonVideo(t *testing.T) {
	raw := []models.RawFormat{
		{FormatID: "140", Ext: "m4a", HasVideo: false},
		{FormatID: "sb0", Ext: "mhtml", Height: intPtr(90), HasVideo: false},
		{FormatID: "x", Ext: "mp4", HasVideo: true},
		video("18", 360),
	}

	got := BuildCatalog(raw)

	require.Len(t, got, 2)
	assert.Equal(t, "18", got[0].FormatID)
	assert.Equal(t, AudioSentinel, got[1].FormatID)
}

func TestBuildCatalog_SkipsZeroHeight(t *testing.T) {
	got := BuildCatalog([]models.RawFormat{video("sb", 0), video("bad", -1), video("18", 360)})

	require.Len(t, got, 2)
	assert.Equal(t, "18", got[0].FormatID)
	for _, e := range got {
		assert.NotEqual(t, "0p", e.Quality)
	}
}

func TestBuildCatalog_SortsDescending(t *testing.T) {
	got := BuildCatalog([]models.RawFormat{video("a", 240), video("b", 1080), video("c", 144), video("d", 720)})

	labels := make([]string, 0, len(got))
	for _, e := range got {
		labels = append(labels, e.Quality)
	}
	assert.Equal(t, []string{"1080p", "720p", "240p", "144p", AudioLabel}, labels)
}

func TestBuildCatalog_DefaultsExt(t *testing.T) {
	got := BuildCatalog([]models.RawFormat{{FormatID: "22", Height: intPtr(720), HasVideo: true}})
	assert.Equal(t, "mp4", got[0].Ext)
}

func TestBuildCatalog_CapsVideoEntries(t *testing.T) {
	var raw []models.RawFormat
	for h := 100; h <= 1500; h += 100 {
		raw = append(raw, video("f", h))
	}

	got := BuildCatalog(raw)

	require.Len(t, got, MaxVideoEntries+1)
	assert.Equal(t, "1500p", got[0].Quality)
	assert.Equal(t, "600p", got[MaxVideoEntries-1].Quality)
	assert.Equal(t, AudioEntry(), got[MaxVideoEntries])
}

func TestBuildCatalog_DoesNotMutateInput(t *testing.T) {
	raw := []models.RawFormat{video("a", 240), video("b", 1080), video("c", 240)}
	snapshot := append([]models.RawFormat(nil), raw...)

	BuildCatalog(raw)

	assert.Equal(t, snapshot, raw)
}

func TestBuildCatalog_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	heights := []int{144, 240, 360, 480, 720, 1080, 1440, 2160, 4320, 288, 576, 900}

	for i := 0; i < 200; i++ {
		n := rng.Intn(40)
		raw := make([]models.RawFormat, 0, n)
		for j := 0; j < n; j++ {
			f := video("id", heights[rng.Intn(len(heights))])
			f.HasVideo = rng.Intn(5) != 0
			if rng.Intn(7) == 0 {
				f.Height = nil
			}
			raw = append(raw, f)
		}

		got := BuildCatalog(raw)

		require.NotEmpty(t, got)
		require.LessOrEqual(t, len(got), MaxVideoEntries+1)
		assert.Equal(t, AudioEntry(), got[len(got)-1])

		videos := got[:len(got)-1]
		labels := map[string]bool{}
		for k, e := range videos {
			assert.False(t, labels[e.Quality], "duplicate label %s", e.Quality)
			labels[e.Quality] = true
			if k > 0 {
				assert.Greater(t, videos[k-1].Height(), e.Height())
			}
		}
	}
}
