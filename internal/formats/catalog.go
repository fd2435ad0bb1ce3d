// Package formats turns the engine's raw encoding list into the catalog shown
// to users, and maps a user's choice back to an engine directive.
package formats

import (
	"fmt"
	"sort"

	"github.com/your-org/tubefetch/internal/models"
)

const (
	// MaxVideoEntries caps the video part of a catalog.
	MaxVideoEntries = 10

	// AudioSentinel is the format id reserved for the synthetic audio entry.
	AudioSentinel = "bestaudio"
	AudioLabel    = "Audio Only (MP3)"
	AudioExt      = "mp3"

	defaultVideoExt = "mp4"
)

// AudioEntry returns the synthetic best-audio catalog entry.
func AudioEntry() models.CatalogEntry {
	return models.CatalogEntry{
		FormatID: AudioSentinel,
		Quality:  AudioLabel,
		Ext:      AudioExt,
	}
}

// QualityLabel returns the bucket label for a vertical resolution.
func QualityLabel(height int) string {
	return fmt.Sprintf("%dp", height)
}

// BuildCatalog keeps one entry per quality label (first seen wins), orders
// them by height descending, caps the list and appends the audio entry.
// The input is not modified.
func BuildCatalog(raw []models.RawFormat) []models.CatalogEntry {
	seen := make(map[string]struct{}, len(raw))
	entries := make([]models.CatalogEntry, 0, len(raw)+1)

	for _, f := range raw {
		if !f.HasVideo || f.Height == nil || *f.Height <= 0 {
			continue
		}

		label := QualityLabel(*f.Height)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}

		ext := f.Ext
		if ext == "" {
			ext = defaultVideoExt
		}
		entries = append(entries, models.NewVideoEntry(f.FormatID, label, ext, *f.Height, f.Filesize, f.FPS))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Height() > entries[j].Height()
	})

	if len(entries) > MaxVideoEntries {
		entries = entries[:MaxVideoEntries]
	}

	return append(entries, AudioEntry())
}
