package formats

import (
	"strings"

	"github.com/your-org/tubefetch/internal/models"
)

const (
	// BestFormat is used when the user made no choice.
	BestFormat = "best"

	audioSourceFormat = "bestaudio/best"
	audioCodec        = "mp3"
	audioBitrateKbps  = "192"
)

// Resolve maps a catalog choice to an engine directive. An empty choice means
// best overall quality; anything other than the audio sentinel is passed to
// the engine verbatim.
func Resolve(choice string) models.Directive {
	switch {
	case strings.TrimSpace(choice) == "":
		return models.Directive{Kind: models.DirectiveBest, Format: BestFormat}
	case choice == AudioSentinel:
		return models.Directive{
			Kind:         models.DirectiveAudio,
			Format:       audioSourceFormat,
			AudioCodec:   audioCodec,
			AudioQuality: audioBitrateKbps,
		}
	default:
		return models.Directive{Kind: models.DirectiveFormat, Format: choice}
	}
}
