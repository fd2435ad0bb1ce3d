// Package videourl recognizes supported video-hosting URLs and extracts the
// canonical video identifier from them.
package videourl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/your-org/tubefetch/internal/common"
	"github.com/your-org/tubefetch/internal/models"
)

// IDLength is the fixed length of a video identifier.
const IDLength = 11

var (
	ErrEmptyURL    = fmt.Errorf("%w: empty url", common.ErrInvalidURL)
	ErrUnsupported = fmt.Errorf("%w: unsupported url", common.ErrInvalidURL)
)

// The match is anchored at the start only; whatever follows the id is not
// inspected here. Ids are exactly 11 characters of [A-Za-z0-9_-].
var videoURLRegexp = regexp.MustCompile(
	`^(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/` +
		`(watch\?v=|embed/|v/|.+\?v=)?([A-Za-z0-9_-]{11})`,
)

// Validator extracts video ids. With Strict set, the id must be followed by
// the end of the input or a URL delimiter.
type Validator struct {
	Strict bool
}

// Validate returns the video id embedded in raw or an error wrapping
// common.ErrInvalidURL.
func (v Validator) Validate(raw string) (models.VideoID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	loc := videoURLRegexp.FindStringSubmatchIndex(raw)
	if loc == nil {
		return "", ErrUnsupported
	}

	// Group 6 holds the id.
	start, end := loc[12], loc[13]
	if v.Strict && !validTail(raw[end:]) {
		return "", ErrUnsupported
	}

	return models.VideoID(raw[start:end]), nil
}

func validTail(rest string) bool {
	if rest == "" {
		return true
	}
	switch rest[0] {
	case '&', '?', '#', '/':
		return true
	}
	return false
}

// Validate applies the default prefix policy.
func Validate(raw string) (models.VideoID, error) {
	return Validator{}.Validate(raw)
}

// IsValid reports whether raw is a recognized video URL under the prefix policy.
func IsValid(raw string) bool {
	_, err := Validate(raw)
	return err == nil
}

// Canonical returns the normalized watch URL for id.
func Canonical(id models.VideoID) string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

// IsInvalid reports whether err is a validation failure.
func IsInvalid(err error) bool {
	return errors.Is(err, common.ErrInvalidURL)
}
