package fetcher

import (
	"context"
	"errors"

	"github.com/your-org/tubefetch/internal/common"
)

// Error is what every Service operation returns on failure. Kind is one of
// the common.Err* sentinels; Err is the underlying cause, meant for logs only.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// Error names the operation and kind only. The cause stays reachable through
// Unwrap and is logged, never printed.
func (e *Error) Error() string {
	return e.Op + ": " + e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// UserMessage is safe to show to end users.
func (e *Error) UserMessage() string {
	return UserMessage(e.Op, e.Kind)
}

const (
	OpInfo     = "info"
	OpDownload = "download"
)

// UserMessage returns the text shown to users for a failed operation.
func UserMessage(op string, kind error) string {
	switch {
	case errors.Is(kind, common.ErrInvalidURL) && op == OpDownload:
		return "Invalid YouTube URL"
	case errors.Is(kind, common.ErrInvalidURL):
		return "Please enter a valid YouTube URL"
	case errors.Is(kind, common.ErrExtraction) && op == OpInfo:
		return "Failed to fetch video information. Please check the URL and try again."
	case errors.Is(kind, common.ErrExtraction):
		return "Download failed. Please try again with a different quality option."
	case errors.Is(kind, common.ErrNoArtifact):
		return "Download failed. No file was created."
	case op == OpDownload:
		return "An unexpected error occurred during download."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// classify wraps err into an *Error of the matching kind.
func classify(op string, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}

	kind := common.ErrUnexpected
	switch {
	case errors.Is(err, common.ErrInvalidURL):
		kind = common.ErrInvalidURL
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = common.ErrUnexpected
	case errors.Is(err, common.ErrExtraction):
		kind = common.ErrExtraction
	case errors.Is(err, common.ErrNoArtifact):
		kind = common.ErrNoArtifact
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the error kind of err, or common.ErrUnexpected.
func KindOf(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return classify("", err).Kind
}
