package model

import (
	"errors"
	"fmt"
)

// Publish error taxonomy. Driver failures are converted to a per-platform
// UploadOutcome at the usecase boundary; only request-level problems
// (ErrInvalidInput, ErrScheduleTooSoon) surface as call errors.
var (
	// ErrAuthExpired means the remote platform rejected the stored credential.
	// The caller should prompt the user to reconnect the platform.
	ErrAuthExpired = errors.New("platform credential expired or revoked")

	// ErrInvalidInput means a required part of the request (video, description)
	// is missing. Raised before any network call.
	ErrInvalidInput = errors.New("missing required media asset or description")

	// ErrScheduleTooSoon means the requested publish time is inside the
	// platform's minimum lead window.
	ErrScheduleTooSoon = errors.New("scheduled publish time is too soon")

	// ErrPollTimeout means remote processing did not reach ready within the
	// bounded polling window. The partially created remote video has been
	// cleaned up best-effort.
	ErrPollTimeout = errors.New("video processing did not complete in time")
)

// RemoteError carries a remote platform's rejection verbatim.
type RemoteError struct {
	Platform   string
	Phase      string // init | transfer | thumbnail | finish | poll | upload
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s failed (HTTP %d): %s", e.Platform, e.Phase, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Platform, e.Phase, e.Message)
}

// NewRemoteError builds a RemoteError for one upload phase.
func NewRemoteError(platform, phase string, statusCode int, message string) *RemoteError {
	return &RemoteError{Platform: platform, Phase: phase, StatusCode: statusCode, Message: message}
}
