package model

import "time"

// Platform identifiers used across credentials, outcomes and history.
const (
	PlatformYouTube  = "youtube"
	PlatformFacebook = "facebook"
)

// MediaAsset is the binary payload of one publish call. It is owned by the
// publish usecase for the duration of the call and never persisted.
type MediaAsset struct {
	Data        []byte
	Size        int64
	ContentType string
	Thumbnail   []byte // optional cover image, may be nil
}

// HasThumbnail reports whether a secondary asset was supplied.
func (a *MediaAsset) HasThumbnail() bool { return a != nil && len(a.Thumbnail) > 0 }

// UploadOutcome is the per-platform result of one publish attempt.
type UploadOutcome struct {
	Platform     string `json:"platform"`
	Status       string `json:"status"` // success | error
	URL          string `json:"url,omitempty"`
	ErrorMessage string `json:"message,omitempty"`
}

// PublishResult aggregates outcomes in platform order, one entry per platform
// that was actually attempted. Platforms without a stored credential are
// skipped, not recorded.
type PublishResult struct {
	Outcomes    []UploadOutcome `json:"results"`
	IsScheduled bool            `json:"is_scheduled"`
	PublishAt   string          `json:"publish_at,omitempty"`
}

// Succeeded reports whether at least one platform accepted the video.
func (r *PublishResult) Succeeded() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusSuccess {
			return true
		}
	}
	return false
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PostHistory is an immutable record of one publish outcome.
type PostHistory struct {
	ID           string    `json:"id" bson:"id"`
	UserID       string    `json:"user_id" bson:"userId"`
	Platform     string    `json:"platform" bson:"platform"`
	Status       string    `json:"status" bson:"status"`
	VideoTitle   string    `json:"video_title" bson:"videoTitle"`
	VideoURL     string    `json:"video_url,omitempty" bson:"videoUrl,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty" bson:"errorMessage,omitempty"`
	Scheduled    bool      `json:"scheduled" bson:"scheduled"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"`
}
