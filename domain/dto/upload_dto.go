package dto

import "time"

// ShortUploadRequest is the short-video driver's input: metadata plus the
// binary payload delivered in a single ingestion call.
type ShortUploadRequest struct {
	Title       string
	Description string
	CategoryID  string
	Video       []byte
	Thumbnail   []byte    // optional, attached best-effort after the upload
	PublishAt   time.Time // zero means publish immediately
}

// ShortUploadResult is the short-video driver's output.
type ShortUploadResult struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
}

// ReelUploadRequest is the reels driver's input for the phased upload.
type ReelUploadRequest struct {
	Description string
	Video       []byte
	Thumbnail   []byte    // optional, staged before the finish phase
	PublishAt   time.Time // zero means publish immediately
}
