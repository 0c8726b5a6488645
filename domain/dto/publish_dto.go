package dto

import "time"

// PublishRequest is the validated form of one dual-platform publish call.
// The handler builds it from the inbound multipart payload.
type PublishRequest struct {
	Description  string
	SchedulePost bool
	PublishAt    time.Time // zero when SchedulePost is false
	Platforms    []string  // empty means "every connected platform"
}

// Scheduled reports whether the request carries a future publish time.
func (r *PublishRequest) Scheduled() bool { return r.SchedulePost && !r.PublishAt.IsZero() }

// ConnectionStatus describes which platforms a user has connected.
type ConnectionStatus struct {
	YouTube  *YouTubeConnection  `json:"youtube"`
	Facebook *FacebookConnection `json:"facebook"`
}

type YouTubeConnection struct {
	ChannelTitle string `json:"channel_title"`
	Thumbnail    string `json:"thumbnail,omitempty"`
}

type FacebookConnection struct {
	PageID   string `json:"page_id"`
	PageName string `json:"page_name"`
}
