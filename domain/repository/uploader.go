package repository

import (
	"context"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
)

// IShortVideoUploader drives the single-shot metadata+binary ingestion
// platform. When the remote platform rotates the credential during the call,
// the rotated token is returned so the caller can persist it before the
// publish call returns.
type IShortVideoUploader interface {
	UploadShort(ctx context.Context, tok *model.OAuthToken, req *dto.ShortUploadRequest) (*dto.ShortUploadResult, *model.OAuthToken, error)
}

// IReelsUploader drives the phased chunked upload platform. It returns the
// public URL of the published reel once remote processing reports ready.
type IReelsUploader interface {
	UploadReel(ctx context.Context, tok *model.OAuthToken, req *dto.ReelUploadRequest) (string, error)
}
