package repository

import (
	"context"

	"social-publisher/domain/model"
)

// IOAuthToken resolves per-user, per-platform credentials. Drivers read
// tokens; only the publish usecase writes rotated ones back.
type IOAuthToken interface {
	UpsertToken(ctx context.Context, t *model.OAuthToken) error
	GetToken(ctx context.Context, userID, platform string) (*model.OAuthToken, error)
	DeleteToken(ctx context.Context, userID, platform string) error
}
