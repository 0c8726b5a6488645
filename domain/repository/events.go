package repository

import (
	"context"

	"social-publisher/domain/model"
)

// IPublishEvents notifies an external channel about finished publish calls.
// Delivery is fire-and-forget: the usecase logs failures and moves on.
type IPublishEvents interface {
	PublishResult(ctx context.Context, userID string, result *model.PublishResult) error
}
