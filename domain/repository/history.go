package repository

import (
	"context"

	"social-publisher/domain/model"
)

// IHistory is the append/read surface of the result reporter. Entries are
// immutable once appended.
type IHistory interface {
	Append(ctx context.Context, entry *model.PostHistory) error
	List(ctx context.Context, userID string, limit int) ([]*model.PostHistory, error)
}
