package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

const defaultHistoryLimit = 50

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) repository.IHistory {
	return &HistoryRepository{db: db}
}

// EnsureHistorySchema creates the post_history table if it does not exist.
func EnsureHistorySchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS post_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		status TEXT NOT NULL,
		video_title TEXT NOT NULL DEFAULT '',
		video_url TEXT NULL,
		error_message TEXT NULL,
		scheduled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create post_history: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_post_history_user_created ON post_history (user_id, created_at DESC)`); err != nil {
		return fmt.Errorf("index post_history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Append(ctx context.Context, entry *model.PostHistory) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	q := `INSERT INTO post_history (id, user_id, platform, status, video_title, video_url, error_message, scheduled, created_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.db.ExecContext(ctx, q, entry.ID, entry.UserID, entry.Platform, entry.Status, entry.VideoTitle, entry.VideoURL, entry.ErrorMessage, entry.Scheduled, entry.CreatedAt)
	return err
}

func (r *HistoryRepository) List(ctx context.Context, userID string, limit int) ([]*model.PostHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, platform, status, video_title, video_url, error_message, scheduled, created_at FROM post_history WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.PostHistory
	for rows.Next() {
		entry := &model.PostHistory{}
		var videoURL, errorMessage sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Platform, &entry.Status, &entry.VideoTitle, &videoURL, &errorMessage, &entry.Scheduled, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.VideoURL = videoURL.String
		entry.ErrorMessage = errorMessage.String
		list = append(list, entry)
	}
	return list, rows.Err()
}
