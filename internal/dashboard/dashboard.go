// Package dashboard computes the channel owner's statistics page.
package dashboard

import (
	"context"
	"database/sql"
	"time"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
)

// Stats are channel totals. Like totals count likes received on the
// channel's own videos, tweets and comments.
type Stats struct {
	TotalVideos       int   `json:"total_videos"`
	TotalSubscribers  int   `json:"total_subscribers"`
	TotalViews        int64 `json:"total_views"`
	TotalVideoLikes   int   `json:"total_video_likes"`
	TotalTweetLikes   int   `json:"total_tweet_likes"`
	TotalCommentLikes int   `json:"total_comment_likes"`
}

// ChannelVideo is one row of the owner's video table.
type ChannelVideo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	Likes        int       `json:"likes"`
	Comments     int       `json:"comments"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service reads dashboard data.
type Service struct {
	db *sql.DB
}

// NewService creates a dashboard service over db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Stats returns who's channel totals.
func (s *Service) Stats(ctx context.Context, who *auth.Identity) (Stats, error) {
	if who == nil {
		return Stats{}, auth.ErrUnauthorized
	}

	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM videos WHERE owner_id = ?1),
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = ?1),
			(SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = ?1),
			(SELECT COUNT(*) FROM likes l JOIN videos v ON l.target_type = 'video' AND l.target_id = v.id
				WHERE v.owner_id = ?1),
			(SELECT COUNT(*) FROM likes l JOIN tweets t ON l.target_type = 'tweet' AND l.target_id = t.id
				WHERE t.owner_id = ?1),
			(SELECT COUNT(*) FROM likes l JOIN comments c ON l.target_type = 'comment' AND l.target_id = c.id
				WHERE c.owner_id = ?1)`,
		who.ID,
	).Scan(&st.TotalVideos, &st.TotalSubscribers, &st.TotalViews,
		&st.TotalVideoLikes, &st.TotalTweetLikes, &st.TotalCommentLikes)
	if err != nil {
		return Stats{}, apperr.Internal("computing channel stats", err)
	}
	return st, nil
}

// Videos returns every video owned by who, published or not, newest first.
func (s *Service) Videos(ctx context.Context, who *auth.Identity) ([]ChannelVideo, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.title, v.thumbnail_url, v.duration, v.views,
			(SELECT COUNT(*) FROM likes l WHERE l.target_type = 'video' AND l.target_id = v.id),
			(SELECT COUNT(*) FROM comments c WHERE c.video_id = v.id),
			v.is_published, v.created_at
		FROM videos v
		WHERE v.owner_id = ?
		ORDER BY v.created_at DESC, v.id DESC`, who.ID)
	if err != nil {
		return nil, apperr.Internal("querying channel videos", err)
	}
	defer rows.Close()

	videos := []ChannelVideo{}
	for rows.Next() {
		var v ChannelVideo
		var createdAt string
		if err := rows.Scan(&v.ID, &v.Title, &v.ThumbnailURL, &v.Duration, &v.Views,
			&v.Likes, &v.Comments, &v.IsPublished, &createdAt); err != nil {
			return nil, apperr.Internal("scanning channel video", err)
		}
		if v.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, apperr.Internal("scanning channel video", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterating channel videos", err)
	}
	return videos, nil
}
