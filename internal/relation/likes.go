package relation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vidhub-core/internal/activity"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
)

// targetQueries check that a like target exists. Videos, and the video a
// comment sits under, must also be visible to the liker.
var targetQueries = map[TargetKind]string{
	TargetVideo:   `SELECT 1 FROM videos WHERE id = ? AND (is_published = 1 OR owner_id = ?)`,
	TargetComment: `SELECT 1 FROM comments c JOIN videos v ON v.id = c.video_id
	                WHERE c.id = ? AND (v.is_published = 1 OR v.owner_id = ?)`,
	TargetTweet:   `SELECT 1 FROM tweets WHERE id = ? AND ? <> ''`,
}

// LikeService toggles and lists likes.
type LikeService struct {
	db      *sql.DB
	events  activity.Sink
	metrics Counter
	now     func() time.Time
}

// NewLikeService creates a like service over db.
func NewLikeService(db *sql.DB, opts Options) *LikeService {
	opts = opts.withDefaults()
	return &LikeService{db: db, events: opts.Events, metrics: opts.Metrics, now: time.Now}
}

// Toggle likes the target if who has not liked it, and unlikes it otherwise.
func (s *LikeService) Toggle(ctx context.Context, who *auth.Identity, kind TargetKind, targetID string) (Result[Like], error) {
	if err := requireIdentity(who); err != nil {
		return Result[Like]{}, err
	}
	if !kind.Valid() {
		return Result[Like]{}, ErrUnknownTarget
	}

	var res Result[Like]
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, targetQueries[kind], targetID, who.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return targetNotFound(kind)
		}
		if err != nil {
			return fmt.Errorf("checking like target: %w", err)
		}

		edge := Like{LikedBy: who.ID, TargetType: kind, TargetID: targetID}

		var createdAt string
		err = tx.QueryRowContext(ctx,
			`DELETE FROM likes WHERE liked_by = ? AND target_type = ? AND target_id = ?
			 RETURNING id, created_at`,
			who.ID, kind, targetID).Scan(&edge.ID, &createdAt)
		switch {
		case err == nil:
			if edge.CreatedAt, err = database.ParseTime(createdAt); err != nil {
				return err
			}
			res = Result[Like]{State: Removed, Edge: edge}
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("removing like: %w", err)
		}

		edge.ID = "lk-" + uuid.NewString()
		edge.CreatedAt = s.now().UTC()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (id, liked_by, target_type, target_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			edge.ID, edge.LikedBy, edge.TargetType, edge.TargetID, database.FormatTime(edge.CreatedAt))
		if database.IsUniqueViolation(err) {
			return ErrConcurrentToggle
		}
		if err != nil {
			return fmt.Errorf("inserting like: %w", err)
		}
		res = Result[Like]{State: Created, Edge: edge}
		return nil
	})
	if err != nil {
		return Result[Like]{}, classify("toggling like", err)
	}

	s.metrics.RelationToggle("like", string(res.State))
	eventType := activity.LikeCreated
	if res.State == Removed {
		eventType = activity.LikeRemoved
	}
	record(ctx, s.events, eventType, who.ID, string(kind), targetID, res.State)
	return res, nil
}

// LikedVideos returns the videos accountID has liked, most recent like first.
// Videos no longer visible to the account are left out.
func (s *LikeService) LikedVideos(ctx context.Context, accountID string) ([]LikedVideo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.title, v.thumbnail_url, v.video_url, v.owner_id, a.username,
			v.duration, v.views, l.created_at
		FROM likes l
		JOIN videos v ON v.id = l.target_id
		JOIN accounts a ON a.id = v.owner_id
		WHERE l.liked_by = ? AND l.target_type = 'video'
			AND (v.is_published = 1 OR v.owner_id = l.liked_by)
		ORDER BY l.created_at DESC, l.id DESC`, accountID)
	if err != nil {
		return nil, classify("querying liked videos", err)
	}
	defer rows.Close()

	videos := []LikedVideo{}
	for rows.Next() {
		var v LikedVideo
		var likedAt string
		if err := rows.Scan(&v.VideoID, &v.Title, &v.ThumbnailURL, &v.VideoURL, &v.OwnerID,
			&v.OwnerUsername, &v.Duration, &v.Views, &likedAt); err != nil {
			return nil, classify("scanning liked video", err)
		}
		if v.LikedAt, err = database.ParseTime(likedAt); err != nil {
			return nil, classify("scanning liked video", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating liked videos", err)
	}
	return videos, nil
}

// Count returns the number of likes on a target.
func (s *LikeService) Count(ctx context.Context, kind TargetKind, targetID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE target_type = ? AND target_id = ?`, kind, targetID).Scan(&n); err != nil {
		return 0, classify("counting likes", err)
	}
	return n, nil
}
