package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
)

// Repository persists videos and watch history.
type Repository interface {
	Create(ctx context.Context, v *Video) error
	GetByID(ctx context.Context, id string) (*Video, error)
	// List returns one page of videos visible to viewerID and the total match count.
	List(ctx context.Context, q ListQuery, viewerID string) ([]Video, int, error)
	Update(ctx context.Context, v *Video) error
	Delete(ctx context.Context, id string) error
	// RecordView increments the view counter and moves the video to the
	// front of the viewer's history. It returns the new view count.
	RecordView(ctx context.Context, videoID, viewerID string, at time.Time) (int64, error)
	History(ctx context.Context, accountID string) ([]Video, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed video repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectVideo = `SELECT v.id, v.owner_id, a.username, v.title, v.description, v.video_url,
	v.thumbnail_url, v.video_key, v.thumbnail_key, v.duration, v.views, v.is_published,
	v.created_at, v.updated_at
	FROM videos v JOIN accounts a ON a.id = v.owner_id`

// Create inserts v. ID and timestamps are set if empty.
func (r *SQLiteRepository) Create(ctx context.Context, v *Video) error {
	if v.ID == "" {
		v.ID = "vid-" + uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url,
			video_key, thumbnail_key, duration, views, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		v.ID, v.Owner, v.Title, v.Description, v.VideoURL, v.ThumbnailURL,
		v.VideoKey, v.ThumbnailKey, v.Duration, v.IsPublished,
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		return fmt.Errorf("inserting video: %w", err)
	}
	return nil
}

// GetByID retrieves a video by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Video, error) {
	return scanVideo(r.db.QueryRowContext(ctx, selectVideo+` WHERE v.id = ?`, id))
}

// List implements Repository.
func (r *SQLiteRepository) List(ctx context.Context, q ListQuery, viewerID string) ([]Video, int, error) {
	orderBy, err := q.orderBy()
	if err != nil {
		return nil, 0, err
	}
	q.Params = q.Params.Normalize()

	conditions := []string{"(v.is_published = 1 OR v.owner_id = ?)"}
	args := []any{viewerID}
	if q.Query != "" {
		conditions = append(conditions, `v.title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Query)+"%")
	}
	if q.OwnerID != "" {
		conditions = append(conditions, "v.owner_id = ?")
		args = append(args, q.OwnerID)
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM videos v` + where //nolint:gosec // parameterised conditions only
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting videos: %w", err)
	}

	query := selectVideo + where + ` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?` //nolint:gosec // order column from allow-list
	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying videos: %w", err)
	}
	defer rows.Close()

	videos, err := scanVideos(rows)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// Update writes the mutable fields of v. owner_id is never written.
func (r *SQLiteRepository) Update(ctx context.Context, v *Video) error {
	v.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE videos SET title = ?, description = ?, thumbnail_url = ?, thumbnail_key = ?,
			is_published = ?, updated_at = ?
		WHERE id = ?`,
		v.Title, v.Description, v.ThumbnailURL, v.ThumbnailKey, v.IsPublished,
		database.FormatTime(v.UpdatedAt), v.ID,
	)
	if err != nil {
		return fmt.Errorf("updating video: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes a video by ID. Comments, likes, memberships and history
// rows go with it.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting video: %w", err)
	}
	return requireOneRow(result)
}

// RecordView implements Repository.
func (r *SQLiteRepository) RecordView(ctx context.Context, videoID, viewerID string, at time.Time) (int64, error) {
	var views int64
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = ?`, videoID)
		if err != nil {
			return fmt.Errorf("incrementing views: %w", err)
		}
		if err := requireOneRow(result); err != nil {
			return err
		}
		if viewerID != "" {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO watch_history (account_id, video_id, watched_at) VALUES (?, ?, ?)
				ON CONFLICT (account_id, video_id) DO UPDATE SET watched_at = excluded.watched_at`,
				viewerID, videoID, database.FormatTime(at))
			if err != nil {
				return fmt.Errorf("recording watch history: %w", err)
			}
		}
		return tx.QueryRowContext(ctx, `SELECT views FROM videos WHERE id = ?`, videoID).Scan(&views)
	})
	return views, err
}

// History returns the account's watched videos, most recent first.
// Videos since unpublished by someone else are left out.
func (r *SQLiteRepository) History(ctx context.Context, accountID string) ([]Video, error) {
	rows, err := r.db.QueryContext(ctx, selectVideo+`
		JOIN watch_history h ON h.video_id = v.id
		WHERE h.account_id = ? AND (v.is_published = 1 OR v.owner_id = h.account_id)
		ORDER BY h.watched_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying watch history: %w", err)
	}
	defer rows.Close()
	return scanVideos(rows)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*Video, error) {
	var v Video
	var createdAt, updatedAt string

	err := row.Scan(&v.ID, &v.Owner, &v.OwnerUsername, &v.Title, &v.Description, &v.VideoURL,
		&v.ThumbnailURL, &v.VideoKey, &v.ThumbnailKey, &v.Duration, &v.Views, &v.IsPublished,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning video: %w", err)
	}

	if v.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanVideos(rows *sql.Rows) ([]Video, error) {
	videos := []Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating videos: %w", err)
	}
	return videos, nil
}
