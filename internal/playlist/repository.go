package playlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
)

// Repository persists playlists and their memberships.
type Repository interface {
	Create(ctx context.Context, p *Playlist) error
	GetByID(ctx context.Context, id string) (*Playlist, error)
	// Videos returns the playlist's videos visible to viewerID in the order added.
	Videos(ctx context.Context, playlistID, viewerID string) ([]Entry, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Playlist, error)
	Update(ctx context.Context, p *Playlist) error
	Delete(ctx context.Context, id string) error
	// AddVideo is a no-op when the video is already a member.
	AddVideo(ctx context.Context, playlistID, videoID, viewerID string) error
	// RemoveVideo returns ErrNotMember when the video is not in the playlist.
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed playlist repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectPlaylist = `SELECT p.id, p.owner_id, p.name, p.description,
	(SELECT COUNT(*) FROM playlist_videos pv WHERE pv.playlist_id = p.id),
	p.created_at, p.updated_at
	FROM playlists p`

// Create inserts p. ID and timestamps are set here.
func (r *SQLiteRepository) Create(ctx context.Context, p *Playlist) error {
	if p.ID == "" {
		p.ID = "pl-" + uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Owner, p.Name, p.Description, database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// GetByID retrieves a playlist without its videos.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Playlist, error) {
	return scanPlaylist(r.db.QueryRowContext(ctx, selectPlaylist+` WHERE p.id = ?`, id))
}

// Videos implements Repository.
func (r *SQLiteRepository) Videos(ctx context.Context, playlistID, viewerID string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.owner_id, v.title, v.thumbnail_url, v.duration, v.views, pv.added_at
		FROM playlist_videos pv JOIN videos v ON v.id = pv.video_id
		WHERE pv.playlist_id = ? AND (v.is_published = 1 OR v.owner_id = ?)
		ORDER BY pv.added_at ASC, v.id ASC`, playlistID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("querying playlist videos: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var addedAt string
		if err := rows.Scan(&e.VideoID, &e.OwnerID, &e.Title, &e.ThumbnailURL,
			&e.Duration, &e.Views, &addedAt); err != nil {
			return nil, fmt.Errorf("scanning playlist video: %w", err)
		}
		if e.AddedAt, err = database.ParseTime(addedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating playlist videos: %w", err)
	}
	return entries, nil
}

// ListByOwner returns an account's playlists, newest first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Playlist, error) {
	rows, err := r.db.QueryContext(ctx,
		selectPlaylist+` WHERE p.owner_id = ? ORDER BY p.created_at DESC, p.id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	playlists := []Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating playlists: %w", err)
	}
	return playlists, nil
}

// Update writes name and description. owner_id is never written.
func (r *SQLiteRepository) Update(ctx context.Context, p *Playlist) error {
	p.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE playlists SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, database.FormatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("updating playlist: %w", err)
	}
	return requireOneRow(result, ErrNotFound)
}

// Delete removes a playlist and its memberships.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting playlist: %w", err)
	}
	return requireOneRow(result, ErrNotFound)
}

// AddVideo implements Repository.
func (r *SQLiteRepository) AddVideo(ctx context.Context, playlistID, videoID, viewerID string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var visible bool
		err := tx.QueryRowContext(ctx,
			`SELECT is_published = 1 OR owner_id = ? FROM videos WHERE id = ?`, viewerID, videoID).Scan(&visible)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !visible) {
			return ErrVideoNotFound
		}
		if err != nil {
			return fmt.Errorf("checking video: %w", err)
		}

		now := database.FormatTime(time.Now())
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_videos (playlist_id, video_id, added_at) VALUES (?, ?, ?)
			 ON CONFLICT (playlist_id, video_id) DO NOTHING`,
			playlistID, videoID, now); err != nil {
			return fmt.Errorf("adding playlist video: %w", err)
		}
		_, err = tx.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, now, playlistID)
		return err
	})
}

// RemoveVideo implements Repository.
func (r *SQLiteRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("removing playlist video: %w", err)
	}
	return requireOneRow(result, ErrNotMember)
}

func requireOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row scanner) (*Playlist, error) {
	var p Playlist
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Owner, &p.Name, &p.Description, &p.VideoCount, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning playlist: %w", err)
	}
	if p.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
