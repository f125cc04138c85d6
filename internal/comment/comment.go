// Package comment manages comments on videos.
//
// Deleting a comment succeeds when a row was removed, is NotFound when the
// comment does not exist, and is an authorization failure when the caller
// is not its author.
package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nerrad567/vidhub-core/internal/activity"
	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/authz"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
	"github.com/nerrad567/vidhub-core/internal/paging"
)

// MaxContentLength is the longest comment accepted, in characters.
const MaxContentLength = 1000

// Comment is a stored comment.
type Comment struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	VideoID       string    `json:"video_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnerID returns the author's account ID.
func (c *Comment) OwnerID() string { return c.Owner }

// Sentinel errors.
var (
	ErrNotFound      = apperr.NotFound("comment not found")
	ErrVideoNotFound = apperr.NotFound("video not found")
)

// Repository persists comments.
type Repository interface {
	// Create returns ErrVideoNotFound unless the video exists and is
	// visible to the author.
	Create(ctx context.Context, c *Comment) error
	GetByID(ctx context.Context, id string) (*Comment, error)
	ListByVideo(ctx context.Context, videoID, viewerID string, p paging.Params) ([]Comment, int, error)
	UpdateContent(ctx context.Context, c *Comment) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed comment repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectComment = `SELECT c.id, c.owner_id, a.username, c.video_id, c.content, c.created_at, c.updated_at
	FROM comments c JOIN accounts a ON a.id = c.owner_id`

// Create implements Repository.
func (r *SQLiteRepository) Create(ctx context.Context, c *Comment) error {
	if err := r.requireVisibleVideo(ctx, c.VideoID, c.Owner); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = "cmt-" + uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, owner_id, video_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Owner, c.VideoID, c.Content, database.FormatTime(now), database.FormatTime(now))
	if database.IsForeignKeyViolation(err) {
		return ErrVideoNotFound
	}
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Comment, error) {
	return scanComment(r.db.QueryRowContext(ctx, selectComment+` WHERE c.id = ?`, id))
}

// ListByVideo returns one page of a video's comments, newest first.
func (r *SQLiteRepository) ListByVideo(ctx context.Context, videoID, viewerID string, p paging.Params) ([]Comment, int, error) {
	if err := r.requireVisibleVideo(ctx, videoID, viewerID); err != nil {
		return nil, 0, err
	}
	p = p.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE video_id = ?`, videoID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		selectComment+` WHERE c.video_id = ? ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`,
		videoID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, total, nil
}

// UpdateContent writes c.Content. owner_id and video_id are never written.
func (r *SQLiteRepository) UpdateContent(ctx context.Context, c *Comment) error {
	c.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		c.Content, database.FormatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes a comment by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return requireOneRow(result)
}

func (r *SQLiteRepository) requireVisibleVideo(ctx context.Context, videoID, viewerID string) error {
	var visible bool
	err := r.db.QueryRowContext(ctx,
		`SELECT is_published = 1 OR owner_id = ? FROM videos WHERE id = ?`, viewerID, videoID).Scan(&visible)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVideoNotFound
	}
	if err != nil {
		return fmt.Errorf("checking video: %w", err)
	}
	if !visible {
		return ErrVideoNotFound
	}
	return nil
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

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(row scanner) (*Comment, error) {
	var c Comment
	var createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.Owner, &c.OwnerUsername, &c.VideoID, &c.Content, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning comment: %w", err)
	}
	if c.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Service implements the comment operations.
type Service struct {
	repo   Repository
	events activity.Sink
}

// NewService creates a comment service. A nil sink discards events.
func NewService(repo Repository, events activity.Sink) *Service {
	if events == nil {
		events = activity.Nop{}
	}
	return &Service{repo: repo, events: events}
}

// List returns one page of comments on videoID.
func (s *Service) List(ctx context.Context, who *auth.Identity, videoID string, p paging.Params) (paging.Page[Comment], error) {
	if who == nil {
		return paging.Page[Comment]{}, auth.ErrUnauthorized
	}
	comments, total, err := s.repo.ListByVideo(ctx, videoID, who.ID, p)
	if err != nil {
		return paging.Page[Comment]{}, classify("listing comments", err)
	}
	return paging.New(comments, total, p), nil
}

// Add comments on videoID as who.
func (s *Service) Add(ctx context.Context, who *auth.Identity, videoID, content string) (*Comment, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	c := &Comment{Owner: who.ID, OwnerUsername: who.Username, VideoID: videoID, Content: content}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, classify("adding comment", err)
	}
	s.events.Record(ctx, activity.Event{
		Type: activity.CommentCreated, ActorID: who.ID, TargetType: "video", TargetID: videoID,
	})
	return c, nil
}

// Update replaces the content of a comment written by who.
func (s *Service) Update(ctx context.Context, who *auth.Identity, id, content string) (*Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	c, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return nil, err
	}
	c.Content = content
	if err := s.repo.UpdateContent(ctx, c); err != nil {
		return nil, classify("updating comment", err)
	}
	return c, nil
}

// Delete removes a comment written by who and returns it.
func (s *Service) Delete(ctx context.Context, who *auth.Identity, id string) (*Comment, error) {
	c, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return nil, classify("deleting comment", err)
	}
	return c, nil
}

func (s *Service) loader(id string) func(context.Context) (*Comment, error) {
	return func(ctx context.Context) (*Comment, error) {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, classify("loading comment", err)
		}
		return c, nil
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", apperr.Validation(fmt.Sprintf("content must be at most %d characters", MaxContentLength))
	}
	return content, nil
}

func classify(op string, err error) error {
	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		return err
	}
	return apperr.Internal(op, err)
}
