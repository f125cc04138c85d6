// Package tweet manages short text posts on a channel.
package tweet

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
)

// MaxContentLength is the longest tweet accepted, in characters.
const MaxContentLength = 280

// Tweet is a stored post.
type Tweet struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnerID returns the owning account ID.
func (t *Tweet) OwnerID() string { return t.Owner }

// Sentinel errors.
var (
	ErrNotFound      = apperr.NotFound("tweet not found")
	ErrOwnerNotFound = apperr.NotFound("user not found")
)

// Repository persists tweets.
type Repository interface {
	Create(ctx context.Context, t *Tweet) error
	GetByID(ctx context.Context, id string) (*Tweet, error)
	// ListByOwner returns ErrOwnerNotFound when the account does not exist.
	ListByOwner(ctx context.Context, ownerID string) ([]Tweet, error)
	UpdateContent(ctx context.Context, t *Tweet) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed tweet repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectTweet = `SELECT t.id, t.owner_id, a.username, t.content, t.created_at, t.updated_at
	FROM tweets t JOIN accounts a ON a.id = t.owner_id`

// Create inserts t. ID and timestamps are set here.
func (r *SQLiteRepository) Create(ctx context.Context, t *Tweet) error {
	if t.ID == "" {
		t.ID = "twt-" + uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tweets (id, owner_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Owner, t.Content, database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		return fmt.Errorf("inserting tweet: %w", err)
	}
	return nil
}

// GetByID retrieves a tweet by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Tweet, error) {
	return scanTweet(r.db.QueryRowContext(ctx, selectTweet+` WHERE t.id = ?`, id))
}

// ListByOwner returns an account's tweets, newest first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]Tweet, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = ?)`, ownerID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking owner: %w", err)
	}
	if !exists {
		return nil, ErrOwnerNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		selectTweet+` WHERE t.owner_id = ? ORDER BY t.created_at DESC, t.id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying tweets: %w", err)
	}
	defer rows.Close()

	tweets := []Tweet{}
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		tweets = append(tweets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tweets: %w", err)
	}
	return tweets, nil
}

// UpdateContent writes t.Content. owner_id is never written.
func (r *SQLiteRepository) UpdateContent(ctx context.Context, t *Tweet) error {
	t.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE tweets SET content = ?, updated_at = ? WHERE id = ?`,
		t.Content, database.FormatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("updating tweet: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes a tweet by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tweets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tweet: %w", err)
	}
	return requireOneRow(result)
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

func scanTweet(row scanner) (*Tweet, error) {
	var t Tweet
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Owner, &t.OwnerUsername, &t.Content, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning tweet: %w", err)
	}
	if t.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Service implements the tweet operations.
type Service struct {
	repo   Repository
	events activity.Sink
}

// NewService creates a tweet service. A nil sink discards events.
func NewService(repo Repository, events activity.Sink) *Service {
	if events == nil {
		events = activity.Nop{}
	}
	return &Service{repo: repo, events: events}
}

// Create posts a tweet as who.
func (s *Service) Create(ctx context.Context, who *auth.Identity, content string) (*Tweet, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	t := &Tweet{Owner: who.ID, OwnerUsername: who.Username, Content: content}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, classify("creating tweet", err)
	}
	s.events.Record(ctx, activity.Event{
		Type: activity.TweetCreated, ActorID: who.ID, TargetType: "tweet", TargetID: t.ID,
	})
	return t, nil
}

// ListByUser returns userID's tweets, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Tweet, error) {
	tweets, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, classify("listing tweets", err)
	}
	return tweets, nil
}

// Update replaces the content of a tweet owned by who.
func (s *Service) Update(ctx context.Context, who *auth.Identity, id, content string) (*Tweet, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	t, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return nil, err
	}
	t.Content = content
	if err := s.repo.UpdateContent(ctx, t); err != nil {
		return nil, classify("updating tweet", err)
	}
	return t, nil
}

// Delete removes a tweet owned by who.
func (s *Service) Delete(ctx context.Context, who *auth.Identity, id string) error {
	t, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		return classify("deleting tweet", err)
	}
	return nil
}

func (s *Service) loader(id string) func(context.Context) (*Tweet, error) {
	return func(ctx context.Context) (*Tweet, error) {
		t, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, classify("loading tweet", err)
		}
		return t, nil
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
