package auth

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

// AccountRepository persists accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	// GetByIdentifier matches either the username or the email.
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, account *Account) error
}

// SQLiteAccountRepository implements AccountRepository using SQLite.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewSQLiteAccountRepository creates a new SQLite-backed account repository.
func NewSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

const accountColumns = `id, username, email, full_name, avatar, cover_image, password_hash, created_at, updated_at`

// Create inserts a new account. ID and timestamps are set if empty.
func (r *SQLiteAccountRepository) Create(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = "acc-" + uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Username, a.Email, a.FullName, a.Avatar, a.CoverImage, a.PasswordHash,
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		return classifyAccountWrite(err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetByUsername retrieves an account by its username.
func (r *SQLiteAccountRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`,
		normaliseIdentifier(username))
	return scanAccount(row)
}

// GetByIdentifier retrieves an account whose username or email equals identifier.
func (r *SQLiteAccountRepository) GetByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	id := normaliseIdentifier(identifier)
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ? OR email = ? LIMIT 1`, id, id)
	return scanAccount(row)
}

// UpdatePassword replaces an account's password hash.
func (r *SQLiteAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, database.FormatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return requireOneRow(result)
}

// UpdateProfile writes the mutable display fields and email of an account.
func (r *SQLiteAccountRepository) UpdateProfile(ctx context.Context, a *Account) error {
	a.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET email = ?, full_name = ?, avatar = ?, cover_image = ?, updated_at = ?
		 WHERE id = ?`,
		a.Email, a.FullName, a.Avatar, a.CoverImage, database.FormatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return classifyAccountWrite(err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// classifyAccountWrite maps UNIQUE violations on username or email to the
// matching Conflict sentinel. Anything else, an ID collision included, is internal.
func classifyAccountWrite(err error) error {
	if database.IsUniqueViolation(err) {
		switch msg := err.Error(); {
		case strings.Contains(msg, "accounts.email"):
			return ErrEmailExists
		case strings.Contains(msg, "accounts.username"):
			return ErrUsernameExists
		}
	}
	return fmt.Errorf("writing account: %w", err)
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*Account, error) {
	var a Account
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.Avatar, &a.CoverImage,
		&a.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	if a.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
