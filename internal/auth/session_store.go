package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// SessionStore holds the single live refresh token per account.
//
// Tokens are passed raw and stored as SHA-256 digests. Get returns the digest.
// CompareAndRotate is the only safe way to replace a token on refresh: two
// concurrent refreshes with the same token cannot both swap.
type SessionStore interface {
	// Rotate unconditionally stores token as the live session (login).
	Rotate(ctx context.Context, accountID, token string) error

	// CompareAndRotate replaces current with next iff current is live.
	CompareAndRotate(ctx context.Context, accountID, current, next string) (bool, error)

	// Clear removes the live session (logout).
	Clear(ctx context.Context, accountID string) error

	// Get returns the digest of the live session, if any.
	Get(ctx context.Context, accountID string) (digest string, ok bool, err error)
}

// HashToken returns the SHA-256 hex digest of a raw token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// SQLiteSessionStore keeps the session digest in accounts.current_session_token.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStore creates a session store over the accounts table.
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Rotate overwrites the live session digest.
func (s *SQLiteSessionStore) Rotate(ctx context.Context, accountID, token string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET current_session_token = ? WHERE id = ?`,
		HashToken(token), accountID,
	)
	if err != nil {
		return fmt.Errorf("rotating session: %w", err)
	}
	return requireOneRow(result)
}

// CompareAndRotate swaps the digest in a single conditional UPDATE.
func (s *SQLiteSessionStore) CompareAndRotate(ctx context.Context, accountID, current, next string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET current_session_token = ?
		 WHERE id = ? AND current_session_token = ?`,
		HashToken(next), accountID, HashToken(current),
	)
	if err != nil {
		return false, fmt.Errorf("rotating session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n == 1, nil
}

// Clear sets the live session to NULL.
func (s *SQLiteSessionStore) Clear(ctx context.Context, accountID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET current_session_token = NULL WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return requireOneRow(result)
}

// Get returns the live session digest.
func (s *SQLiteSessionStore) Get(ctx context.Context, accountID string) (string, bool, error) {
	var digest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT current_session_token FROM accounts WHERE id = ?`, accountID).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, ErrAccountNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("reading session: %w", err)
	}
	return digest.String, digest.Valid, nil
}
