package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/vidhub-core/internal/testutil"
)

const (
	testAccessSecret  = "access-secret-key-at-least-32-chars!"
	testRefreshSecret = "refresh-secret-key-at-least-32-chars"
	testPassword      = "correct horse battery"
)

// fastParams keeps Argon2id cheap in tests.
var fastParams = PasswordParams{Time: 1, MemoryKiB: 64, Threads: 1}

func testIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(TokenConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		Issuer:        "vidhub-test",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	return issuer
}

type testEnv struct {
	db       *database.DB
	accounts *SQLiteAccountRepository
	sessions SessionStore
	tokens   *TokenIssuer
	svc      *Service
}

// newTestEnv builds a Service over a migrated temp database.
// A nil sessions argument selects the SQLite session store.
func newTestEnv(t *testing.T, sessions SessionStore) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	accounts := NewSQLiteAccountRepository(db.DB)
	if sessions == nil {
		sessions = NewSQLiteSessionStore(db.DB)
	}
	tokens := testIssuer(t)

	svc, err := NewService(Deps{
		Accounts: accounts,
		Sessions: sessions,
		Hasher:   NewPasswordHasher(fastParams),
		Tokens:   tokens,
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)

	return &testEnv{db: db, accounts: accounts, sessions: sessions, tokens: tokens, svc: svc}
}

func (e *testEnv) register(t *testing.T, username string) *Account {
	t.Helper()
	account, err := e.svc.Register(t.Context(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		FullName: username,
		Password: testPassword,
	})
	require.NoError(t, err)
	return account
}
