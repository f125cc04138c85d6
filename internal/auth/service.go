package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
)

// Deps holds the collaborators of a Service.
type Deps struct {
	Accounts AccountRepository
	Sessions SessionStore
	Hasher   *PasswordHasher
	Tokens   *TokenIssuer
	Logger   *logging.Logger
}

// Service runs the account and session lifecycle: registration, login,
// refresh rotation, logout, password change and request authentication.
type Service struct {
	accounts AccountRepository
	sessions SessionStore
	hasher   *PasswordHasher
	tokens   *TokenIssuer
	logger   *logging.Logger

	// dummyHash is verified against when an identifier is unknown so that
	// unknown and known accounts take the same time to reject.
	dummyHash string
}

// NewService validates deps and returns a ready Service.
func NewService(deps Deps) (*Service, error) {
	if deps.Accounts == nil || deps.Sessions == nil || deps.Hasher == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("auth: accounts, sessions, hasher and tokens are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}

	dummy, err := deps.Hasher.Hash("vidhub-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("auth: computing dummy hash: %w", err)
	}

	return &Service{
		accounts:  deps.Accounts,
		sessions:  deps.Sessions,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		logger:    deps.Logger.With("component", "auth"),
		dummyHash: dummy,
	}, nil
}

// Register creates a new account. Username and email are stored lower-cased.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("hashing password", err)
	}

	account := &Account{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       in.Avatar,
		CoverImage:   in.CoverImage,
		PasswordHash: hash,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, s.classify("creating account", err)
	}

	s.logger.Info("account registered", "account_id", account.ID, "username", account.Username)
	return account, nil
}

// Login verifies identifier (username or email) and password, issues a
// fresh credential pair, and makes its refresh token the live session.
//
// Any existing session for the account is replaced.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Account, Pair, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, Pair{}, apperr.Validation("username or email and password are required")
	}

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if errors.Is(err, ErrAccountNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		return nil, Pair{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, Pair{}, apperr.Internal("loading account", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, Pair{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(account.PasswordHash) {
		s.upgradeHash(ctx, account, password)
	}

	pair, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return nil, Pair{}, apperr.Internal("issuing tokens", err)
	}
	if err := s.sessions.Rotate(ctx, account.ID, pair.Refresh.Value); err != nil {
		return nil, Pair{}, s.classify("storing session", err)
	}

	s.logger.Info("login succeeded", "account_id", account.ID)
	return account, pair, nil
}

// upgradeHash replaces a legacy or weak hash. Failure is logged, not fatal:
// the password was already verified.
func (s *Service) upgradeHash(ctx context.Context, account *Account, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.accounts.UpdatePassword(ctx, account.ID, hash)
	}
	if err != nil {
		s.logger.Warn("password rehash failed", "account_id", account.ID, "error", err)
		return
	}
	account.PasswordHash = hash
	s.logger.Info("password hash upgraded", "account_id", account.ID)
}

// Refresh exchanges a live refresh token for a new pair.
//
// The presented token must verify as a refresh credential and must equal
// the stored session. The swap is a single compare-and-rotate, so the
// presented token can succeed at most once. A mismatch is rejected with
// ErrRefreshReused and leaves the stored session untouched; the returned
// Pair then carries only the AccountID of the token's owner.
func (s *Service) Refresh(ctx context.Context, presented string) (Pair, error) {
	if presented == "" {
		return Pair{}, ErrUnauthorized
	}

	claims, err := s.tokens.Verify(presented, KindRefresh)
	if err != nil {
		return Pair{}, err
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if errors.Is(err, ErrAccountNotFound) {
		return Pair{}, ErrTokenInvalid
	}
	if err != nil {
		return Pair{}, apperr.Internal("loading account", err)
	}

	pair, err := s.tokens.IssuePair(account.ID)
	if err != nil {
		return Pair{}, apperr.Internal("issuing tokens", err)
	}

	swapped, err := s.sessions.CompareAndRotate(ctx, account.ID, presented, pair.Refresh.Value)
	if err != nil {
		return Pair{}, apperr.Internal("rotating session", err)
	}
	if !swapped {
		s.logger.Warn("stale refresh token presented", "account_id", account.ID, "jti", claims.ID)
		return Pair{AccountID: account.ID}, ErrRefreshReused
	}

	return pair, nil
}

// Logout clears the live session. Outstanding access tokens stay valid
// until they expire.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	if err := s.sessions.Clear(ctx, accountID); err != nil {
		return s.classify("clearing session", err)
	}
	s.logger.Info("logout", "account_id", accountID)
	return nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("old_password and new_password are required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return s.classify("loading account", err)
	}
	if !s.hasher.Verify(oldPassword, account.PasswordHash) {
		return ErrInvalidOldPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal("hashing password", err)
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return s.classify("updating password", err)
	}

	s.logger.Info("password changed", "account_id", accountID)
	return nil
}

// Authenticate resolves an access token to the caller's identity.
// It performs no writes.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.Verify(accessToken, KindAccess)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, apperr.Internal("loading account", err)
	}
	return account.Identity(), nil
}

// Account returns the account with id.
func (s *Service) Account(ctx context.Context, id string) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, s.classify("loading account", err)
	}
	return account, nil
}

// AccountByUsername returns the account with username.
func (s *Service) AccountByUsername(ctx context.Context, username string) (*Account, error) {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.classify("loading account", err)
	}
	return account, nil
}

// UpdateProfile applies the non-nil fields of upd to the account.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, s.classify("loading account", err)
	}

	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, apperr.Validation("full_name must not be empty")
		}
		account.FullName = name
	}
	if upd.Email != nil {
		email := normaliseIdentifier(*upd.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		account.Email = email
	}
	if upd.Avatar != nil {
		account.Avatar = *upd.Avatar
	}
	if upd.CoverImage != nil {
		account.CoverImage = *upd.CoverImage
	}

	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		return nil, s.classify("updating profile", err)
	}
	return account, nil
}

// classify passes tagged errors through and wraps the rest as Internal.
func (s *Service) classify(op string, err error) error {
	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		return err
	}
	return apperr.Internal(op, err)
}
