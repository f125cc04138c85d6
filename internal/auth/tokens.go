package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// minSecretLength is the minimum length of each signing secret.
const minSecretLength = 32

// TokenKind distinguishes access from refresh credentials.
type TokenKind string

const (
	// KindAccess is the short-lived credential presented on every request.
	KindAccess TokenKind = "access"

	// KindRefresh is the single-use credential exchanged for a new pair.
	KindRefresh TokenKind = "refresh"
)

// TokenConfig configures a TokenIssuer.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims is the JWT payload for both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"typ"`
}

// Token is a signed credential and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Pair is an access and refresh credential issued together.
type Pair struct {
	AccountID string
	Access    Token
	Refresh   Token
}

// TokenIssuer signs and verifies HS256 credentials.
//
// Access and refresh tokens use independent keys, so a token of one kind
// fails signature verification where the other kind is expected.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer validates cfg and returns an issuer using the wall clock.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) < minSecretLength || len(cfg.RefreshSecret) < minSecretLength {
		return nil, fmt.Errorf("token secrets must be at least %d characters", minSecretLength)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, fmt.Errorf("refresh TTL must exceed a positive access TTL")
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}, nil
}

// SetClock replaces the time source. Tests use it to step past expiry.
func (i *TokenIssuer) SetClock(now func() time.Time) {
	i.now = now
}

// RefreshTTL returns the configured refresh token lifetime.
func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.cfg.RefreshTTL
}

// IssueAccess signs a new access credential for accountID.
func (i *TokenIssuer) IssueAccess(accountID string) (Token, error) {
	return i.issue(accountID, KindAccess)
}

// IssueRefresh signs a new refresh credential for accountID.
func (i *TokenIssuer) IssueRefresh(accountID string) (Token, error) {
	return i.issue(accountID, KindRefresh)
}

// IssuePair signs a fresh access and refresh credential for accountID.
func (i *TokenIssuer) IssuePair(accountID string) (Pair, error) {
	access, err := i.IssueAccess(accountID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.IssueRefresh(accountID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccountID: accountID, Access: access, Refresh: refresh}, nil
}

func (i *TokenIssuer) issue(accountID string, kind TokenKind) (Token, error) {
	secret, ttl := i.keyFor(kind)

	now := i.now()
	expires := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(), // two issuances in the same second still differ
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return Token{}, fmt.Errorf("signing %s token: %w", kind, err)
	}
	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks value against the key for kind and returns its claims.
// Signature, algorithm, expiry, kind and subject are all checked; every
// failure wraps ErrTokenInvalid.
func (i *TokenIssuer) Verify(value string, kind TokenKind) (*Claims, error) {
	secret, _ := i.keyFor(kind)

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(value, &Claims{}, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token", ErrTokenInvalid, kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

func (i *TokenIssuer) keyFor(kind TokenKind) ([]byte, time.Duration) {
	if kind == KindRefresh {
		return []byte(i.cfg.RefreshSecret), i.cfg.RefreshTTL
	}
	return []byte(i.cfg.AccessSecret), i.cfg.AccessTTL
}
