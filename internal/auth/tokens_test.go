package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/vidhub-core/internal/apperr"
)

func TestNewTokenIssuer_Validation(t *testing.T) {
	valid := TokenConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}

	tests := []struct {
		name   string
		mutate func(*TokenConfig)
	}{
		{"short access secret", func(c *TokenConfig) { c.AccessSecret = "short" }},
		{"empty refresh secret", func(c *TokenConfig) { c.RefreshSecret = "" }},
		{"identical secrets", func(c *TokenConfig) { c.RefreshSecret = c.AccessSecret }},
		{"zero access ttl", func(c *TokenConfig) { c.AccessTTL = 0 }},
		{"refresh not longer", func(c *TokenConfig) { c.RefreshTTL = c.AccessTTL }},
	}

	_, err := NewTokenIssuer(valid)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewTokenIssuer(cfg)
			assert.Error(t, err)
		})
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := testIssuer(t)

	access, err := issuer.IssueAccess("acc-1")
	require.NoError(t, err)
	refresh, err := issuer.IssueRefresh("acc-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(access.Value, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)

	claims, err = issuer.Verify(refresh.Value, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, claims.Kind)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt))
}

func TestTokenIssuer_KindsAreNotInterchangeable(t *testing.T) {
	issuer := testIssuer(t)
	pair, err := issuer.IssuePair("acc-1")
	require.NoError(t, err)

	_, err = issuer.Verify(pair.Access.Value, KindRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Verify(pair.Refresh.Value, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuer_SameSecondTokensDiffer(t *testing.T) {
	issuer := testIssuer(t)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.SetClock(func() time.Time { return fixed })

	a, err := issuer.IssueRefresh("acc-1")
	require.NoError(t, err)
	b, err := issuer.IssueRefresh("acc-1")
	require.NoError(t, err)

	assert.NotEqual(t, a.Value, b.Value)
}

func TestTokenIssuer_Expiry(t *testing.T) {
	issuer := testIssuer(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.SetClock(func() time.Time { return now })

	access, err := issuer.IssueAccess("acc-1")
	require.NoError(t, err)

	now = now.Add(15*time.Minute - time.Second)
	_, err = issuer.Verify(access.Value, KindAccess)
	require.NoError(t, err, "still valid one second before expiry")

	now = now.Add(time.Second)
	_, err = issuer.Verify(access.Value, KindAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid, "expiry must be strictly in the future")
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestTokenIssuer_RejectsForgeries(t *testing.T) {
	issuer := testIssuer(t)
	access, err := issuer.IssueAccess("acc-1")
	require.NoError(t, err)

	otherKey, err := NewTokenIssuer(TokenConfig{
		AccessSecret:  strings.Repeat("x", 32),
		RefreshSecret: strings.Repeat("y", 32),
		Issuer:        "vidhub-test",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)
	foreign, err := otherKey.IssueAccess("acc-1")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			Issuer:    "vidhub-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Kind: KindAccess,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acc-1", Issuer: "vidhub-test"},
		Kind:             KindAccess,
	}).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vidhub-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Kind: KindAccess,
	}).SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	for name, value := range map[string]string{
		"empty":      "",
		"garbage":    "not.a.jwt",
		"tampered":   access.Value[:len(access.Value)-2] + "xx",
		"other key":  foreign.Value,
		"alg none":   unsigned,
		"no expiry":  noExpiry,
		"no subject": noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(value, KindAccess)
			require.Error(t, err)
			assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
		})
	}
}
