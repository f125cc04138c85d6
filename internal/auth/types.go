package auth

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/nerrad567/vidhub-core/internal/apperr"
)

// usernamePattern defines the valid format for usernames:
// lower-case alphanumeric, dots, hyphens, underscores, 3-32 characters.
var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)

// minPasswordLength is the shortest password accepted at registration or change.
const minPasswordLength = 8

// Account is a stored user account.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"cover_image"`
	PasswordHash string    `json:"-"` // never serialised
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the view of an account attached to an authenticated request.
// It never carries the password hash or the session token.
type Identity struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"cover_image"`
	CreatedAt  time.Time `json:"created_at"`
}

// Identity returns the request-safe view of a.
func (a *Account) Identity() *Identity {
	return &Identity{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		FullName:   a.FullName,
		Avatar:     a.Avatar,
		CoverImage: a.CoverImage,
		CreatedAt:  a.CreatedAt,
	}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

// ProfileUpdate carries optional profile changes. Nil fields are left alone.
type ProfileUpdate struct {
	FullName   *string
	Email      *string
	Avatar     *string
	CoverImage *string
}

// Sentinel errors. Each is pre-tagged so errors.Is and apperr.KindOf both
// survive %w wrapping.
var (
	ErrInvalidCredentials = apperr.Authentication("invalid credentials")
	ErrUnauthorized       = apperr.Authentication("unauthorized")
	ErrTokenInvalid       = apperr.Authentication("invalid or expired token")
	ErrRefreshReused      = apperr.Authentication("refresh token is expired or used")
	ErrAccountNotFound    = apperr.NotFound("account not found")
	ErrUsernameExists     = apperr.Conflict("username already exists")
	ErrEmailExists        = apperr.Conflict("email already exists")
	ErrInvalidOldPassword = apperr.Validation("invalid old password")
)

// normaliseIdentifier lower-cases and trims a username or email.
func normaliseIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.Validation("email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters")
	}
	return nil
}

// validate normalises in place and checks every required field.
func (in *RegisterInput) validate() error {
	in.Username = normaliseIdentifier(in.Username)
	in.Email = normaliseIdentifier(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.FullName == "" || in.Password == "" {
		return apperr.Validation("username, email, full_name and password are required")
	}
	if !usernamePattern.MatchString(in.Username) {
		return apperr.Validation("username must be 3-32 characters of a-z, 0-9, '.', '_' or '-'")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	return validatePassword(in.Password)
}
