package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/audit"
	"github.com/nerrad567/vidhub-core/internal/auth"
)

// ─── Request/Response Types ────────────────────────────────────────

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Password   string `json:"password"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"cover_image"`
}

// loginRequest accepts either username or email as the identifier.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Account      *auth.Identity `json:"account"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type updateProfileRequest struct {
	FullName   *string `json:"full_name"`
	Email      *string `json:"email"`
	Avatar     *string `json:"avatar"`
	CoverImage *string `json:"cover_image"`
}

type channelProfile struct {
	*auth.Identity
	SubscribersCount  int  `json:"subscribers_count"`
	SubscribedToCount int  `json:"subscribed_to_count"`
	IsSubscribed      bool `json:"is_subscribed"`
}

// authResult labels an auth metric by outcome.
func authResult(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleRegister creates an account. It does not sign the caller in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	account, err := s.auth.Register(r.Context(), auth.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	s.metrics.AuthEvent("register", authResult(err))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.auditLog(audit.ActionRegister, account.ID, map[string]any{"username": account.Username})
	writeSuccess(w, http.StatusCreated, account.Identity(), "user registered successfully")
}

// handleLogin verifies credentials and sets both session cookies.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	account, pair, err := s.auth.Login(r.Context(), identifier, req.Password)
	s.metrics.AuthEvent("login", authResult(err))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.auditLog(audit.ActionLoginFailed, "", map[string]any{"identifier": identifier})
		}
		s.writeAppError(w, r, err)
		return
	}

	s.auditLog(audit.ActionLogin, account.ID, nil)
	s.setSessionCookies(w, pair)
	writeSuccess(w, http.StatusOK, loginResponse{
		Account:      account.Identity(),
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}, "user logged in successfully")
}

// handleRefresh exchanges the live refresh token for a new pair.
// The refreshToken cookie is preferred over the JSON body.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if c, err := r.Cookie(refreshCookieName); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeOptionalJSON(r, &req); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		presented = req.RefreshToken
	}

	pair, err := s.auth.Refresh(r.Context(), presented)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshReused) {
			s.metrics.AuthEvent("refresh", "reused")
			s.auditLog(audit.ActionRefreshReuse, pair.AccountID, nil)
		} else {
			s.metrics.AuthEvent("refresh", "failure")
		}
		s.writeAppError(w, r, err)
		return
	}

	s.metrics.AuthEvent("refresh", "success")
	s.auditLog(audit.ActionRefresh, pair.AccountID, nil)
	s.setSessionCookies(w, pair)
	writeSuccess(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}, "access token refreshed")
}

// handleLogout clears the caller's session and both cookies.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	if err := s.auth.Logout(r.Context(), who.ID); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.metrics.AuthEvent("logout", "success")
	s.auditLog(audit.ActionLogout, who.ID, nil)
	s.clearSessionCookies(w)
	writeSuccess(w, http.StatusOK, map[string]any{}, "user logged out")
}

// handleChangePassword verifies the old password and stores the new one.
// The live session is left in place.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	who := identity(r)
	err := s.auth.ChangePassword(r.Context(), who.ID, req.OldPassword, req.NewPassword)
	s.metrics.AuthEvent("password_change", authResult(err))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.auditLog(audit.ActionPasswordChange, who.ID, nil)
	writeSuccess(w, http.StatusOK, map[string]any{}, "password changed successfully")
}

// handleGetMe returns the caller's own account.
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	account, err := s.auth.Account(r.Context(), identity(r).ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, account, "current user fetched")
}

// handleUpdateMe applies a partial profile update.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if req.FullName == nil && req.Email == nil && req.Avatar == nil && req.CoverImage == nil {
		s.writeAppError(w, r, apperr.Validation("at least one of full_name, email, avatar or cover_image is required"))
		return
	}

	account, err := s.auth.UpdateProfile(r.Context(), identity(r).ID, auth.ProfileUpdate{
		FullName:   req.FullName,
		Email:      req.Email,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, account, "account details updated")
}

// handleWatchHistory lists the caller's watched videos, most recent first.
func (s *Server) handleWatchHistory(w http.ResponseWriter, r *http.Request) {
	videos, err := s.videos.History(r.Context(), identity(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, videos, "watch history fetched")
}

// handleChannelProfile returns a channel's public profile with its
// subscription counts as seen by the caller.
func (s *Server) handleChannelProfile(w http.ResponseWriter, r *http.Request) {
	account, err := s.auth.AccountByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	stats, err := s.subscriptions.Stats(r.Context(), account.ID, identity(r).ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, channelProfile{
		Identity:          account.Identity(),
		SubscribersCount:  stats.Subscribers,
		SubscribedToCount: stats.SubscribedTo,
		IsSubscribed:      stats.IsSubscribed,
	}, "channel fetched")
}
