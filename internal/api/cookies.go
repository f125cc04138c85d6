package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/vidhub-core/internal/auth"
)

// Credential cookie names.
const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// setSessionCookies delivers both credentials of pair as cookies expiring
// with the tokens themselves.
func (s *Server) setSessionCookies(w http.ResponseWriter, pair auth.Pair) {
	http.SetCookie(w, s.sessionCookie(accessCookieName, pair.Access.Value, pair.Access.ExpiresAt))
	http.SetCookie(w, s.sessionCookie(refreshCookieName, pair.Refresh.Value, pair.Refresh.ExpiresAt))
}

// clearSessionCookies expires both credential cookies.
func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		c := s.sessionCookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (s *Server) sessionCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.cfg.Cookies.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cfg.Cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
