// Package api implements the HTTP JSON API for vidhub.
//
// This package provides:
//   - account and session endpoints (register, login, refresh, logout)
//   - resource endpoints for videos, tweets, comments, likes,
//     subscriptions, playlists and the channel dashboard
//   - cookie or bearer authentication via authMiddleware
//   - middleware stack (request ID, logging, metrics, recovery, CORS)
//   - TLS support for production deployments
//
// # Responses
//
// Every success is wrapped as {"status", "data", "message"} and every
// failure as {"status", "code", "message"}. Domain errors carry an
// apperr.Kind; writeAppError is the only place a Kind becomes a status code.
//
// # Security
//
// Access and refresh tokens are delivered both in the JSON body and as
// HttpOnly, SameSite=Strict cookies. Protected routes accept the
// accessToken cookie first and fall back to an Authorization: Bearer header.
// Security events are written to the audit log asynchronously.
package api
