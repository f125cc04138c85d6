package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/audit"
)

// auditChanSize is the buffer size for the async audit log channel.
// Entries beyond this are dropped (best-effort) to avoid back-pressure on requests.
const auditChanSize = 256

// auditLog enqueues a security event for asynchronous write (best-effort).
// If the channel is full the entry is dropped and a warning is logged.
// details must never contain a password or token.
func (s *Server) auditLog(action, accountID string, details map[string]any) {
	if s.auditCh == nil {
		return
	}

	entry := &audit.Entry{
		Action:     action,
		EntityType: audit.EntityAccount,
		EntityID:   accountID,
		UserID:     accountID,
		Source:     "api",
		Details:    details,
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit log channel full, dropping entry", "action", action)
	}
}

// drainAuditLog reads entries from the audit channel and writes them serially.
// This avoids unbounded goroutine creation and is kinder to SQLite's serial write model.
// It runs until the context is cancelled, then drains remaining entries.
func (s *Server) drainAuditLog(ctx context.Context) {
	for {
		select {
		case entry := <-s.auditCh:
			s.writeAudit(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					s.writeAudit(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *Server) writeAudit(entry *audit.Entry) {
	if err := s.auditRepo.Create(context.Background(), entry); err != nil {
		s.logger.Error("audit log write failed",
			"action", entry.Action,
			"error", err,
		)
	}
}

// handleSecurityEvents returns the caller's own security events, newest first.
//
// Query parameters:
//   - action: filter by action (login, login_failed, refresh, ...)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleSecurityEvents(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeSuccess(w, http.StatusOK, audit.ListResult{Entries: []audit.Entry{}}, "audit logging disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		UserID: identity(r).ID,
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.writeAppError(w, r, apperr.Internal("listing audit entries", err))
		return
	}

	writeSuccess(w, http.StatusOK, result, "security events fetched")
}

// intParam parses an optional non-negative integer query value.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Validation("limit and offset must be non-negative integers")
	}
	return n, nil
}
