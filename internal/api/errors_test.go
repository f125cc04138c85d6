package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/vidhub-core/internal/relation"
)

func TestWriteAppErrorMapping(t *testing.T) {
	s := &Server{logger: logging.Discard()}

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", apperr.Validation("title is required"), http.StatusBadRequest, ErrCodeValidation, "title is required"},
		{"authentication", auth.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials"},
		{"authorization", apperr.Authorization("you do not own this video"), http.StatusForbidden, ErrCodeForbidden, "you do not own this video"},
		{"not found wrapped", fmt.Errorf("loading: %w", relation.ErrVideoNotFound), http.StatusNotFound, ErrCodeNotFound, "video not found"},
		{"conflict", relation.ErrConcurrentToggle, http.StatusConflict, ErrCodeConflict, "relation changed concurrently, retry"},
		{"internal hides cause", apperr.Internal("querying videos", errors.New("database is locked")), http.StatusInternalServerError, ErrCodeInternal, internalMessage},
		{"untagged is internal", errors.New("disk full"), http.StatusInternalServerError, ErrCodeInternal, internalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			got := decodeEnvelope(t, rec)
			if got.Status != tt.status || got.Code != tt.code || got.Message != tt.message {
				t.Errorf("envelope = %+v, want {%d %s %s}", got, tt.status, tt.code, tt.message)
			}
			if strings.Contains(rec.Body.String(), "locked") {
				t.Error("internal cause leaked into response")
			}
		})
	}
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"content":"` + strings.Repeat("a", maxRequestBodySize) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, maxRequestBodySize)

	var v tweetRequest
	err := decodeJSON(req, &v)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("KindOf = %v, want validation", apperr.KindOf(err))
	}
	if apperr.MessageOf(err) != "request body too large" {
		t.Errorf("message = %q", apperr.MessageOf(err))
	}
}
