package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/vidhub-core/internal/activity"
	"github.com/nerrad567/vidhub-core/internal/audit"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/comment"
	"github.com/nerrad567/vidhub-core/internal/dashboard"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/config"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/metrics"
	"github.com/nerrad567/vidhub-core/internal/playlist"
	"github.com/nerrad567/vidhub-core/internal/relation"
	"github.com/nerrad567/vidhub-core/internal/testutil"
	"github.com/nerrad567/vidhub-core/internal/tweet"
	"github.com/nerrad567/vidhub-core/internal/video"
)

const testPassword = "correct horse battery"

type testEnv struct {
	srv     *Server
	handler http.Handler
	db      *database.DB
	metrics *metrics.Metrics
}

// newTestEnv wires a Server over a migrated temp database with every real
// service. Media storage, MQTT and InfluxDB are left out.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := logging.Discard()
	m := metrics.New()

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  "access-secret-key-at-least-32-chars!",
		RefreshSecret: "refresh-secret-key-at-least-32-chars",
		Issuer:        "vidhub-test",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	authSvc, err := auth.NewService(auth.Deps{
		Accounts: auth.NewSQLiteAccountRepository(db.DB),
		Sessions: auth.NewSQLiteSessionStore(db.DB),
		Hasher:   auth.NewPasswordHasher(auth.PasswordParams{Time: 1, MemoryKiB: 64, Threads: 1}),
		Tokens:   tokens,
		Logger:   log,
	})
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	events := activity.Nop{}
	opts := relation.Options{Events: events, Metrics: m}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Logger:        log,
		Auth:          authSvc,
		Videos:        video.NewService(video.Deps{Repo: video.NewSQLiteRepository(db.DB), Events: events, Logger: log}),
		Tweets:        tweet.NewService(tweet.NewSQLiteRepository(db.DB), events),
		Comments:      comment.NewService(comment.NewSQLiteRepository(db.DB), events),
		Playlists:     playlist.NewService(playlist.NewSQLiteRepository(db.DB)),
		Likes:         relation.NewLikeService(db.DB, opts),
		Subscriptions: relation.NewSubscriptionService(db.DB, opts),
		Dashboard:     dashboard.NewService(db.DB),
		Audit:         audit.NewSQLiteRepository(db.DB),
		Metrics:       m,
		DB:            db,
		Version:       "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.drainAuditLog(ctx)

	return &testEnv{srv: srv, handler: srv.buildRouter(), db: db, metrics: m}
}

// envelope decodes both the success and the error envelope.
type envelope struct {
	Status  int             `json:"status"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// call serves one request. body is JSON-encoded unless nil.
// Cookies are attached as given; bearer, if set, goes in the Authorization header.
func (e *testEnv) call(t *testing.T, method, path string, body any, cookies []*http.Cookie, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decoding data %s: %v", env.Data, err)
	}
}

// session is a signed-in test user.
type session struct {
	id      string
	access  *http.Cookie
	refresh *http.Cookie
}

func (s session) cookies() []*http.Cookie { return []*http.Cookie{s.access, s.refresh} }

// sessionCookies picks the credential cookies out of a response.
func sessionCookies(rec *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case accessCookieName:
			access = c
		case refreshCookieName:
			refresh = c
		}
	}
	return access, refresh
}

// signUp registers username and logs in.
func (e *testEnv) signUp(t *testing.T, username string) session {
	t.Helper()

	rec := e.call(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"username":  username,
		"email":     username + "@example.com",
		"full_name": username,
		"password":  testPassword,
	}, nil, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body.String())
	}

	rec = e.call(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": username,
		"password": testPassword,
	}, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}

	var data struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	decodeData(t, rec, &data)
	access, refresh := sessionCookies(rec)
	if access == nil || refresh == nil {
		t.Fatalf("login %s did not set both cookies", username)
	}
	return session{id: data.Account.ID, access: access, refresh: refresh}
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatal("New() with no logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Fatal("New() with no auth service should fail")
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, http.MethodGet, "/api/v1/health", nil, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	got := decodeEnvelope(t, rec)
	if got.Status != http.StatusOK || got.Message != "healthy" {
		t.Errorf("envelope = %+v", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestHealthCheckBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	if err := env.srv.HealthCheck(context.Background()); err == nil {
		t.Fatal("HealthCheck() before Start should fail")
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, http.MethodGet, "/api/v1/nope", nil, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decodeEnvelope(t, rec); got.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", got.Code, ErrCodeNotFound)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/videos", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.call(t, http.MethodGet, "/api/v1/health", nil, nil, "")

	rec := env.call(t, http.MethodGet, "/metrics", nil, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`vidhub_http_requests_total{method="GET",route="/api/v1/health",status="200"}`)) {
		t.Errorf("metrics output missing health request counter:\n%s", rec.Body.String())
	}
}

func TestSystemStatusRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, http.MethodGet, "/api/v1/system/status", nil, nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	alice := env.signUp(t, "alice")
	rec = env.call(t, http.MethodGet, "/api/v1/system/status", nil, alice.cookies(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status SystemStatus
	decodeData(t, rec, &status)
	if status.Version != "test" || status.Database == nil {
		t.Errorf("status = %+v", status)
	}
}

func TestRequestIDEchoOrReplace(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		sent   string
		echoed bool
	}{
		{"well formed", "trace-42_a", true},
		{"header injection", "bad id\r\nx", false},
		{"too long", string(bytes.Repeat([]byte("a"), maxRequestIDLen+1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			req.Header.Set("X-Request-ID", tt.sent)
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if got == "" {
				t.Fatal("missing X-Request-ID")
			}
			if (got == tt.sent) != tt.echoed {
				t.Errorf("X-Request-ID = %q, echoed = %v, want %v", got, got == tt.sent, tt.echoed)
			}
		})
	}
}
