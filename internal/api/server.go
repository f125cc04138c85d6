package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/vidhub-core/internal/audit"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/comment"
	"github.com/nerrad567/vidhub-core/internal/dashboard"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/config"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/database"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/metrics"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vidhub-core/internal/playlist"
	"github.com/nerrad567/vidhub-core/internal/relation"
	"github.com/nerrad567/vidhub-core/internal/tweet"
	"github.com/nerrad567/vidhub-core/internal/video"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.APIConfig
	Logger        *logging.Logger
	Auth          *auth.Service
	Videos        *video.Service
	Tweets        *tweet.Service
	Comments      *comment.Service
	Playlists     *playlist.Service
	Likes         *relation.LikeService
	Subscriptions *relation.SubscriptionService
	Dashboard     *dashboard.Service

	// Optional collaborators. Each may be nil.
	Audit   audit.Repository
	Metrics *metrics.Metrics
	DB      *database.DB
	MQTT    *mqtt.Client
	Influx  *influxdb.Client

	Version string
}

// Server is the HTTP API server for vidhub.
//
// It holds no per-session state: every protected request is authenticated
// from its own credential. The only background goroutine is the audit writer.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	version string

	auth          *auth.Service
	videos        *video.Service
	tweets        *tweet.Service
	comments      *comment.Service
	playlists     *playlist.Service
	likes         *relation.LikeService
	subscriptions *relation.SubscriptionService
	dashboard     *dashboard.Service

	auditRepo audit.Repository
	auditCh   chan *audit.Entry
	metrics   *metrics.Metrics
	db        *database.DB
	mqtt      *mqtt.Client
	influx    *influxdb.Client

	server    *http.Server
	startTime time.Time
	cancel    context.CancelFunc // cancels the audit writer on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Videos == nil || deps.Tweets == nil || deps.Comments == nil || deps.Playlists == nil {
		return nil, fmt.Errorf("video, tweet, comment and playlist services are required")
	}
	if deps.Likes == nil || deps.Subscriptions == nil || deps.Dashboard == nil {
		return nil, fmt.Errorf("like, subscription and dashboard services are required")
	}

	s := &Server{
		cfg:           deps.Config,
		logger:        deps.Logger.With("component", "api"),
		version:       deps.Version,
		auth:          deps.Auth,
		videos:        deps.Videos,
		tweets:        deps.Tweets,
		comments:      deps.Comments,
		playlists:     deps.Playlists,
		likes:         deps.Likes,
		subscriptions: deps.Subscriptions,
		dashboard:     deps.Dashboard,
		auditRepo:     deps.Audit,
		metrics:       deps.Metrics,
		db:            deps.DB,
		mqtt:          deps.MQTT,
		influx:        deps.Influx,
		startTime:     time.Now(),
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.Entry, auditChanSize)
	}
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It launches the audit writer and the HTTP listener in background
// goroutines. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		go s.drainAuditLog(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and its database answers.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api health check: %w", err)
		}
	}
	return nil
}
