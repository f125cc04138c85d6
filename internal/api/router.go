package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vidhub-core/internal/relation"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.accessLogMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	// Prometheus scrape endpoint (root path, no auth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Session endpoints (no auth required)
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)
		r.Post("/users/refresh-token", s.handleRefresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/system/status", s.handleSystemStatus)

			r.Route("/users", func(r chi.Router) {
				r.Post("/logout", s.handleLogout)
				r.Post("/change-password", s.handleChangePassword)
				r.Get("/me", s.handleGetMe)
				r.Patch("/me", s.handleUpdateMe)
				r.Get("/me/history", s.handleWatchHistory)
				r.Get("/me/security-events", s.handleSecurityEvents)
				r.Get("/c/{username}", s.handleChannelProfile)
			})

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", s.handleListVideos)
				r.Post("/", s.handlePublishVideo)
				r.Post("/uploads", s.handlePresignUploads)

				r.Route("/{videoID}", func(r chi.Router) {
					r.Get("/", s.handleGetVideo)
					r.Patch("/", s.handleUpdateVideo)
					r.Delete("/", s.handleDeleteVideo)
					r.Patch("/publish", s.handleTogglePublish)
				})
			})

			r.Route("/tweets", func(r chi.Router) {
				r.Post("/", s.handleCreateTweet)
				r.Get("/user/{userID}", s.handleListUserTweets)
				r.Patch("/{tweetID}", s.handleUpdateTweet)
				r.Delete("/{tweetID}", s.handleDeleteTweet)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/{videoID}", s.handleListComments)
				r.Post("/{videoID}", s.handleAddComment)
				r.Patch("/c/{commentID}", s.handleUpdateComment)
				r.Delete("/c/{commentID}", s.handleDeleteComment)
			})

			r.Route("/likes", func(r chi.Router) {
				r.Post("/toggle/v/{targetID}", s.handleToggleLike(relation.TargetVideo))
				r.Post("/toggle/c/{targetID}", s.handleToggleLike(relation.TargetComment))
				r.Post("/toggle/t/{targetID}", s.handleToggleLike(relation.TargetTweet))
				r.Get("/videos", s.handleLikedVideos)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/c/{channelID}", s.handleToggleSubscription)
				r.Get("/c/{channelID}", s.handleListSubscribers)
				r.Get("/u/{subscriberID}", s.handleListSubscribedChannels)
			})

			r.Route("/playlists", func(r chi.Router) {
				r.Post("/", s.handleCreatePlaylist)
				r.Get("/user/{userID}", s.handleListUserPlaylists)
				r.Patch("/add/{videoID}/{playlistID}", s.handleAddToPlaylist)
				r.Patch("/remove/{videoID}/{playlistID}", s.handleRemoveFromPlaylist)

				r.Route("/{playlistID}", func(r chi.Router) {
					r.Get("/", s.handleGetPlaylist)
					r.Patch("/", s.handleUpdatePlaylist)
					r.Delete("/", s.handleDeletePlaylist)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", s.handleDashboardStats)
				r.Get("/videos", s.handleDashboardVideos)
			})
		})
	})

	return r
}
