package api

import "net/http"

// handleDashboardStats returns totals for the caller's own channel.
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dashboard.Stats(r.Context(), identity(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, stats, "channel stats fetched")
}

// handleDashboardVideos lists every video of the caller's channel,
// published or not, with like and comment counts.
func (s *Server) handleDashboardVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.dashboard.Videos(r.Context(), identity(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, videos, "channel videos fetched")
}
