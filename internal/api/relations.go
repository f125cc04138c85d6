package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vidhub-core/internal/relation"
)

// handleToggleLike returns a handler toggling the caller's like on one
// kind of target. The response reports whether the like was created or removed.
func (s *Server) handleToggleLike(kind relation.TargetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.likes.Toggle(r.Context(), identity(r), kind, chi.URLParam(r, "targetID"))
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, res, "like "+string(res.State))
	}
}

// handleLikedVideos lists the videos the caller has liked, newest like first.
func (s *Server) handleLikedVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.likes.LikedVideos(r.Context(), identity(r).ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, videos, "liked videos fetched")
}

// handleToggleSubscription subscribes the caller to a channel or unsubscribes.
func (s *Server) handleToggleSubscription(w http.ResponseWriter, r *http.Request) {
	res, err := s.subscriptions.Toggle(r.Context(), identity(r), chi.URLParam(r, "channelID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res, "subscription "+string(res.State))
}

func (s *Server) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	channels, err := s.subscriptions.Subscribers(r.Context(), chi.URLParam(r, "channelID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, channels, "subscribers fetched")
}

func (s *Server) handleListSubscribedChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.subscriptions.SubscribedChannels(r.Context(), chi.URLParam(r, "subscriberID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, channels, "subscribed channels fetched")
}
