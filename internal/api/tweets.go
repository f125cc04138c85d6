package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type tweetRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCreateTweet(w http.ResponseWriter, r *http.Request) {
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	t, err := s.tweets.Create(r.Context(), identity(r), req.Content)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, t, "tweet created")
}

// handleListUserTweets lists a user's tweets, newest first.
func (s *Server) handleListUserTweets(w http.ResponseWriter, r *http.Request) {
	tweets, err := s.tweets.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, tweets, "tweets fetched")
}

func (s *Server) handleUpdateTweet(w http.ResponseWriter, r *http.Request) {
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	t, err := s.tweets.Update(r.Context(), identity(r), chi.URLParam(r, "tweetID"), req.Content)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, t, "tweet updated")
}

func (s *Server) handleDeleteTweet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tweetID")
	if err := s.tweets.Delete(r.Context(), identity(r), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id}, "tweet deleted")
}
