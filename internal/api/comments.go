package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vidhub-core/internal/paging"
)

type commentRequest struct {
	Content string `json:"content"`
}

// handleListComments returns one page of a video's comments, newest first.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	p, err := paging.FromQuery(r.URL.Query())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	page, err := s.comments.List(r.Context(), identity(r), chi.URLParam(r, "videoID"), p)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, page, "comments fetched")
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	c, err := s.comments.Add(r.Context(), identity(r), chi.URLParam(r, "videoID"), req.Content)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, c, "comment added")
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	c, err := s.comments.Update(r.Context(), identity(r), chi.URLParam(r, "commentID"), req.Content)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, c, "comment updated")
}

// handleDeleteComment returns the deleted comment.
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	c, err := s.comments.Delete(r.Context(), identity(r), chi.URLParam(r, "commentID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, c, "comment deleted")
}
