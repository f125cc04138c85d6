package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vidhub-core/internal/playlist"
)

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var in playlist.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	p, err := s.playlists.Create(r.Context(), identity(r), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, p, "playlist created")
}

// handleGetPlaylist returns a playlist with the member videos the caller may see.
func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := s.playlists.Get(r.Context(), identity(r), chi.URLParam(r, "playlistID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, p, "playlist fetched")
}

func (s *Server) handleListUserPlaylists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.playlists.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, lists, "playlists fetched")
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var in playlist.Input
	if err := decodeJSON(r, &in); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	p, err := s.playlists.Update(r.Context(), identity(r), chi.URLParam(r, "playlistID"), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, p, "playlist updated")
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "playlistID")
	if err := s.playlists.Delete(r.Context(), identity(r), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id}, "playlist deleted")
}

// handleAddToPlaylist adds a video. Adding a member again is a no-op.
func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := s.playlists.AddVideo(r.Context(), identity(r), chi.URLParam(r, "playlistID"), chi.URLParam(r, "videoID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, p, "video added to playlist")
}

func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := s.playlists.RemoveVideo(r.Context(), identity(r), chi.URLParam(r, "playlistID"), chi.URLParam(r, "videoID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, p, "video removed from playlist")
}
