package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/vidhub-core/internal/paging"
	"github.com/nerrad567/vidhub-core/internal/video"
)

type presignRequest struct {
	VideoContentType     string `json:"video_content_type"`
	ThumbnailContentType string `json:"thumbnail_content_type"`
}

// handleListVideos returns one page of videos visible to the caller.
//
// Query parameters:
//   - page, limit: pagination (default 1, 10)
//   - query: case-insensitive title search
//   - sort_by: created_at, views, duration or title
//   - sort_type: asc or desc
//   - user_id: owner filter
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := paging.FromQuery(q)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	page, err := s.videos.List(r.Context(), identity(r), video.ListQuery{
		Params:   p,
		Query:    q.Get("query"),
		SortBy:   q.Get("sort_by"),
		SortType: q.Get("sort_type"),
		OwnerID:  q.Get("user_id"),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, page, "videos fetched")
}

// handlePresignUploads issues presigned PUT URLs for a video and its thumbnail.
func (s *Server) handlePresignUploads(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	upload, err := s.videos.PresignUploads(r.Context(), identity(r), req.VideoContentType, req.ThumbnailContentType)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, upload, "upload URLs issued")
}

// handlePublishVideo creates a video from uploaded media keys or URLs.
func (s *Server) handlePublishVideo(w http.ResponseWriter, r *http.Request) {
	var in video.PublishInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	v, err := s.videos.Publish(r.Context(), identity(r), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, v, "video published")
}

// handleGetVideo returns a video and counts the view.
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	v, err := s.videos.Get(r.Context(), identity(r), chi.URLParam(r, "videoID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, v, "video fetched")
}

// handleUpdateVideo changes the title, description or thumbnail.
func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	var upd video.Update
	if err := decodeJSON(r, &upd); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	v, err := s.videos.Update(r.Context(), identity(r), chi.URLParam(r, "videoID"), upd)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, v, "video updated")
}

// handleDeleteVideo removes a video and its stored media.
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "videoID")
	if err := s.videos.Delete(r.Context(), identity(r), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id}, "video deleted")
}

// handleTogglePublish flips the published flag.
func (s *Server) handleTogglePublish(w http.ResponseWriter, r *http.Request) {
	v, err := s.videos.TogglePublish(r.Context(), identity(r), chi.URLParam(r, "videoID"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, v, "publish status toggled")
}
