// Package video manages uploaded videos: publishing, listing with search
// and paging, views and watch history, and owner-only mutations.
package video

import (
	"strings"
	"time"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/paging"
)

// Video is a stored video.
type Video struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoURL      string    `json:"video_url"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	VideoKey      string    `json:"video_key,omitempty"`
	ThumbnailKey  string    `json:"thumbnail_key,omitempty"`
	Duration      float64   `json:"duration"`
	Views         int64     `json:"views"`
	IsPublished   bool      `json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnerID returns the owning account ID.
func (v *Video) OwnerID() string { return v.Owner }

// VisibleTo reports whether viewerID may see v. Unpublished videos are
// visible only to their owner.
func (v *Video) VisibleTo(viewerID string) bool {
	return v.IsPublished || v.Owner == viewerID
}

// PublishInput carries a new video. Media is given either as object keys
// returned by a presigned upload or as absolute URLs.
type PublishInput struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	VideoKey     string  `json:"video_key"`
	ThumbnailKey string  `json:"thumbnail_key"`
	VideoURL     string  `json:"video_url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Duration     float64 `json:"duration"`
	// Publish defaults to true when omitted.
	Publish *bool `json:"is_published"`
}

func (in *PublishInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return apperr.Validation("title is required")
	}
	if in.VideoKey == "" && in.VideoURL == "" {
		return apperr.Validation("video_key or video_url is required")
	}
	if in.Duration < 0 {
		return apperr.Validation("duration must not be negative")
	}
	return nil
}

// Update carries optional changes. Nil fields are left alone.
type Update struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailKey *string `json:"thumbnail_key"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// Sort columns accepted by ListQuery.SortBy.
var sortColumns = map[string]string{
	"":           "v.created_at",
	"created_at": "v.created_at",
	"views":      "v.views",
	"duration":   "v.duration",
	"title":      "v.title",
}

// ListQuery selects videos for List.
type ListQuery struct {
	paging.Params
	Query    string // case-insensitive title substring
	SortBy   string // created_at, views, duration or title
	SortType string // asc or desc (default)
	OwnerID  string
}

func (q ListQuery) orderBy() (string, error) {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		return "", apperr.Validation("sort_by must be one of created_at, views, duration, title")
	}
	switch strings.ToLower(q.SortType) {
	case "", "desc":
		return col + " DESC, v.id DESC", nil
	case "asc":
		return col + " ASC, v.id ASC", nil
	default:
		return "", apperr.Validation("sort_type must be asc or desc")
	}
}

// Upload pairs the presigned targets for one new video.
type Upload struct {
	Video     MediaUpload `json:"video"`
	Thumbnail MediaUpload `json:"thumbnail"`
}

// MediaUpload is one presigned PUT target.
type MediaUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sentinel errors.
var (
	ErrNotFound        = apperr.NotFound("video not found")
	ErrForeignMedia    = apperr.Validation("media key was not issued to you")
	ErrUploadsDisabled = apperr.Validation("media uploads are not enabled")
)
