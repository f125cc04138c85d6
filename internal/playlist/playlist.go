// Package playlist manages named, owner-curated lists of videos.
package playlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/authz"
)

// Playlist is a stored playlist. Videos is only filled by Service.Get.
type Playlist struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int       `json:"video_count"`
	Videos      []Entry   `json:"videos,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID returns the owning account ID.
func (p *Playlist) OwnerID() string { return p.Owner }

// Entry is a video as listed inside a playlist.
type Entry struct {
	VideoID      string    `json:"video_id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	AddedAt      time.Time `json:"added_at"`
}

// Sentinel errors.
var (
	ErrNotFound      = apperr.NotFound("playlist not found")
	ErrVideoNotFound = apperr.NotFound("video not found")
	ErrNotMember     = apperr.NotFound("video is not in this playlist")
)

// Input carries playlist fields for Create. Update treats nil as unchanged.
type Input struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Service implements the playlist operations.
type Service struct {
	repo Repository
}

// NewService creates a playlist service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create makes an empty playlist owned by who.
func (s *Service) Create(ctx context.Context, who *auth.Identity, in Input) (*Playlist, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}
	p := &Playlist{Owner: who.ID}
	if err := apply(p, in, true); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, classify("creating playlist", err)
	}
	return p, nil
}

// Get returns a playlist with the videos visible to who.
func (s *Service) Get(ctx context.Context, who *auth.Identity, id string) (*Playlist, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classify("loading playlist", err)
	}
	if p.Videos, err = s.repo.Videos(ctx, p.ID, who.ID); err != nil {
		return nil, classify("loading playlist videos", err)
	}
	p.VideoCount = len(p.Videos)
	return p, nil
}

// ListByUser returns userID's playlists, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Playlist, error) {
	playlists, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, classify("listing playlists", err)
	}
	return playlists, nil
}

// Update renames or re-describes a playlist owned by who.
func (s *Service) Update(ctx context.Context, who *auth.Identity, id string, in Input) (*Playlist, error) {
	p, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return nil, err
	}
	if err := apply(p, in, false); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, classify("updating playlist", err)
	}
	return p, nil
}

// Delete removes a playlist owned by who.
func (s *Service) Delete(ctx context.Context, who *auth.Identity, id string) error {
	p, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return classify("deleting playlist", err)
	}
	return nil
}

// AddVideo adds videoID to a playlist owned by who. Adding a member again
// changes nothing.
func (s *Service) AddVideo(ctx context.Context, who *auth.Identity, playlistID, videoID string) (*Playlist, error) {
	p, err := authz.Load(ctx, who, s.loader(playlistID))
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddVideo(ctx, p.ID, videoID, who.ID); err != nil {
		return nil, classify("adding video", err)
	}
	return s.Get(ctx, who, p.ID)
}

// RemoveVideo removes videoID from a playlist owned by who.
func (s *Service) RemoveVideo(ctx context.Context, who *auth.Identity, playlistID, videoID string) (*Playlist, error) {
	p, err := authz.Load(ctx, who, s.loader(playlistID))
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveVideo(ctx, p.ID, videoID); err != nil {
		return nil, classify("removing video", err)
	}
	return s.Get(ctx, who, p.ID)
}

func (s *Service) loader(id string) func(context.Context) (*Playlist, error) {
	return func(ctx context.Context) (*Playlist, error) {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, classify("loading playlist", err)
		}
		return p, nil
	}
}

// apply copies in onto p. On create the name is required.
func apply(p *Playlist, in Input, create bool) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if (create || in.Name != nil) && p.Name == "" {
		return apperr.Validation("name is required")
	}
	return nil
}

func classify(op string, err error) error {
	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		return err
	}
	return apperr.Internal(op, err)
}
