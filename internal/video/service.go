package video

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nerrad567/vidhub-core/internal/activity"
	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/authz"
	"github.com/nerrad567/vidhub-core/internal/infrastructure/logging"
	"github.com/nerrad567/vidhub-core/internal/media"
	"github.com/nerrad567/vidhub-core/internal/paging"
)

// MediaStore is satisfied by *media.Store.
type MediaStore interface {
	PresignUpload(ctx context.Context, ownerID, kind, contentType string) (media.Upload, error)
	URL(key string) string
	Owns(ownerID, key string) bool
	Delete(ctx context.Context, key string) error
}

// Deps holds the collaborators of a Service. Media and Events are optional.
type Deps struct {
	Repo   Repository
	Media  MediaStore
	Events activity.Sink
	Logger *logging.Logger
}

// Service implements the video operations.
type Service struct {
	repo   Repository
	media  MediaStore
	events activity.Sink
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates a video service.
func NewService(deps Deps) *Service {
	if deps.Events == nil {
		deps.Events = activity.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Service{
		repo:   deps.Repo,
		media:  deps.Media,
		events: deps.Events,
		logger: deps.Logger.With("component", "video"),
		now:    time.Now,
	}
}

// List returns one page of videos visible to who.
func (s *Service) List(ctx context.Context, who *auth.Identity, q ListQuery) (paging.Page[Video], error) {
	if who == nil {
		return paging.Page[Video]{}, auth.ErrUnauthorized
	}
	q.Query = strings.TrimSpace(q.Query)
	videos, total, err := s.repo.List(ctx, q, who.ID)
	if err != nil {
		return paging.Page[Video]{}, classify("listing videos", err)
	}
	return paging.New(videos, total, q.Params), nil
}

// PresignUploads returns presigned PUT targets for a video file and its
// thumbnail. The returned keys are passed back to Publish.
func (s *Service) PresignUploads(ctx context.Context, who *auth.Identity, videoType, thumbnailType string) (Upload, error) {
	if who == nil {
		return Upload{}, auth.ErrUnauthorized
	}
	if s.media == nil {
		return Upload{}, ErrUploadsDisabled
	}

	vid, err := s.media.PresignUpload(ctx, who.ID, media.KindVideo, videoType)
	if err != nil {
		return Upload{}, apperr.Internal("presigning video upload", err)
	}
	thumb, err := s.media.PresignUpload(ctx, who.ID, media.KindThumbnail, thumbnailType)
	if err != nil {
		return Upload{}, apperr.Internal("presigning thumbnail upload", err)
	}
	return Upload{
		Video:     MediaUpload{Key: vid.Key, URL: vid.URL, ExpiresAt: vid.ExpiresAt},
		Thumbnail: MediaUpload{Key: thumb.Key, URL: thumb.URL, ExpiresAt: thumb.ExpiresAt},
	}, nil
}

// Publish creates a video owned by who.
func (s *Service) Publish(ctx context.Context, who *auth.Identity, in PublishInput) (*Video, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	v := &Video{
		Owner:         who.ID,
		OwnerUsername: who.Username,
		Title:         in.Title,
		Description:   in.Description,
		VideoURL:      in.VideoURL,
		ThumbnailURL:  in.ThumbnailURL,
		Duration:      in.Duration,
		IsPublished:   in.Publish == nil || *in.Publish,
	}

	var err error
	if v.VideoKey, v.VideoURL, err = s.resolveMedia(who.ID, in.VideoKey, in.VideoURL); err != nil {
		return nil, err
	}
	if v.ThumbnailKey, v.ThumbnailURL, err = s.resolveMedia(who.ID, in.ThumbnailKey, in.ThumbnailURL); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, classify("creating video", err)
	}

	s.logger.Info("video published", "video_id", v.ID, "owner_id", v.Owner, "published", v.IsPublished)
	if v.IsPublished {
		s.record(ctx, activity.VideoPublished, who.ID, v.ID)
	}
	return v, nil
}

// resolveMedia turns an uploaded key into its public URL after checking it
// was issued to ownerID. Without a key the given URL is used as is.
func (s *Service) resolveMedia(ownerID, key, url string) (string, string, error) {
	if key == "" {
		return "", url, nil
	}
	if s.media == nil {
		return "", "", ErrUploadsDisabled
	}
	if !s.media.Owns(ownerID, key) {
		return "", "", ErrForeignMedia
	}
	return key, s.media.URL(key), nil
}

// Get returns a video and counts the view. The video moves to the front of
// the viewer's watch history.
func (s *Service) Get(ctx context.Context, who *auth.Identity, id string) (*Video, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classify("loading video", err)
	}
	if !v.VisibleTo(who.ID) {
		return nil, ErrNotFound
	}

	views, err := s.repo.RecordView(ctx, v.ID, who.ID, s.now())
	if err != nil {
		return nil, classify("recording view", err)
	}
	v.Views = views
	s.record(ctx, activity.VideoViewed, who.ID, v.ID)
	return v, nil
}

// Update changes the title, description or thumbnail of a video owned by who.
func (s *Service) Update(ctx context.Context, who *auth.Identity, id string, upd Update) (*Video, error) {
	v, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperr.Validation("title must not be empty")
		}
		v.Title = title
	}
	if upd.Description != nil {
		v.Description = strings.TrimSpace(*upd.Description)
	}

	oldThumb := v.ThumbnailKey
	if upd.ThumbnailKey != nil || upd.ThumbnailURL != nil {
		key, url := deref(upd.ThumbnailKey), deref(upd.ThumbnailURL)
		if v.ThumbnailKey, v.ThumbnailURL, err = s.resolveMedia(who.ID, key, url); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, classify("updating video", err)
	}
	if oldThumb != "" && oldThumb != v.ThumbnailKey {
		s.deleteMedia(ctx, oldThumb)
	}
	return v, nil
}

// Delete removes a video owned by who along with its stored media.
func (s *Service) Delete(ctx context.Context, who *auth.Identity, id string) error {
	v, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, v.ID); err != nil {
		return classify("deleting video", err)
	}

	s.deleteMedia(ctx, v.VideoKey)
	s.deleteMedia(ctx, v.ThumbnailKey)
	s.logger.Info("video deleted", "video_id", v.ID, "owner_id", v.Owner)
	return nil
}

// TogglePublish flips the published flag of a video owned by who.
func (s *Service) TogglePublish(ctx context.Context, who *auth.Identity, id string) (*Video, error) {
	v, err := authz.Load(ctx, who, s.loader(id))
	if err != nil {
		return nil, err
	}
	v.IsPublished = !v.IsPublished
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, classify("toggling publish status", err)
	}
	if v.IsPublished {
		s.record(ctx, activity.VideoPublished, who.ID, v.ID)
	}
	return v, nil
}

// History returns who's watch history, most recent first.
func (s *Service) History(ctx context.Context, who *auth.Identity) ([]Video, error) {
	if who == nil {
		return nil, auth.ErrUnauthorized
	}
	videos, err := s.repo.History(ctx, who.ID)
	if err != nil {
		return nil, classify("loading watch history", err)
	}
	return videos, nil
}

func (s *Service) loader(id string) func(context.Context) (*Video, error) {
	return func(ctx context.Context) (*Video, error) {
		v, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, classify("loading video", err)
		}
		return v, nil
	}
}

func (s *Service) deleteMedia(ctx context.Context, key string) {
	if key == "" || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		s.logger.Warn("deleting stored media failed", "key", key, "error", err)
	}
}

func (s *Service) record(ctx context.Context, eventType, actorID, videoID string) {
	s.events.Record(ctx, activity.Event{
		Type:       eventType,
		ActorID:    actorID,
		TargetType: "video",
		TargetID:   videoID,
		OccurredAt: s.now().UTC(),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// classify passes tagged errors through and wraps the rest as Internal.
func classify(op string, err error) error {
	var tagged *apperr.Error
	if errors.As(err, &tagged) {
		return err
	}
	return apperr.Internal(op, err)
}
