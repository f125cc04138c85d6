// Package relation toggles the edges between accounts and content: likes
// on videos, comments and tweets, and channel subscriptions.
//
// A toggle runs in one transaction as DELETE, then INSERT if nothing was
// deleted. The UNIQUE constraints on likes and subscriptions decide a race
// between two concurrent first toggles; the loser gets a Conflict error
// and may retry.
package relation

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/vidhub-core/internal/activity"
	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
)

// State is the outcome of a toggle.
type State string

// Toggle outcomes.
const (
	Created State = "created"
	Removed State = "removed"
)

// Result is the outcome of a toggle and the edge it created or removed.
type Result[E any] struct {
	State State `json:"state"`
	Edge  E     `json:"edge"`
}

// TargetKind is the kind of content a like points at.
type TargetKind string

// Like targets.
const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetVideo, TargetComment, TargetTweet:
		return true
	}
	return false
}

// Like is a liked_by -> target edge.
type Like struct {
	ID         string     `json:"id"`
	LikedBy    string     `json:"liked_by"`
	TargetType TargetKind `json:"target_type"`
	TargetID   string     `json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Subscription is a subscriber -> channel edge.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber_id"`
	ChannelID    string    `json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Channel is an account as listed on a subscription page.
type Channel struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Avatar       string    `json:"avatar"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// LikedVideo is a video on the liker's liked list.
type LikedVideo struct {
	VideoID       string    `json:"video_id"`
	Title         string    `json:"title"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	VideoURL      string    `json:"video_url"`
	OwnerID       string    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username"`
	Duration      float64   `json:"duration"`
	Views         int64     `json:"views"`
	LikedAt       time.Time `json:"liked_at"`
}

// ChannelStats summarises a channel for its profile page.
type ChannelStats struct {
	Subscribers  int  `json:"subscribers_count"`
	SubscribedTo int  `json:"subscribed_to_count"`
	IsSubscribed bool `json:"is_subscribed"`
}

// Sentinel errors.
var (
	ErrUnknownTarget     = apperr.Validation("like target must be video, comment or tweet")
	ErrVideoNotFound     = apperr.NotFound("video not found")
	ErrCommentNotFound   = apperr.NotFound("comment not found")
	ErrTweetNotFound     = apperr.NotFound("tweet not found")
	ErrChannelNotFound   = apperr.NotFound("channel not found")
	ErrSelfSubscription  = apperr.Validation("you cannot subscribe to your own channel")
	ErrConcurrentToggle  = apperr.Conflict("relation changed concurrently, retry")
	ErrSubscriberMissing = apperr.NotFound("user not found")
)

func targetNotFound(kind TargetKind) error {
	switch kind {
	case TargetComment:
		return ErrCommentNotFound
	case TargetTweet:
		return ErrTweetNotFound
	default:
		return ErrVideoNotFound
	}
}

// Counter is satisfied by *metrics.Metrics.
type Counter interface {
	RelationToggle(relation, state string)
}

type nopCounter struct{}

func (nopCounter) RelationToggle(string, string) {}

// Options configures the optional collaborators of both services.
type Options struct {
	Events  activity.Sink
	Metrics Counter
}

func (o Options) withDefaults() Options {
	if o.Events == nil {
		o.Events = activity.Nop{}
	}
	if o.Metrics == nil {
		o.Metrics = nopCounter{}
	}
	return o
}

func requireIdentity(who *auth.Identity) error {
	if who == nil || who.ID == "" {
		return auth.ErrUnauthorized
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

func delta(s State) int {
	if s == Removed {
		return -1
	}
	return 1
}

func record(ctx context.Context, sink activity.Sink, eventType, actorID, targetType, targetID string, s State) {
	sink.Record(ctx, activity.Event{
		Type:       eventType,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Delta:      delta(s),
	})
}
