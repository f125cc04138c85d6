// Package authz holds the single ownership predicate applied before every
// mutation of a video, tweet, comment or playlist.
package authz

import (
	"context"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
)

// Owned is implemented by every resource that belongs to one account.
type Owned interface {
	OwnerID() string
}

// Sentinel errors.
var (
	ErrNotOwner = apperr.Authorization("you do not own this resource")
)

// Authorize permits the mutation iff who owns res.
// A nil identity is an authentication failure, not an authorization one.
func Authorize(who *auth.Identity, res Owned) error {
	if who == nil || who.ID == "" {
		return auth.ErrUnauthorized
	}
	if who.ID != res.OwnerID() {
		return ErrNotOwner
	}
	return nil
}

// Load fetches a resource with load and authorizes who against it.
// Errors from load (typically NotFound) are returned unchanged.
func Load[T Owned](ctx context.Context, who *auth.Identity, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if who == nil || who.ID == "" {
		return zero, auth.ErrUnauthorized
	}

	res, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if err := Authorize(who, res); err != nil {
		return zero, err
	}
	return res, nil
}
