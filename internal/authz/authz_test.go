package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
)

type resource struct{ owner string }

func (r *resource) OwnerID() string { return r.owner }

func TestAuthorize(t *testing.T) {
	res := &resource{owner: "acc-alice"}

	tests := []struct {
		name string
		who  *auth.Identity
		want apperr.Kind
	}{
		{"owner", &auth.Identity{ID: "acc-alice"}, ""},
		{"other account", &auth.Identity{ID: "acc-bob"}, apperr.KindAuthorization},
		{"unauthenticated", nil, apperr.KindAuthentication},
		{"empty identity", &auth.Identity{}, apperr.KindAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.who, res)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	alice := &auth.Identity{ID: "acc-alice"}
	bob := &auth.Identity{ID: "acc-bob"}

	loaded := 0
	load := func(context.Context) (*resource, error) {
		loaded++
		return &resource{owner: "acc-alice"}, nil
	}

	res, err := Load(ctx, alice, load)
	require.NoError(t, err)
	assert.Equal(t, "acc-alice", res.OwnerID())

	res, err = Load(ctx, bob, load)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Nil(t, res)

	loaded = 0
	_, err = Load(ctx, nil, load)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Zero(t, loaded, "unauthenticated callers never reach the store")

	missing := apperr.NotFound("video not found")
	_, err = Load(ctx, alice, func(context.Context) (*resource, error) { return nil, missing })
	assert.ErrorIs(t, err, missing)
}
