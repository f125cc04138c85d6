package playlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/testutil"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	svc          *Service
	alice, bob   *auth.Identity
	talk, bobVid string
	bobDraft     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	alice := &auth.Identity{ID: testutil.InsertAccount(t, db, "alice")}
	bob := &auth.Identity{ID: testutil.InsertAccount(t, db, "bob")}
	return &fixture{
		svc:      NewService(NewSQLiteRepository(db.DB)),
		alice:    alice,
		bob:      bob,
		talk:     testutil.InsertVideo(t, db, alice.ID, "talk", true),
		bobVid:   testutil.InsertVideo(t, db, bob.ID, "demo", true),
		bobDraft: testutil.InsertVideo(t, db, bob.ID, "wip", false),
	}
}

func TestCreateGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice, Input{Description: strPtr("no name")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	p, err := f.svc.Create(ctx, f.alice, Input{Name: strPtr(" Favourites "), Description: strPtr("best of")})
	require.NoError(t, err)
	assert.Equal(t, "Favourites", p.Name)

	got, err := f.svc.Get(ctx, f.bob, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Videos)

	lists, err := f.svc.ListByUser(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, p.ID, lists[0].ID)

	_, err = f.svc.Get(ctx, f.alice, "pl-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddVideo_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.alice, Input{Name: strPtr("mix")})
	require.NoError(t, err)

	first, err := f.svc.AddVideo(ctx, f.alice, p.ID, f.talk)
	require.NoError(t, err)
	second, err := f.svc.AddVideo(ctx, f.alice, p.ID, f.talk)
	require.NoError(t, err)

	assert.Equal(t, 1, first.VideoCount)
	assert.Equal(t, 1, second.VideoCount)

	withBob, err := f.svc.AddVideo(ctx, f.alice, p.ID, f.bobVid)
	require.NoError(t, err)
	require.Len(t, withBob.Videos, 2)
	assert.Equal(t, f.talk, withBob.Videos[0].VideoID, "in the order added")

	_, err = f.svc.AddVideo(ctx, f.alice, p.ID, f.bobDraft)
	assert.ErrorIs(t, err, ErrVideoNotFound, "someone else's draft is invisible")

	_, err = f.svc.AddVideo(ctx, f.alice, p.ID, "vid-missing")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestRemoveVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.alice, Input{Name: strPtr("mix")})
	require.NoError(t, err)
	_, err = f.svc.AddVideo(ctx, f.alice, p.ID, f.talk)
	require.NoError(t, err)

	after, err := f.svc.RemoveVideo(ctx, f.alice, p.ID, f.talk)
	require.NoError(t, err)
	assert.Empty(t, after.Videos)

	_, err = f.svc.RemoveVideo(ctx, f.alice, p.ID, f.talk)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestMutations_RequireOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.alice, Input{Name: strPtr("mine")})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.bob, p.ID, Input{Name: strPtr("ours")})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	_, err = f.svc.AddVideo(ctx, f.bob, p.ID, f.bobVid)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	_, err = f.svc.RemoveVideo(ctx, f.bob, p.ID, f.talk)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(f.svc.Delete(ctx, f.bob, p.ID)))

	updated, err := f.svc.Update(ctx, f.alice, p.ID, Input{Description: strPtr("renamed later")})
	require.NoError(t, err)
	assert.Equal(t, "mine", updated.Name)
	assert.Equal(t, "renamed later", updated.Description)

	_, err = f.svc.Update(ctx, f.alice, p.ID, Input{Name: strPtr("")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, f.svc.Delete(ctx, f.alice, p.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, p.ID), ErrNotFound)
}
