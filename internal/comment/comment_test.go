package comment

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/auth"
	"github.com/nerrad567/vidhub-core/internal/paging"
	"github.com/nerrad567/vidhub-core/internal/testutil"
)

type fixture struct {
	svc     *Service
	alice   *auth.Identity
	bob     *auth.Identity
	videoID string
	draftID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	alice := &auth.Identity{ID: testutil.InsertAccount(t, db, "alice"), Username: "alice"}
	bob := &auth.Identity{ID: testutil.InsertAccount(t, db, "bob"), Username: "bob"}
	return &fixture{
		svc:     NewService(NewSQLiteRepository(db.DB), nil),
		alice:   alice,
		bob:     bob,
		videoID: testutil.InsertVideo(t, db, alice.ID, "talk", true),
		draftID: testutil.InsertVideo(t, db, alice.ID, "draft", false),
	}
}

func TestAddAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.Add(ctx, f.bob, f.videoID, text)
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, f.alice, f.videoID, paging.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "three", page.Items[0].Content, "newest first")
	assert.Equal(t, "bob", page.Items[0].OwnerUsername)
	assert.True(t, page.HasNext)
}

func TestAdd_VideoMustExistAndBeVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.bob, "vid-missing", "hello")
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = f.svc.Add(ctx, f.bob, f.draftID, "hello")
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = f.svc.Add(ctx, f.alice, f.draftID, "note to self")
	assert.NoError(t, err)

	_, err = f.svc.List(ctx, f.bob, f.draftID, paging.Params{})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = f.svc.Add(ctx, f.bob, f.videoID, "  ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDelete_Polarity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Add(ctx, f.bob, f.videoID, "first!")
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, f.alice, c.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err), "video owner is not comment owner")

	deleted, err := f.svc.Delete(ctx, f.bob, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)

	_, err = f.svc.Delete(ctx, f.bob, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Delete(ctx, nil, c.ID)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Add(ctx, f.bob, f.videoID, "typo")
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.alice, c.ID, "rewritten")
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	updated, err := f.svc.Update(ctx, f.bob, c.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", updated.Content)
	assert.Equal(t, f.videoID, updated.VideoID)
}

func TestStoreFailureIsInternal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM comments").WillReturnError(assert.AnError)

	svc := NewService(NewSQLiteRepository(db), nil)
	_, err = svc.Delete(context.Background(), &auth.Identity{ID: "acc-1"}, "cmt-1")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
