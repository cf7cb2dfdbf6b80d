package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	apperrors "github.com/crowdtune/crowdtune-server/internal/errors"
	"github.com/crowdtune/crowdtune-server/internal/id"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

func newTestPlaylistService(t *testing.T) (*PlaylistService, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewPlaylistService(s, testLogger()), s
}

func registeredPrincipal(t *testing.T, s *store.Store, username string) domain.Principal {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u.Principal()
}

func TestPlaylistService_CreateAndGet(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")

	playlist, err := svc.Create(ctx, owner, "road trip", false)
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "road trip", got.Name)
	assert.Equal(t, owner.ID, got.OwnerID)
}

func TestPlaylistService_PrivateDeniedToStranger(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	stranger := registeredPrincipal(t, s, "stranger")

	playlist, err := svc.Create(ctx, owner, "private", false)
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, playlist.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPlaylistService_PublicReadableByAnyone(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	stranger := registeredPrincipal(t, s, "stranger")

	playlist, err := svc.Create(ctx, owner, "public", true)
	require.NoError(t, err)

	got, err := svc.Get(ctx, stranger, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, playlist.ID, got.ID)

	// Public covers reads only.
	_, err = svc.AddTrack(ctx, stranger, playlist.ID, id.MustGenerate(id.KindTrack))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPlaylistService_AddRemoveTrack(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")

	playlist, err := svc.Create(ctx, owner, "mix", false)
	require.NoError(t, err)

	trackID := id.MustGenerate(id.KindTrack)
	updated, err := svc.AddTrack(ctx, owner, playlist.ID, trackID)
	require.NoError(t, err)
	assert.True(t, updated.HasTrack(trackID))

	// Duplicates are rejected.
	_, err = svc.AddTrack(ctx, owner, playlist.ID, trackID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	updated, err = svc.RemoveTrack(ctx, owner, playlist.ID, trackID)
	require.NoError(t, err)
	assert.False(t, updated.HasTrack(trackID))

	_, err = svc.RemoveTrack(ctx, owner, playlist.ID, trackID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPlaylistService_AddTrackRejectsBadID(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")

	playlist, err := svc.Create(ctx, owner, "mix", false)
	require.NoError(t, err)

	_, err = svc.AddTrack(ctx, owner, playlist.ID, "usr-not-a-track-id-0001")
	assert.ErrorIs(t, err, apperrors.ErrInvalidIdentifier)
}

func TestPlaylistService_SharePermanent(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	friend := registeredPrincipal(t, s, "friend")

	playlist, err := svc.Create(ctx, owner, "shared", false)
	require.NoError(t, err)

	_, err = svc.Share(ctx, owner, playlist.ID, friend.ID, domain.ActionRead, time.Time{})
	require.NoError(t, err)

	got, err := svc.Get(ctx, friend, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, playlist.ID, got.ID)

	// Read does not imply write.
	_, err = svc.AddTrack(ctx, friend, playlist.ID, id.MustGenerate(id.KindTrack))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPlaylistService_ShareTimeBounded(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	friend := registeredPrincipal(t, s, "friend")

	playlist, err := svc.Create(ctx, owner, "lent", false)
	require.NoError(t, err)

	// An already-expired grant never admits.
	_, err = svc.Share(ctx, owner, playlist.ID, friend.ID, domain.ActionRead, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = svc.Get(ctx, friend, playlist.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// A live grant admits.
	_, err = svc.Share(ctx, owner, playlist.ID, friend.ID, domain.ActionRead, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.Get(ctx, friend, playlist.ID)
	require.NoError(t, err)
}

func TestPlaylistService_ShareRequiresModify(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	stranger := registeredPrincipal(t, s, "stranger")

	playlist, err := svc.Create(ctx, owner, "mine", false)
	require.NoError(t, err)

	_, err = svc.Share(ctx, stranger, playlist.ID, stranger.ID, domain.ActionRead, time.Time{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestPlaylistService_ShareWithUnknownUser(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")

	playlist, err := svc.Create(ctx, owner, "mine", false)
	require.NoError(t, err)

	_, err = svc.Share(ctx, owner, playlist.ID, id.MustGenerate(id.KindUser), domain.ActionRead, time.Time{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPlaylistService_Delete(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	stranger := registeredPrincipal(t, s, "stranger")

	playlist, err := svc.Create(ctx, owner, "doomed", false)
	require.NoError(t, err)

	err = svc.Delete(ctx, stranger, playlist.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, svc.Delete(ctx, owner, playlist.ID))

	_, err = svc.Get(ctx, owner, playlist.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPlaylistService_ListMine(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	other := registeredPrincipal(t, s, "other")

	_, err := svc.Create(ctx, owner, "one", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, "two", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, "theirs", false)
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestPlaylistService_GetUnknown(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	owner := registeredPrincipal(t, s, "owner")

	_, err := svc.Get(context.Background(), owner, id.MustGenerate(id.KindPlaylist))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPlaylistService_ConcurrentAddTracksAllLand(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")

	playlist, err := svc.Create(ctx, owner, "collaborative", false)
	require.NoError(t, err)

	trackIDs := make([]string, 4)
	for i := range trackIDs {
		trackIDs[i] = id.MustGenerate(id.KindTrack)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(trackIDs))
	for i, trackID := range trackIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.AddTrack(ctx, owner, playlist.ID, trackID)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	got, err := svc.Get(ctx, owner, playlist.ID)
	require.NoError(t, err)
	require.Len(t, got.TrackIDs, len(trackIDs))
	for _, trackID := range trackIDs {
		assert.True(t, got.HasTrack(trackID), trackID)
	}
}

func TestPlaylistService_ReshareReplacesMembership(t *testing.T) {
	svc, s := newTestPlaylistService(t)
	ctx := context.Background()
	owner := registeredPrincipal(t, s, "owner")
	friend := registeredPrincipal(t, s, "friend")

	playlist, err := svc.Create(ctx, owner, "shared", false)
	require.NoError(t, err)

	// Sharing the same action twice keeps a single membership.
	_, err = svc.Share(ctx, owner, playlist.ID, friend.ID, domain.ActionRead, time.Time{})
	require.NoError(t, err)
	got, err := svc.Share(ctx, owner, playlist.ID, friend.ID, domain.ActionRead, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{friend.ID}, got.AccessCtl[domain.ActionRead].Users)

	// Re-sharing time-bounded converts the permanent entry into one grant.
	got, err = svc.Share(ctx, owner, playlist.ID, friend.ID, domain.ActionRead, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got.AccessCtl[domain.ActionRead].Users)
	require.Len(t, got.AccessCtl[domain.ActionRead].Grants, 1)
	assert.Equal(t, friend.ID, got.AccessCtl[domain.ActionRead].Grants[0].UserID)

	// And back to permanent: the stale grant does not linger.
	got, err = svc.Share(ctx, owner, playlist.ID, friend.ID, domain.ActionRead, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{friend.ID}, got.AccessCtl[domain.ActionRead].Users)
	assert.Empty(t, got.AccessCtl[domain.ActionRead].Grants)
}
