package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	apperrors "github.com/crowdtune/crowdtune-server/internal/errors"
	"github.com/crowdtune/crowdtune-server/internal/id"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

func newTestTagService(t *testing.T) (*TagService, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewTagService(s, testLogger()), s
}

func TestTagService_SuggestNormalizesName(t *testing.T) {
	svc, s := newTestTagService(t)
	ctx := context.Background()
	user := registeredPrincipal(t, s, "alice")
	trackID := id.MustGenerate(id.KindTrack)

	result, err := svc.Suggest(ctx, user, trackID, "  Late Night DRIVE  ")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "late-night-drive", result.Tag.TagName)

	// Different spellings of the same name converge on one tag.
	again, err := svc.Suggest(ctx, user, trackID, "LATE night   drive")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.Tag.ID, again.Tag.ID)
}

func TestTagService_SuggestRejectsEmptyAfterNormalization(t *testing.T) {
	svc, s := newTestTagService(t)
	user := registeredPrincipal(t, s, "alice")

	_, err := svc.Suggest(context.Background(), user, id.MustGenerate(id.KindTrack), "  !!! ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestTagService_SuggestRejectsBadTrackID(t *testing.T) {
	svc, s := newTestTagService(t)
	user := registeredPrincipal(t, s, "alice")

	_, err := svc.Suggest(context.Background(), user, "not-a-track", "chill")
	assert.ErrorIs(t, err, apperrors.ErrInvalidIdentifier)
}

func TestTagService_VoteAndAggregate(t *testing.T) {
	svc, s := newTestTagService(t)
	ctx := context.Background()
	alice := registeredPrincipal(t, s, "alice")
	bob := registeredPrincipal(t, s, "bob")
	trackID := id.MustGenerate(id.KindTrack)

	result, err := svc.Suggest(ctx, alice, trackID, "chill")
	require.NoError(t, err)

	require.NoError(t, svc.Vote(ctx, bob, result.Tag.ID, domain.VoteUp))

	scores, err := svc.TrackTags(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 2.0, scores[0].Score)
	assert.Equal(t, 2, scores[0].UserCount)

	// Re-voting flips in place rather than stacking.
	require.NoError(t, svc.Vote(ctx, bob, result.Tag.ID, domain.VoteDown))

	scores, err = svc.TrackTags(ctx, trackID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores[0].Score)
	assert.Equal(t, 2, scores[0].UserCount)
}

func TestTagService_VoteErrors(t *testing.T) {
	svc, s := newTestTagService(t)
	ctx := context.Background()
	alice := registeredPrincipal(t, s, "alice")
	trackID := id.MustGenerate(id.KindTrack)

	result, err := svc.Suggest(ctx, alice, trackID, "chill")
	require.NoError(t, err)

	err = svc.Vote(ctx, alice, result.Tag.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = svc.Vote(ctx, alice, id.MustGenerate(id.KindTag), domain.VoteUp)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = svc.Vote(ctx, alice, "garbage", domain.VoteUp)
	assert.ErrorIs(t, err, apperrors.ErrInvalidIdentifier)
}

func TestTagService_RetractLastVoteDeletesTag(t *testing.T) {
	svc, s := newTestTagService(t)
	ctx := context.Background()
	alice := registeredPrincipal(t, s, "alice")
	trackID := id.MustGenerate(id.KindTrack)

	result, err := svc.Suggest(ctx, alice, trackID, "chill")
	require.NoError(t, err)

	require.NoError(t, svc.Retract(ctx, alice, result.Tag.ID))

	scores, err := svc.TrackTags(ctx, trackID)
	require.NoError(t, err)
	assert.Empty(t, scores)

	// The label is free for recreation.
	recreated, err := svc.Suggest(ctx, alice, trackID, "chill")
	require.NoError(t, err)
	assert.True(t, recreated.Created)
	assert.NotEqual(t, result.Tag.ID, recreated.Tag.ID)
}

func TestTagService_RetractKeepsTagWithRemainingVotes(t *testing.T) {
	svc, s := newTestTagService(t)
	ctx := context.Background()
	alice := registeredPrincipal(t, s, "alice")
	bob := registeredPrincipal(t, s, "bob")
	trackID := id.MustGenerate(id.KindTrack)

	result, err := svc.Suggest(ctx, alice, trackID, "chill")
	require.NoError(t, err)
	require.NoError(t, svc.Vote(ctx, bob, result.Tag.ID, domain.VoteUp))

	require.NoError(t, svc.Retract(ctx, alice, result.Tag.ID))

	scores, err := svc.TrackTags(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 1.0, scores[0].Score)
	assert.Equal(t, 1, scores[0].UserCount)
}

func TestTagService_RetractWithoutVote(t *testing.T) {
	svc, s := newTestTagService(t)
	ctx := context.Background()
	alice := registeredPrincipal(t, s, "alice")
	bob := registeredPrincipal(t, s, "bob")

	result, err := svc.Suggest(ctx, alice, id.MustGenerate(id.KindTrack), "chill")
	require.NoError(t, err)

	err = svc.Retract(ctx, bob, result.Tag.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTagService_FindTracks(t *testing.T) {
	svc, s := newTestTagService(t)
	ctx := context.Background()
	alice := registeredPrincipal(t, s, "alice")
	bob := registeredPrincipal(t, s, "bob")

	liked := id.MustGenerate(id.KindTrack)
	disputed := id.MustGenerate(id.KindTrack)

	_, err := svc.Suggest(ctx, alice, liked, "Chill")
	require.NoError(t, err)

	result, err := svc.Suggest(ctx, alice, disputed, "chill")
	require.NoError(t, err)
	require.NoError(t, svc.Vote(ctx, bob, result.Tag.ID, domain.VoteDown))

	// Lookup normalizes the query name the same way as suggestions.
	tracks, err := svc.FindTracks(ctx, "CHILL")
	require.NoError(t, err)
	assert.Equal(t, []string{liked}, tracks)

	_, err = svc.FindTracks(ctx, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
