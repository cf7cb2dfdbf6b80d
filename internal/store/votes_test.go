package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdtune/crowdtune-server/internal/domain"
)

func TestGetTrackTags_ScoresAndOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chill, _, err := s.CreateTagWithVote(ctx, testTrackID, "chill", testUserA)
	require.NoError(t, err)
	_, _, err = s.CreateTagWithVote(ctx, testTrackID, "upbeat", testUserA)
	require.NoError(t, err)
	ambient, _, err := s.CreateTagWithVote(ctx, testTrackID, "ambient", testUserA)
	require.NoError(t, err)

	// chill: +1 (A) +1 (B) = 2; upbeat: +1 (A) = 1; ambient: +1 (A) -? stays 1.
	require.NoError(t, s.VoteTag(ctx, chill.ID, testUserB, domain.VoteUp))
	require.NoError(t, s.VoteTag(ctx, ambient.ID, testUserB, domain.VoteDown))

	scores, err := s.GetTrackTags(ctx, testTrackID)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	// Score descending; the 0-score row last.
	assert.Equal(t, "chill", scores[0].TagName)
	assert.Equal(t, 2.0, scores[0].Score)
	assert.Equal(t, 2, scores[0].UserCount)

	assert.Equal(t, "upbeat", scores[1].TagName)
	assert.Equal(t, 1.0, scores[1].Score)
	assert.Equal(t, 1, scores[1].UserCount)

	assert.Equal(t, "ambient", scores[2].TagName)
	assert.Equal(t, 0.0, scores[2].Score)
	assert.Equal(t, 2, scores[2].UserCount)
}

func TestGetTrackTags_TieBreaksOnName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.CreateTagWithVote(ctx, testTrackID, "zesty", testUserA)
	require.NoError(t, err)
	_, _, err = s.CreateTagWithVote(ctx, testTrackID, "airy", testUserA)
	require.NoError(t, err)

	scores, err := s.GetTrackTags(ctx, testTrackID)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "airy", scores[0].TagName)
	assert.Equal(t, "zesty", scores[1].TagName)
}

func TestGetTrackTags_SoftDeletedVotesExcluded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chill, _, err := s.CreateTagWithVote(ctx, testTrackID, "chill", testUserA)
	require.NoError(t, err)
	require.NoError(t, s.VoteTag(ctx, chill.ID, testUserB, domain.VoteUp))

	_, err = s.RetractVote(ctx, chill.ID, testUserB)
	require.NoError(t, err)

	scores, err := s.GetTrackTags(ctx, testTrackID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 1.0, scores[0].Score)
	assert.Equal(t, 1, scores[0].UserCount)
}

func TestGetTrackTags_EmptyTrack(t *testing.T) {
	s := newTestStore(t)

	scores, err := s.GetTrackTags(context.Background(), "trk-silent-track-0000001")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestFindTracksWithTag_PositiveScoresOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	trackA := "trk-track-a-000000000001"
	trackB := "trk-track-b-000000000001"
	trackC := "trk-track-c-000000000001"

	// trackA: +1. trackB: +1 -1 = 0. trackC: +1, then flipped to -1.
	_, _, err := s.CreateTagWithVote(ctx, trackA, "chill", testUserA)
	require.NoError(t, err)

	tagB, _, err := s.CreateTagWithVote(ctx, trackB, "chill", testUserA)
	require.NoError(t, err)
	require.NoError(t, s.VoteTag(ctx, tagB.ID, testUserB, domain.VoteDown))

	tagC, _, err := s.CreateTagWithVote(ctx, trackC, "chill", testUserA)
	require.NoError(t, err)
	require.NoError(t, s.VoteTag(ctx, tagC.ID, testUserA, domain.VoteDown))

	tracks, err := s.FindTracksWithTag(ctx, "chill")
	require.NoError(t, err)
	assert.Equal(t, []string{trackA}, tracks)
}

func TestFindTracksWithTag_Scenario(t *testing.T) {
	// Create tag ("trk-1","chill") by A → score 1, userCount 1.
	// B votes -1 → score 0, userCount 2. The track no longer surfaces.
	s := newTestStore(t)
	ctx := context.Background()

	trackID := "trk-1-0000000000000000001"
	tag, _, err := s.CreateTagWithVote(ctx, trackID, "chill", testUserA)
	require.NoError(t, err)

	scores, err := s.GetTrackTags(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 1.0, scores[0].Score)
	assert.Equal(t, 1, scores[0].UserCount)

	tracks, err := s.FindTracksWithTag(ctx, "chill")
	require.NoError(t, err)
	assert.Contains(t, tracks, trackID)

	require.NoError(t, s.VoteTag(ctx, tag.ID, testUserB, domain.VoteDown))

	scores, err = s.GetTrackTags(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 0.0, scores[0].Score)
	assert.Equal(t, 2, scores[0].UserCount)

	tracks, err = s.FindTracksWithTag(ctx, "chill")
	require.NoError(t, err)
	assert.NotContains(t, tracks, trackID)
}

func TestFindTracksWithTag_UnknownTag(t *testing.T) {
	s := newTestStore(t)

	tracks, err := s.FindTracksWithTag(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}
