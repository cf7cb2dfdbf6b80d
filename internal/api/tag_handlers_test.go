package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	"github.com/crowdtune/crowdtune-server/internal/service"
)

const testTrack = "trk-0123456789abcdefghijk"

func suggestTag(t *testing.T, srv *Server, token, trackID, name string) service.SuggestResult {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/tracks/"+trackID+"/tags", token, map[string]any{
		"name": name,
	})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rec.Code, rec.Body.String())
	return decodeEnvelope[service.SuggestResult](t, rec).Data
}

func TestSuggestTag_CreatesAndNormalizes(t *testing.T) {
	srv := newTestServer(t)
	auth := registerUser(t, srv, "maria")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/tracks/"+testTrack+"/tags", auth.AccessToken, map[string]any{
		"name": "Late Night DRIVE",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result := decodeEnvelope[service.SuggestResult](t, rec).Data
	assert.True(t, result.Created)
	assert.Equal(t, "late-night-drive", result.Tag.TagName)
	assert.Equal(t, testTrack, result.Tag.TrackID)
}

func TestSuggestTag_ExistingPairReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	maria := registerUser(t, srv, "maria")
	noah := registerUser(t, srv, "noah")

	first := suggestTag(t, srv, maria.AccessToken, testTrack, "chill")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/tracks/"+testTrack+"/tags", noah.AccessToken, map[string]any{
		"name": "CHILL",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	second := decodeEnvelope[service.SuggestResult](t, rec).Data
	assert.False(t, second.Created)
	assert.Equal(t, first.Tag.ID, second.Tag.ID)
}

func TestSuggestTag_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/tracks/"+testTrack+"/tags", "", map[string]any{
		"name": "chill",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSuggestTag_RejectsEmptyName(t *testing.T) {
	srv := newTestServer(t)
	auth := registerUser(t, srv, "maria")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/tracks/"+testTrack+"/tags", auth.AccessToken, map[string]any{
		"name": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A name that normalizes to nothing is also rejected.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/tracks/"+testTrack+"/tags", auth.AccessToken, map[string]any{
		"name": "::::",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTrackTags_PublicRead(t *testing.T) {
	srv := newTestServer(t)
	maria := registerUser(t, srv, "maria")
	noah := registerUser(t, srv, "noah")

	result := suggestTag(t, srv, maria.AccessToken, testTrack, "chill")
	rec := doJSON(t, srv, http.MethodPut, "/api/v1/tags/"+result.Tag.ID+"/vote", noah.AccessToken, map[string]any{
		"value": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// No auth header needed for reads.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/tracks/"+testTrack+"/tags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	scores := decodeEnvelope[[]domain.TagScore](t, rec).Data
	require.Len(t, scores, 1)
	assert.Equal(t, "chill", scores[0].TagName)
	assert.InDelta(t, 2.0, scores[0].Score, 1e-9)
	assert.Equal(t, 2, scores[0].UserCount)
}

func TestVoteTag_FlipAndRetract(t *testing.T) {
	srv := newTestServer(t)
	maria := registerUser(t, srv, "maria")
	noah := registerUser(t, srv, "noah")
	result := suggestTag(t, srv, maria.AccessToken, testTrack, "chill")

	// Noah downvotes, cancelling Maria's suggestion vote.
	rec := doJSON(t, srv, http.MethodPut, "/api/v1/tags/"+result.Tag.ID+"/vote", noah.AccessToken, map[string]any{
		"value": -1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/tracks/"+testTrack+"/tags", "", nil)
	scores := decodeEnvelope[[]domain.TagScore](t, rec).Data
	require.Len(t, scores, 1)
	assert.InDelta(t, 0.0, scores[0].Score, 1e-9)

	// Retracting Noah's vote restores the score.
	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/tags/"+result.Tag.ID+"/vote", noah.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/tracks/"+testTrack+"/tags", "", nil)
	scores = decodeEnvelope[[]domain.TagScore](t, rec).Data
	require.Len(t, scores, 1)
	assert.InDelta(t, 1.0, scores[0].Score, 1e-9)
}

func TestVoteTag_RejectsBadValue(t *testing.T) {
	srv := newTestServer(t)
	maria := registerUser(t, srv, "maria")
	result := suggestTag(t, srv, maria.AccessToken, testTrack, "chill")

	for _, value := range []int{0, 2, -3} {
		rec := doJSON(t, srv, http.MethodPut, "/api/v1/tags/"+result.Tag.ID+"/vote", maria.AccessToken, map[string]any{
			"value": value,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "value %d", value)
	}
}

func TestVoteTag_UnknownTag(t *testing.T) {
	srv := newTestServer(t)
	maria := registerUser(t, srv, "maria")

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/tags/tag-0123456789abcdefghijk/vote", maria.AccessToken, map[string]any{
		"value": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetractVote_WithoutVote(t *testing.T) {
	srv := newTestServer(t)
	maria := registerUser(t, srv, "maria")
	noah := registerUser(t, srv, "noah")
	result := suggestTag(t, srv, maria.AccessToken, testTrack, "chill")

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/tags/"+result.Tag.ID+"/vote", noah.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFindTracks(t *testing.T) {
	srv := newTestServer(t)
	maria := registerUser(t, srv, "maria")

	suggestTag(t, srv, maria.AccessToken, testTrack, "chill")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/tags/tracks?name=CHILL", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{testTrack}, decodeEnvelope[[]string](t, rec).Data)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/tags/tracks?name=unknown", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeEnvelope[[]string](t, rec).Data)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/tags/tracks", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
