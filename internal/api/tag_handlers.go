package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crowdtune/crowdtune-server/internal/http/response"
)

// SuggestTagRequest is the request body for suggesting a tag on a track.
type SuggestTagRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// VoteRequest is the request body for casting or changing a tag vote.
type VoteRequest struct {
	Value int `json:"value" validate:"required,oneof=-1 1"`
}

func (s *Server) handleSuggestTag(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var req SuggestTagRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.tagService.Suggest(r.Context(), principal, chi.URLParam(r, "trackID"), req.Name)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if result.Created {
		response.Created(w, result, s.logger)
		return
	}
	response.Success(w, result, s.logger)
}

func (s *Server) handleListTrackTags(w http.ResponseWriter, r *http.Request) {
	scores, err := s.tagService.TrackTags(r.Context(), chi.URLParam(r, "trackID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, scores, s.logger)
}

func (s *Server) handleVoteTag(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var req VoteRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.tagService.Vote(r.Context(), principal, chi.URLParam(r, "tagID"), req.Value); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]string{"message": "Vote recorded"}, s.logger)
}

func (s *Server) handleRetractVote(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	if err := s.tagService.Retract(r.Context(), principal, chi.URLParam(r, "tagID")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleFindTracks(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		response.BadRequest(w, "Tag name is required", s.logger)
		return
	}

	trackIDs, err := s.tagService.FindTracks(r.Context(), name)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if trackIDs == nil {
		trackIDs = []string{}
	}
	response.Success(w, trackIDs, s.logger)
}
