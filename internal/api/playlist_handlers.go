package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	"github.com/crowdtune/crowdtune-server/internal/http/response"
)

// CreatePlaylistRequest is the request body for creating a playlist.
type CreatePlaylistRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Public bool   `json:"public"`
}

// AddTrackRequest is the request body for appending a track.
type AddTrackRequest struct {
	TrackID string `json:"track_id" validate:"required,resid=trk"`
}

// SetVisibilityRequest is the request body for toggling public access.
type SetVisibilityRequest struct {
	Public *bool `json:"public" validate:"required"`
}

// ShareRequest is the request body for granting playlist access.
// A nil expiry makes the grant permanent.
type ShareRequest struct {
	UserID    string     `json:"user_id" validate:"required,resid=usr"`
	Action    string     `json:"action" validate:"required,oneof=read write modify delete"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var req CreatePlaylistRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	playlist, err := s.playlistService.Create(r.Context(), principal, req.Name, req.Public)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, playlist, s.logger)
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	playlists, err := s.playlistService.ListMine(r.Context(), principal)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, playlists, s.logger)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	playlist, err := s.playlistService.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, playlist, s.logger)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	if err := s.playlistService.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

func (s *Server) handleSetPlaylistVisibility(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var req SetVisibilityRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	playlist, err := s.playlistService.SetPublic(r.Context(), principal, chi.URLParam(r, "id"), *req.Public)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, playlist, s.logger)
}

func (s *Server) handleSharePlaylist(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var req ShareRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	var expires time.Time
	if req.ExpiresAt != nil {
		expires = *req.ExpiresAt
	}

	playlist, err := s.playlistService.Share(r.Context(), principal, chi.URLParam(r, "id"), req.UserID, domain.Action(req.Action), expires)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, playlist, s.logger)
}

func (s *Server) handleAddPlaylistTrack(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	var req AddTrackRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	playlist, err := s.playlistService.AddTrack(r.Context(), principal, chi.URLParam(r, "id"), req.TrackID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, playlist, s.logger)
}

func (s *Server) handleRemovePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	playlist, err := s.playlistService.RemoveTrack(r.Context(), principal, chi.URLParam(r, "id"), chi.URLParam(r, "trackID"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, playlist, s.logger)
}
