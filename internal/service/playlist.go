package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/crowdtune/crowdtune-server/internal/access"
	"github.com/crowdtune/crowdtune-server/internal/domain"
	apperrors "github.com/crowdtune/crowdtune-server/internal/errors"
	"github.com/crowdtune/crowdtune-server/internal/id"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

// PlaylistService orchestrates playlist operations. Every accessor runs the
// access evaluator before touching the record; a false answer surfaces as
// UNAUTHORIZED without revealing whether the playlist exists.
type PlaylistService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPlaylistService creates a new playlist service.
func NewPlaylistService(store *store.Store, logger *slog.Logger) *PlaylistService {
	return &PlaylistService{
		store:  store,
		logger: logger,
	}
}

// Create makes a new playlist owned by the principal.
func (s *PlaylistService) Create(ctx context.Context, principal domain.Principal, name string, isPublic bool) (*domain.Playlist, error) {
	playlist := &domain.Playlist{
		Name:     name,
		OwnerID:  principal.ID,
		IsPublic: isPublic,
	}
	if err := s.store.CreatePlaylist(ctx, playlist); err != nil {
		return nil, err
	}

	s.logger.Info("playlist created",
		"playlist_id", playlist.ID,
		"owner_id", principal.ID,
		"public", isPublic,
	)

	return playlist, nil
}

// Get returns a playlist the principal may read.
func (s *PlaylistService) Get(ctx context.Context, principal domain.Principal, playlistID string) (*domain.Playlist, error) {
	return s.authorize(ctx, principal, playlistID, domain.ActionRead)
}

// ListMine returns the principal's own playlists.
func (s *PlaylistService) ListMine(ctx context.Context, principal domain.Principal) ([]*domain.Playlist, error) {
	return s.store.ListPlaylistsByOwner(ctx, principal.ID)
}

// AddTrack appends a track to the playlist. Duplicates are rejected.
func (s *PlaylistService) AddTrack(ctx context.Context, principal domain.Principal, playlistID, trackID string) (*domain.Playlist, error) {
	if err := id.Validate(id.KindTrack, trackID); err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, principal, playlistID, domain.ActionWrite); err != nil {
		return nil, err
	}

	playlist, err := s.store.MutatePlaylist(ctx, playlistID, principal.ID, func(p *domain.Playlist) error {
		if !p.AddTrack(trackID) {
			return apperrors.Conflictf("track %q is already in the playlist", trackID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("track added to playlist",
		"playlist_id", playlistID,
		"track_id", trackID,
		"user_id", principal.ID,
	)

	return playlist, nil
}

// RemoveTrack removes a track from the playlist.
func (s *PlaylistService) RemoveTrack(ctx context.Context, principal domain.Principal, playlistID, trackID string) (*domain.Playlist, error) {
	if _, err := s.authorize(ctx, principal, playlistID, domain.ActionWrite); err != nil {
		return nil, err
	}

	playlist, err := s.store.MutatePlaylist(ctx, playlistID, principal.ID, func(p *domain.Playlist) error {
		if !p.RemoveTrack(trackID) {
			return apperrors.NotFoundf("track %q is not in the playlist", trackID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("track removed from playlist",
		"playlist_id", playlistID,
		"track_id", trackID,
		"user_id", principal.ID,
	)

	return playlist, nil
}

// SetPublic flips the world-readable flag. Requires modify rights.
func (s *PlaylistService) SetPublic(ctx context.Context, principal domain.Principal, playlistID string, public bool) (*domain.Playlist, error) {
	if _, err := s.authorize(ctx, principal, playlistID, domain.ActionModify); err != nil {
		return nil, err
	}

	return s.store.MutatePlaylist(ctx, playlistID, principal.ID, func(p *domain.Playlist) error {
		p.IsPublic = public
		return nil
	})
}

// Share adds a user to the allow-list of one action. Requires modify
// rights. A zero expiry adds a permanent entry; otherwise a time-bounded
// grant is recorded and silently lapses at the expiry instant. Re-sharing
// replaces the user's earlier membership for that action.
func (s *PlaylistService) Share(ctx context.Context, principal domain.Principal, playlistID, userID string, action domain.Action, expires time.Time) (*domain.Playlist, error) {
	if err := id.Validate(id.KindUser, userID); err != nil {
		return nil, err
	}

	if _, err := s.authorize(ctx, principal, playlistID, domain.ActionModify); err != nil {
		return nil, err
	}

	// The target must be a live account.
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, apperrors.NotFoundf("user %q not found", userID)
		}
		return nil, err
	}

	playlist, err := s.store.MutatePlaylist(ctx, playlistID, principal.ID, func(p *domain.Playlist) error {
		if p.AccessCtl == nil {
			p.AccessCtl = domain.AccessControl{}
		}
		entry := p.AccessCtl[action]
		// Re-sharing replaces any earlier membership for this user,
		// expired grants included, instead of stacking entries.
		entry.Users = slices.DeleteFunc(entry.Users, func(u string) bool {
			return u == userID
		})
		entry.Grants = slices.DeleteFunc(entry.Grants, func(g domain.Grant) bool {
			return g.UserID == userID
		})
		if expires.IsZero() {
			entry.Users = append(entry.Users, userID)
		} else {
			entry.Grants = append(entry.Grants, domain.Grant{UserID: userID, Expires: expires})
		}
		p.AccessCtl[action] = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("playlist shared",
		"playlist_id", playlistID,
		"with_user", userID,
		"action", string(action),
		"expires", expires,
	)

	return playlist, nil
}

// Delete soft-deletes the playlist. Requires delete rights.
func (s *PlaylistService) Delete(ctx context.Context, principal domain.Principal, playlistID string) error {
	if _, err := s.authorize(ctx, principal, playlistID, domain.ActionDelete); err != nil {
		return err
	}

	if err := s.store.SoftDeletePlaylist(ctx, playlistID, principal.ID); err != nil {
		return err
	}

	s.logger.Info("playlist deleted", "playlist_id", playlistID, "user_id", principal.ID)
	return nil
}

// authorize loads the playlist and evaluates the principal against it.
// Denial and absence both come back as typed errors for the handler.
func (s *PlaylistService) authorize(ctx context.Context, principal domain.Principal, playlistID string, action domain.Action) (*domain.Playlist, error) {
	if err := id.Validate(id.KindPlaylist, playlistID); err != nil {
		return nil, err
	}

	playlist, err := s.store.GetPlaylist(ctx, playlistID)
	if errors.Is(err, store.ErrPlaylistNotFound) {
		return nil, apperrors.NotFoundf("playlist %q not found", playlistID)
	}
	if err != nil {
		return nil, err
	}

	if !access.CanAccessNow(playlist, principal, action) {
		return nil, apperrors.Unauthorized("you do not have access to this playlist")
	}

	return playlist, nil
}
