package store

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	"github.com/crowdtune/crowdtune-server/internal/id"
)

// CreatePlaylist inserts a new playlist and its owner index entry.
func (s *Store) CreatePlaylist(ctx context.Context, p *domain.Playlist) error {
	if p.ID == "" {
		playlistID, err := id.Generate(id.KindPlaylist)
		if err != nil {
			return err
		}
		p.ID = playlistID
	}
	if p.Created.IsZero() {
		p.Init(p.OwnerID)
	}

	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		if err := setJSON(txn, playlistKey(p.ID), p); err != nil {
			return err
		}
		return txn.Set(playlistByOwnerKey(p.OwnerID, p.ID), []byte{})
	})
}

// GetPlaylist retrieves a live playlist by id.
// Soft-deleted playlists are reported as not found.
func (s *Store) GetPlaylist(ctx context.Context, playlistID string) (*domain.Playlist, error) {
	var p domain.Playlist
	err := s.view(ctx, func(txn *badger.Txn) error {
		err := getJSON(txn, playlistKey(playlistID), &p)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPlaylistNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if p.IsDeleted() {
		return nil, ErrPlaylistNotFound
	}
	return &p, nil
}

// ListPlaylistsByOwner returns all live playlists owned by the user,
// sorted by id for a deterministic order.
func (s *Store) ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]*domain.Playlist, error) {
	var playlistIDs []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		playlistIDs = scanIDSuffixes(txn, playlistByOwnerScanPrefix(ownerID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	playlists := make([]*domain.Playlist, 0, len(playlistIDs))
	for _, playlistID := range playlistIDs {
		p, err := s.GetPlaylist(ctx, playlistID)
		if errors.Is(err, ErrPlaylistNotFound) {
			continue // soft-deleted
		}
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}

	slices.SortFunc(playlists, func(a, b *domain.Playlist) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return playlists, nil
}

// MutatePlaylist applies fn to the live playlist inside one atomic
// read-modify-write transaction. fn always sees the freshly loaded
// document; an error from fn aborts the write and propagates unchanged.
// Concurrent mutations of the same playlist serialize through badger's
// conflict detection and the retry in RunInTxn, so no update is lost.
// Returns the document as persisted.
func (s *Store) MutatePlaylist(ctx context.Context, playlistID, by string, fn func(p *domain.Playlist) error) (*domain.Playlist, error) {
	var p domain.Playlist
	err := s.RunInTxn(ctx, func(txn *badger.Txn) error {
		p = domain.Playlist{}
		err := getJSON(txn, playlistKey(playlistID), &p)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPlaylistNotFound
		}
		if err != nil {
			return err
		}
		if p.IsDeleted() {
			return ErrPlaylistNotFound
		}
		if err := fn(&p); err != nil {
			return err
		}
		p.Touch(by)
		return setJSON(txn, playlistKey(playlistID), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SoftDeletePlaylist marks a playlist deleted and drops its owner index
// entry so it no longer appears in listings. The document itself remains.
func (s *Store) SoftDeletePlaylist(ctx context.Context, playlistID, by string) error {
	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		var p domain.Playlist
		err := getJSON(txn, playlistKey(playlistID), &p)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPlaylistNotFound
		}
		if err != nil {
			return err
		}
		if p.IsDeleted() {
			return nil // idempotent
		}
		p.MarkDeleted(by)
		if err := setJSON(txn, playlistKey(playlistID), &p); err != nil {
			return err
		}
		return txn.Delete(playlistByOwnerKey(p.OwnerID, p.ID))
	})
}
