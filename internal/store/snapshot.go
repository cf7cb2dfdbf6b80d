package store

import (
	"context"
	"encoding/json/v2"

	"github.com/dgraph-io/badger/v4"

	"github.com/crowdtune/crowdtune-server/internal/domain"
)

// Snapshot is a full export of the store's primary records. Soft-deleted
// records are included so a restore reproduces tombstones exactly;
// sessions are excluded because they are ephemeral and TTL-bounded.
type Snapshot struct {
	Users     []*domain.User     `json:"users"`
	Playlists []*domain.Playlist `json:"playlists"`
	Tags      []*domain.Tag      `json:"tags"`
	Votes     []*domain.Vote     `json:"votes"`
}

// Snapshot reads every primary record in one consistent view.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		if snap.Users, err = scanJSON[domain.User](txn, []byte(userPrefix)); err != nil {
			return err
		}
		if snap.Playlists, err = scanJSON[domain.Playlist](txn, []byte(playlistPrefix)); err != nil {
			return err
		}
		if snap.Tags, err = scanJSON[domain.Tag](txn, []byte(tagPrefix)); err != nil {
			return err
		}
		snap.Votes, err = scanJSON[domain.Vote](txn, []byte(votePrefix))
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreSnapshot replaces the store's contents with the snapshot and
// rebuilds every secondary index from the restored records. All existing
// data is dropped first, active sessions included, so clients must log
// in again after a restore.
func (s *Store) RestoreSnapshot(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropAll(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, u := range snap.Users {
		if err := batchSetJSON(wb, userKey(u.ID), u); err != nil {
			return err
		}
		// Soft-deleted users keep their username reserved.
		if err := wb.Set(userByNameKey(u.Username), []byte(u.ID)); err != nil {
			return err
		}
	}

	for _, p := range snap.Playlists {
		if err := batchSetJSON(wb, playlistKey(p.ID), p); err != nil {
			return err
		}
		if !p.IsDeleted() {
			if err := wb.Set(playlistByOwnerKey(p.OwnerID, p.ID), nil); err != nil {
				return err
			}
		}
	}

	for _, t := range snap.Tags {
		if err := batchSetJSON(wb, tagKey(t.ID), t); err != nil {
			return err
		}
		// The pair constraint covers live tags only.
		if !t.IsDeleted() {
			if err := wb.Set(tagByPairKey(t.TrackID, t.TagName), []byte(t.ID)); err != nil {
				return err
			}
			if err := wb.Set(tagByTrackKey(t.TrackID, t.ID), nil); err != nil {
				return err
			}
		}
	}

	for _, v := range snap.Votes {
		if err := batchSetJSON(wb, voteKey(v.ID), v); err != nil {
			return err
		}
		// Retracted votes keep their index rows: the read path filters
		// tombstones and re-voting resurrects the same document.
		if err := wb.Set(voteByUniqueKey(v.CastBy, v.TrackID, v.TagName), []byte(v.ID)); err != nil {
			return err
		}
		if err := wb.Set(voteByTrackKey(v.TrackID, v.ID), nil); err != nil {
			return err
		}
		if err := wb.Set(voteByTagKey(v.TagName, v.ID), nil); err != nil {
			return err
		}
	}

	if err := wb.Flush(); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("snapshot restored",
			"users", len(snap.Users),
			"playlists", len(snap.Playlists),
			"tags", len(snap.Tags),
			"votes", len(snap.Votes),
		)
	}
	return nil
}

// scanJSON decodes every record under a primary prefix.
func scanJSON[T any](txn *badger.Txn, prefix []byte) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var records []*T
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		record := new(T)
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, record)
		})
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
