package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	apperrors "github.com/crowdtune/crowdtune-server/internal/errors"
	"github.com/crowdtune/crowdtune-server/internal/id"
)

// CreateTagWithVote atomically creates a tag and its seed vote, or returns
// the already-existing live tag for the same (trackID, tagName) pair.
//
// Inside one transaction: the pair index is consulted first; if a live tag
// exists the call is an idempotent no-op returning (tag, nil); no vote is
// cast for the caller. Otherwise the tag, a +1 seed vote by the creator,
// and all index entries are inserted together; other transactions see both
// rows or neither.
//
// Two concurrent calls for the same pair race safely: the pair-index read
// joins this transaction's read set, so the losing commit fails with a
// conflict and the coordinator re-runs the closure, which then finds the
// winner's tag and returns it. Both callers converge on one tag id.
//
// Failures that are not absorbed by the idempotent path surface as
// TRANSACTION_ABORTED wrapping the cause; no partial state is observable.
func (s *Store) CreateTagWithVote(ctx context.Context, trackID, tagName, userID string) (*domain.Tag, *domain.Vote, error) {
	var (
		tag  *domain.Tag
		vote *domain.Vote
	)

	err := s.RunInTxn(ctx, func(txn *badger.Txn) error {
		tag, vote = nil, nil

		existing, err := getLiveTagByPair(txn, trackID, tagName)
		if err != nil {
			return err
		}
		if existing != nil {
			tag = existing
			return nil
		}

		tagID, err := id.Generate(id.KindTag)
		if err != nil {
			return err
		}
		voteID, err := id.Generate(id.KindVote)
		if err != nil {
			return err
		}

		t := &domain.Tag{TrackID: trackID, TagName: tagName, CreatedBy: userID}
		t.ID = tagID
		t.Init(userID)

		v := &domain.Vote{
			CastBy:  userID,
			TrackID: trackID,
			TagName: tagName,
			Value:   domain.VoteUp,
			Weight:  1,
		}
		v.ID = voteID
		v.Init(userID)

		if err := setJSON(txn, tagKey(tagID), t); err != nil {
			return err
		}
		if err := txn.Set(tagByPairKey(trackID, tagName), []byte(tagID)); err != nil {
			return err
		}
		if err := txn.Set(tagByTrackKey(trackID, tagID), []byte{}); err != nil {
			return err
		}
		if err := writeVote(txn, v); err != nil {
			return err
		}

		tag, vote = t, v
		return nil
	})
	if err != nil {
		return nil, nil, apperrors.TransactionAborted("tag creation failed", err)
	}

	if s.logger != nil && vote != nil {
		s.logger.Debug("tag created with seed vote", "tag_id", tag.ID, "track_id", trackID, "tag_name", tagName)
	}
	return tag, vote, nil
}

// GetTag retrieves a live tag by id.
// Soft-deleted tags are reported as not found.
func (s *Store) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	var t domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		err := getJSON(txn, tagKey(tagID), &t)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		return nil, ErrTagNotFound
	}
	return &t, nil
}

// GetTagByPair retrieves the live tag for a (trackID, tagName) pair.
func (s *Store) GetTagByPair(ctx context.Context, trackID, tagName string) (*domain.Tag, error) {
	var t *domain.Tag
	err := s.view(ctx, func(txn *badger.Txn) error {
		found, err := getLiveTagByPair(txn, trackID, tagName)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrTagNotFound
		}
		t = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTagsForTrack returns all live tag documents on a track.
func (s *Store) ListTagsForTrack(ctx context.Context, trackID string) ([]*domain.Tag, error) {
	var tagIDs []string
	err := s.view(ctx, func(txn *badger.Txn) error {
		tagIDs = scanIDSuffixes(txn, tagByTrackScanPrefix(trackID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	tags := make([]*domain.Tag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		t, err := s.GetTag(ctx, tagID)
		if errors.Is(err, ErrTagNotFound) {
			continue // soft-deleted
		}
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// VoteTag records the user's vote on the tag: +1 or -1.
//
// One live vote per (castBy, trackID, tagName): an existing vote, live or
// soft-deleted, is updated in place with the new value, which makes
// re-voting idempotent by key and safe to retry. A first-time vote is
// inserted with weight 1. Fails with ErrTagNotFound if the tag id does not
// resolve to a live tag.
func (s *Store) VoteTag(ctx context.Context, tagID, userID string, value int) error {
	if value != domain.VoteUp && value != domain.VoteDown {
		return ErrInvalidVote
	}

	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		var t domain.Tag
		err := getJSON(txn, tagKey(tagID), &t)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		if t.IsDeleted() {
			return ErrTagNotFound
		}

		uniqueKey := voteByUniqueKey(userID, t.TrackID, t.TagName)
		voteID, found, err := readIndexValue(txn, uniqueKey)
		if err != nil {
			return err
		}

		if found {
			var v domain.Vote
			if err := getJSON(txn, voteKey(voteID), &v); err != nil {
				return err
			}
			v.Value = value
			v.Deleted = nil // a retracted vote is resurrected in place
			v.Touch(userID)
			return setJSON(txn, voteKey(voteID), &v)
		}

		newVoteID, err := id.Generate(id.KindVote)
		if err != nil {
			return err
		}
		v := &domain.Vote{
			CastBy:  userID,
			TrackID: t.TrackID,
			TagName: t.TagName,
			Value:   value,
			Weight:  1,
		}
		v.ID = newVoteID
		v.Init(userID)
		return writeVote(txn, v)
	})
}

// RetractVote soft-deletes the user's vote on the tag. The vote's index
// entries stay in place; aggregation skips soft-deleted documents and a
// later re-vote resurrects the row. Returns the tag so the caller can
// follow up with DeleteIfNoVotes.
func (s *Store) RetractVote(ctx context.Context, tagID, userID string) (*domain.Tag, error) {
	var tag *domain.Tag
	err := s.RunInTxn(ctx, func(txn *badger.Txn) error {
		var t domain.Tag
		err := getJSON(txn, tagKey(tagID), &t)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		if t.IsDeleted() {
			return ErrTagNotFound
		}
		tag = &t

		voteID, found, err := readIndexValue(txn, voteByUniqueKey(userID, t.TrackID, t.TagName))
		if err != nil {
			return err
		}
		if !found {
			return ErrVoteNotFound
		}

		var v domain.Vote
		if err := getJSON(txn, voteKey(voteID), &v); err != nil {
			return err
		}
		if v.IsDeleted() {
			return ErrVoteNotFound
		}
		v.MarkDeleted(userID)
		return setJSON(txn, voteKey(voteID), &v)
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteIfNoVotes soft-deletes the tag when the (trackID, tagName) pair
// has exactly zero live votes.
//
// This is best-effort cleanup, deliberately not transactional with the
// vote removal that triggered it: a new vote can land between the count
// and the delete, leaving an orphan vote on a soft-deleted tag. That
// narrow race is accepted; the alternative would require wrapping the
// retraction and this decision in one transaction.
func (s *Store) DeleteIfNoVotes(ctx context.Context, tagID, tagName, trackID string) error {
	count, err := s.countLiveVotes(ctx, trackID, tagName)
	if err != nil {
		return err
	}
	if count != 0 {
		return nil
	}

	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		var t domain.Tag
		err := getJSON(txn, tagKey(tagID), &t)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTagNotFound
		}
		if err != nil {
			return err
		}
		if t.IsDeleted() {
			return nil // idempotent
		}
		t.MarkDeleted(t.LastModifiedBy)
		if err := setJSON(txn, tagKey(tagID), &t); err != nil {
			return err
		}
		// The pair constraint covers live tags only: release it so the
		// label can be recreated. The track index entry goes with it.
		if err := txn.Delete(tagByPairKey(t.TrackID, t.TagName)); err != nil {
			return err
		}
		return txn.Delete(tagByTrackKey(t.TrackID, t.ID))
	})
}

// countLiveVotes counts live votes for a (trackID, tagName) pair.
func (s *Store) countLiveVotes(ctx context.Context, trackID, tagName string) (int, error) {
	count := 0
	err := s.view(ctx, func(txn *badger.Txn) error {
		votes, err := loadLiveVotesForTrack(txn, trackID)
		if err != nil {
			return err
		}
		for _, v := range votes {
			if v.TagName == tagName {
				count++
			}
		}
		return nil
	})
	return count, err
}

// getLiveTagByPair resolves the pair index to a live tag document inside
// an open transaction. Returns (nil, nil) when no live tag exists.
func getLiveTagByPair(txn *badger.Txn, trackID, tagName string) (*domain.Tag, error) {
	tagID, found, err := readIndexValue(txn, tagByPairKey(trackID, tagName))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var t domain.Tag
	if err := getJSON(txn, tagKey(tagID), &t); err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		// Stale pair entry; treat as absent. DeleteIfNoVotes removes the
		// entry in the same transaction as the soft-delete, so this only
		// shows up mid-race.
		return nil, nil
	}
	return &t, nil
}

// writeVote inserts a vote document and all its index entries inside an
// open transaction.
func writeVote(txn *badger.Txn, v *domain.Vote) error {
	if err := setJSON(txn, voteKey(v.ID), v); err != nil {
		return err
	}
	if err := txn.Set(voteByUniqueKey(v.CastBy, v.TrackID, v.TagName), []byte(v.ID)); err != nil {
		return err
	}
	if err := txn.Set(voteByTrackKey(v.TrackID, v.ID), []byte{}); err != nil {
		return err
	}
	return txn.Set(voteByTagKey(v.TagName, v.ID), []byte{})
}
