package store

import (
	"cmp"
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/crowdtune/crowdtune-server/internal/domain"
)

// GetTrackTags returns the tag ranking for a track: every tag name that
// has live votes, with its weighted score (Σ value×weight) and count of
// distinct voters, sorted by score descending. Ties break on tag name
// ascending so repeated calls against unchanged data return the same
// order. Soft-deleted votes never contribute.
func (s *Store) GetTrackTags(ctx context.Context, trackID string) ([]domain.TagScore, error) {
	var votes []*domain.Vote
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		votes, err = loadLiveVotesForTrack(txn, trackID)
		return err
	})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		score  float64
		voters map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	for _, v := range votes {
		b, ok := buckets[v.TagName]
		if !ok {
			b = &bucket{voters: make(map[string]struct{})}
			buckets[v.TagName] = b
		}
		b.score += v.Score()
		b.voters[v.CastBy] = struct{}{}
	}

	scores := make([]domain.TagScore, 0, len(buckets))
	for name, b := range buckets {
		scores = append(scores, domain.TagScore{
			TagName:   name,
			Score:     b.score,
			UserCount: len(b.voters),
		})
	}

	slices.SortFunc(scores, func(a, b domain.TagScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.TagName, b.TagName)
	})
	return scores, nil
}

// FindTracksWithTag returns the ids of all tracks whose weighted score for
// the given tag name is strictly positive. A track with net-zero or
// net-negative sentiment does not surface under the label even though its
// tag document may still exist.
func (s *Store) FindTracksWithTag(ctx context.Context, tagName string) ([]string, error) {
	totals := make(map[string]float64)
	err := s.view(ctx, func(txn *badger.Txn) error {
		voteIDs := scanIDSuffixes(txn, voteByTagScanPrefix(tagName))
		for _, voteID := range voteIDs {
			var v domain.Vote
			if err := getJSON(txn, voteKey(voteID), &v); err != nil {
				return err
			}
			if v.IsDeleted() {
				continue
			}
			totals[v.TrackID] += v.Score()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var trackIDs []string
	for trackID, score := range totals {
		if score > 0 {
			trackIDs = append(trackIDs, trackID)
		}
	}
	slices.Sort(trackIDs)
	return trackIDs, nil
}

// loadLiveVotesForTrack loads every live vote document for a track inside
// an open transaction, via the track membership index.
func loadLiveVotesForTrack(txn *badger.Txn, trackID string) ([]*domain.Vote, error) {
	voteIDs := scanIDSuffixes(txn, voteByTrackScanPrefix(trackID))

	votes := make([]*domain.Vote, 0, len(voteIDs))
	for _, voteID := range voteIDs {
		var v domain.Vote
		if err := getJSON(txn, voteKey(voteID), &v); err != nil {
			return nil, err
		}
		if v.IsDeleted() {
			continue
		}
		votes = append(votes, &v)
	}
	return votes, nil
}
