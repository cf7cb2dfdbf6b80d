package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	apperrors "github.com/crowdtune/crowdtune-server/internal/errors"
	"github.com/crowdtune/crowdtune-server/internal/id"
	"github.com/crowdtune/crowdtune-server/internal/normalize"
	"github.com/crowdtune/crowdtune-server/internal/store"
)

// TagService orchestrates collaborative track tagging. Tags are
// community-wide: any authenticated user may suggest and vote, and a tag
// whose last vote is retracted is cleaned up automatically.
type TagService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// SuggestResult reports the outcome of a tag suggestion.
type SuggestResult struct {
	Tag *domain.Tag `json:"tag"`
	// Created is false when the pair already existed and no vote was cast.
	Created bool `json:"created"`
}

// Suggest creates a tag on a track together with the suggester's implicit
// up-vote, or returns the existing tag if the pair is already live.
func (s *TagService) Suggest(ctx context.Context, principal domain.Principal, trackID, rawName string) (*SuggestResult, error) {
	if err := id.Validate(id.KindTrack, trackID); err != nil {
		return nil, err
	}

	// 1. Canonicalize the name; an input that normalizes away is rejected.
	tagName := normalize.TagName(rawName)
	if tagName == "" {
		return nil, apperrors.Validationf("tag name %q is empty after normalization", rawName)
	}

	// 2. Find-or-create atomically with the seed vote.
	tag, vote, err := s.store.CreateTagWithVote(ctx, trackID, tagName, principal.ID)
	if err != nil {
		return nil, err
	}

	created := vote != nil
	if created {
		s.logger.Info("tag suggested",
			"tag_id", tag.ID,
			"track_id", trackID,
			"tag_name", tagName,
			"user_id", principal.ID,
		)
	}

	return &SuggestResult{Tag: tag, Created: created}, nil
}

// Vote casts or replaces the principal's vote on a tag. Value must be +1
// or -1; a repeat vote overwrites the previous value in place.
func (s *TagService) Vote(ctx context.Context, principal domain.Principal, tagID string, value int) error {
	if err := id.Validate(id.KindTag, tagID); err != nil {
		return err
	}

	err := s.store.VoteTag(ctx, tagID, principal.ID, value)
	if errors.Is(err, store.ErrInvalidVote) {
		return apperrors.Validationf("vote value must be +1 or -1, got %d", value)
	}
	if errors.Is(err, store.ErrTagNotFound) {
		return apperrors.NotFoundf("tag %q not found", tagID)
	}
	if err != nil {
		return err
	}

	s.logger.Info("vote cast", "tag_id", tagID, "user_id", principal.ID, "value", value)
	return nil
}

// Retract removes the principal's vote from a tag, then deletes the tag if
// no live votes remain. The count-then-delete pair is deliberately not one
// transaction: a vote that lands between the two steps may leave a votable
// tag in place or briefly orphan a vote, both of which are acceptable.
func (s *TagService) Retract(ctx context.Context, principal domain.Principal, tagID string) error {
	if err := id.Validate(id.KindTag, tagID); err != nil {
		return err
	}

	tag, err := s.store.RetractVote(ctx, tagID, principal.ID)
	if errors.Is(err, store.ErrTagNotFound) {
		return apperrors.NotFoundf("tag %q not found", tagID)
	}
	if errors.Is(err, store.ErrVoteNotFound) {
		return apperrors.NotFoundf("you have no vote on tag %q", tagID)
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteIfNoVotes(ctx, tag.ID, tag.TagName, tag.TrackID); err != nil {
		s.logger.Warn("tag cleanup after retraction failed", "tag_id", tagID, "error", err)
	}

	s.logger.Info("vote retracted", "tag_id", tagID, "user_id", principal.ID)
	return nil
}

// TrackTags returns the aggregated tag scores for a track, score
// descending. Tags whose live votes sum to zero or below are included;
// only discovery filters on positive sentiment.
func (s *TagService) TrackTags(ctx context.Context, trackID string) ([]domain.TagScore, error) {
	if err := id.Validate(id.KindTrack, trackID); err != nil {
		return nil, err
	}
	return s.store.GetTrackTags(ctx, trackID)
}

// FindTracks returns ids of tracks where the named tag has a strictly
// positive score.
func (s *TagService) FindTracks(ctx context.Context, rawName string) ([]string, error) {
	tagName := normalize.TagName(rawName)
	if tagName == "" {
		return nil, apperrors.Validationf("tag name %q is empty after normalization", rawName)
	}
	return s.store.FindTracksWithTag(ctx, tagName)
}
