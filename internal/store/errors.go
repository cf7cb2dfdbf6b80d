package store

import "errors"

// Store errors. Services translate these into the API error taxonomy at
// their own boundary.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrVoteNotFound     = errors.New("vote not found")
	ErrInvalidVote      = errors.New("vote value must be +1 or -1")
)
