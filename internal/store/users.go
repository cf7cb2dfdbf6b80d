package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/crowdtune/crowdtune-server/internal/domain"
	"github.com/crowdtune/crowdtune-server/internal/id"
)

// CreateUser inserts a new user. The username index is the uniqueness
// authority: the check and the insert happen in one transaction, so two
// concurrent registrations for the same name cannot both commit.
// Usernames are case-sensitive by design.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		userID, err := id.Generate(id.KindUser)
		if err != nil {
			return err
		}
		u.ID = userID
	}
	if len(u.Groups) == 0 {
		u.Groups = domain.NewGroups()
	}
	if u.Created.IsZero() {
		u.Init(u.ID)
	}

	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		nameKey := userByNameKey(u.Username)
		if _, err := txn.Get(nameKey); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, userKey(u.ID), u); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(u.ID))
	})
}

// GetUser retrieves a live user by id.
// Soft-deleted users are reported as not found.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		err := getJSON(txn, userKey(userID), &u)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if u.IsDeleted() {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// GetUserByUsername retrieves a live user by username (exact match).
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var userID string
	err := s.view(ctx, func(txn *badger.Txn) error {
		value, found, err := readIndexValue(txn, userByNameKey(username))
		if err != nil {
			return err
		}
		if !found {
			return ErrUserNotFound
		}
		userID = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// UpdateUser persists changes to an existing user.
// The username is immutable once registered, so the index needs no upkeep.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	u.Touch(u.ID)
	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(u.ID)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}
		return setJSON(txn, userKey(u.ID), u)
	})
}

// SoftDeleteUser marks a user deleted. The record and its username index
// entry remain: accounts are never physically removed and their name is
// not released for re-registration.
func (s *Store) SoftDeleteUser(ctx context.Context, userID, by string) error {
	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		var u domain.User
		err := getJSON(txn, userKey(userID), &u)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if u.IsDeleted() {
			return nil // idempotent
		}
		u.MarkDeleted(by)
		return setJSON(txn, userKey(userID), &u)
	})
}

// TouchUserLogin records a successful login on the audit envelope.
func (s *Store) TouchUserLogin(ctx context.Context, userID string) error {
	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		var u domain.User
		err := getJSON(txn, userKey(userID), &u)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		u.LastModified = time.Now()
		return setJSON(txn, userKey(userID), &u)
	})
}
