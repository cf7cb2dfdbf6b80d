package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Session records an outstanding refresh token. Sessions are keyed by the
// token hash, never the token itself, and carry a Badger TTL so expired
// entries vanish on their own.
type Session struct {
	UserID  string    `json:"userId"`
	Created time.Time `json:"created"`
	Expires time.Time `json:"expires"`
}

// ErrSessionNotFound is returned for unknown or expired refresh tokens.
var ErrSessionNotFound = errors.New("session not found")

// SaveSession stores a refresh session under the token hash.
func (s *Store) SaveSession(ctx context.Context, tokenHash string, session *Session) error {
	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		ttl := time.Until(session.Expires)
		if ttl <= 0 {
			return fmt.Errorf("session already expired at %v", session.Expires)
		}
		entry := badger.NewEntry(sessionKey(tokenHash), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// GetSession retrieves a live refresh session by token hash.
func (s *Store) GetSession(ctx context.Context, tokenHash string) (*Session, error) {
	var session Session
	err := s.view(ctx, func(txn *badger.Txn) error {
		err := getJSON(txn, sessionKey(tokenHash), &session)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	// The TTL usually handles this, but its granularity is coarse.
	if time.Now().After(session.Expires) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// DeleteSession removes a refresh session. Deleting an unknown session is
// not an error; logout must be idempotent.
func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	return s.RunInTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(tokenHash))
	})
}
