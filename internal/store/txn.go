package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds re-execution of a unit of work after an optimistic
// concurrency conflict. Conflicts are expected under contention (two
// requests racing on the same index key); re-running the closure lets the
// loser observe the winner's committed state.
const maxTxnRetries = 3

// RunInTxn executes fn inside one atomic read-write transaction:
// begin, run, commit, with abort on any failure. Badger guarantees the
// transaction is discarded whether or not the commit happens, so the
// session is always released.
//
// On badger.ErrConflict the closure is re-run against a fresh snapshot,
// up to maxTxnRetries times. The closure must therefore be safe to
// re-execute from scratch: it should derive all its decisions from reads
// made inside the transaction and must not leak partial results on error.
//
// Either every write in fn becomes visible or none does; other
// transactions never observe intermediate state.
func (s *Store) RunInTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) || attempt >= maxTxnRetries {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if s.logger != nil {
			s.logger.Debug("transaction conflict, retrying", "attempt", attempt+1)
		}
	}
	return err
}

// view executes fn inside a read-only transaction.
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}
