package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStore opens an isolated store instance in a temp dir.
// Each test gets its own database; no shared handles between cases.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir()+"/test.db", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
