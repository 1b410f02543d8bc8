package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestStore creates a Store backed by a temporary directory.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	return s, func() {
		_ = s.Close()
	}
}
