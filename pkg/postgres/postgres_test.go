package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_holidays.sql":  {Data: []byte("SELECT 1")},
		"migrations/001_app_state.sql": {Data: []byte("SELECT 1")},
		"migrations/README.md":         {Data: []byte("notes")},
	}

	got, err := pendingMigrations(fsys, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_app_state.sql", "002_holidays.sql"}, got)

	got, err = pendingMigrations(fsys, map[string]bool{"001_app_state.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_holidays.sql"}, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := pendingMigrations(migrationsFS, nil)
	require.NoError(t, err)
	assert.Contains(t, got, "001_app_state.sql")
}

func TestDecodeSnapshot(t *testing.T) {
	snap, err := decodeSnapshot([]byte(`{"version":2,"workers":[{"id":"w1","name":"Anna"}],"departments":["sales"]}`))
	require.NoError(t, err)
	require.Len(t, snap.Workers, 1)
	assert.Equal(t, "Anna", snap.Workers[0].Name)

	_, err = decodeSnapshot([]byte(`{not json`))
	assert.ErrorContains(t, err, "failed to decode app state")
}
