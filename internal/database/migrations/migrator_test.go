package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSQLMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0001_a.sql":   {Data: []byte("SELECT 1")},
		"sql/0002_b.sql":   {Data: []byte("SELECT 2")},
		"sql/README.md":    {Data: []byte("ignored")},
		"sql/nested/x.sql": {Data: []byte("SELECT 3")},
	}

	require.NoError(t, LoadSQLMigrations(fsys, "sql"))

	ids := Registered()
	assert.Contains(t, ids, "0001_a")
	assert.Contains(t, ids, "0002_b")
	assert.NotContains(t, ids, "README")
	assert.NotContains(t, ids, "x")
}

func TestLoadPostgres(t *testing.T) {
	require.NoError(t, LoadPostgres())

	ids := Registered()
	assert.Contains(t, ids, "0001_carb_entries_owner_timestamp")
	assert.Contains(t, ids, "0002_carb_entries_value_check")
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestLoadSQLMigrationsMissingDir(t *testing.T) {
	assert.Error(t, LoadSQLMigrations(fstest.MapFS{}, "missing"))
}
