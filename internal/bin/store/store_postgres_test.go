package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardforge/migrations"
)

// The Postgres stores assume the schema shipped in migrations/. Pin the
// embedded migration to the columns the queries read so a schema edit that
// breaks a query fails here instead of at runtime.
func TestMigrationSchemaCoversStoreQueries(t *testing.T) {
	raw, err := migrations.FS.ReadFile("001_create_bins.sql")
	require.NoError(t, err)
	schema := string(raw)

	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS bins")
	for _, col := range []string{"prefix", "brand", "category", "issuer", "country_code", "country_name"} {
		assert.Contains(t, schema, col)
	}

	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS blocked_bins")
	assert.Contains(t, schema, "reason")
}
