package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	version, err := migrateSchema(path, ledgerMigrations())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	version, err = migrateSchema(path, ledgerMigrations())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestMigrateSchemaAppliesPendingVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	_, err := migrateSchema(path, ledgerMigrations())
	require.NoError(t, err)

	next := fstest.MapFS{}
	for _, name := range []string{"000001_init.up.sql", "000001_init.down.sql"} {
		data, err := embeddedMigrations.ReadFile("migrations/" + name)
		require.NoError(t, err)
		next[name] = &fstest.MapFile{Data: data}
	}
	next["000002_notes.up.sql"] = &fstest.MapFile{Data: []byte("ALTER TABLE accounts ADD COLUMN note TEXT;")}
	next["000002_notes.down.sql"] = &fstest.MapFile{Data: []byte("ALTER TABLE accounts DROP COLUMN note;")}

	version, err := migrateSchema(path, next)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestMigrateSchemaRefusesDirtyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	_, err := migrateSchema(path, ledgerMigrations())
	require.NoError(t, err)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE " + schemaTable + " SET dirty = 1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = migrateSchema(path, ledgerMigrations())
	assert.ErrorContains(t, err, "dirty")

	_, err = NewSQLiteGateway(path)
	assert.ErrorContains(t, err, "dirty")
}

func TestSQLiteGatewayReportsSchemaVersion(t *testing.T) {
	gw, err := NewSQLiteGateway(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer gw.Close()
	assert.Equal(t, uint(1), gw.SchemaVersion())
}
