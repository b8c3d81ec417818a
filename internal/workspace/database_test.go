package workspace

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createSQLiteDB writes a minimal valid SQLite database at path.
func createSQLiteDB(t *testing.T, path string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE jobs (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO jobs (name) VALUES ('flux-lora')`)
	require.NoError(t, err)
}

func TestVerifyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aitk_db.db")
	createSQLiteDB(t, path)

	require.NoError(t, VerifyDatabase(path))
}

func TestVerifyDatabaseMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")

	err := VerifyDatabase(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestVerifyDatabaseNotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0644))

	err := VerifyDatabase(path)
	require.Error(t, err)
}

func TestCommandInitRunsInDir(t *testing.T) {
	dir := t.TempDir()

	init := CommandInit(dir, []string{"sh", "-c", "echo done > init.marker"}, nil)
	require.NotNil(t, init)
	require.NoError(t, init(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "init.marker"))
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(data))
}

func TestCommandInitPassesEnv(t *testing.T) {
	dir := t.TempDir()

	init := CommandInit(dir,
		[]string{"sh", "-c", `printf %s "$DATABASE_URL" > env.marker`},
		[]string{"DATABASE_URL=file:/tmp/aitk_db.db"})
	require.NoError(t, init(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "env.marker"))
	require.NoError(t, err)
	assert.Equal(t, "file:/tmp/aitk_db.db", string(data))
}

func TestCommandInitFailure(t *testing.T) {
	init := CommandInit(t.TempDir(), []string{"sh", "-c", "echo boom >&2; exit 3"}, nil)

	err := init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCommandInitEmptyCommand(t *testing.T) {
	assert.Nil(t, CommandInit(t.TempDir(), nil, nil))
	assert.Nil(t, CommandInit(t.TempDir(), []string{}, nil))
}
