package dotenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreatesFileWhenAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	store, err := Load(path)
	require.NoError(t, err)

	err = store.SetDatabaseURL("postgres://farmer@dpg-1.example.com/farms")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `DATABASE_URL="postgres://farmer@dpg-1.example.com/farms"`)
}

func TestStorePreservesExistingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	err := os.WriteFile(path, []byte("APP_ENVIRONMENT=production\nDATABASE_URL=postgres://old\n"), 0600)
	require.NoError(t, err)

	store, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://old", store.Get(DatabaseURLKey))

	err = store.SetDatabaseURL("postgres://new")
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://new", reloaded.Get(DatabaseURLKey))
	assert.Equal(t, "production", reloaded.Get("APP_ENVIRONMENT"))
}

func TestStoreDoesNotTouchProcessEnvironment(t *testing.T) {
	require.NoError(t, os.Unsetenv(DatabaseURLKey))
	path := filepath.Join(t.TempDir(), ".env")

	store, err := Load(path)
	require.NoError(t, err)

	err = store.SetDatabaseURL("postgres://explicit")
	require.NoError(t, err)

	_, present := os.LookupEnv(DatabaseURLKey)
	assert.False(t, present)
}
