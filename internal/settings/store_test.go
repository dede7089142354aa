package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobfilter-automation/internal/config"
)

func TestFileStore_Load(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
includeKeywords: "golang, backend"
locationRequirements: "Remote, Ho Chi Minh"
maxListingsPerPage: 10
maxPages: 2
classifierApiKey: sk-file
destinationId: sheet-123
`), 0600))

	st, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "golang, backend", st.IncludeKeywords)
	assert.Equal(t, "Remote, Ho Chi Minh", st.LocationRequirements)
	assert.Equal(t, 10, st.MaxListingsPerPage)
	assert.Equal(t, 2, st.MaxPages)
	assert.Equal(t, "sk-file", st.ClassifierAPIKey)
	assert.Equal(t, "sheet-123", st.DestinationID)
}

func TestFileStore_EnvOverridesKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "sk-env")
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classifierApiKey: sk-file\n"), 0600))

	st, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-env", st.ClassifierAPIKey)
}

func TestFileStore_MissingFile(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	st, err := NewFileStore(filepath.Join(t.TempDir(), "none.yaml")).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.Settings{}, st)
}

func TestFileStore_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxPages: [oops"), 0600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_SaveRoundTrip(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	want := config.Settings{IncludeKeywords: "go", MaxPages: 4}
	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_SaveKeepsStoredKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, config.Settings{IncludeKeywords: "go", ClassifierAPIKey: "sk-file"}))

	require.NoError(t, store.Save(ctx, config.Settings{IncludeKeywords: "rust"}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rust", got.IncludeKeywords)
	assert.Equal(t, "sk-file", got.ClassifierAPIKey)
}

func TestFileStore_SaveDoesNotPersistEnvKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "sk-env")
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store := NewFileStore(path)

	require.NoError(t, store.Save(context.Background(), config.Settings{MaxPages: 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-env")
}
