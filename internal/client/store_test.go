package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"storefront_accounts/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRaw(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	return raw
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)

	want := Snapshot{Token: "tok", User: &model.AccountView{ID: "1", Username: "jane", Email: "jane@x.com"}}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_MigratesLegacyKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "object user",
			content: `{"userToken":"legacy-tok","userInfo":{"id":"1","username":"jane","email":"jane@x.com"}}`,
		},
		{
			name:    "string encoded user",
			content: `{"userToken":"legacy-tok","userInfo":"{\"id\":\"1\",\"username\":\"jane\",\"email\":\"jane@x.com\"}"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			snap, err := NewFileStore(path).Load()
			require.NoError(t, err)
			assert.Equal(t, "legacy-tok", snap.Token)
			require.NotNil(t, snap.User)
			assert.Equal(t, "jane", snap.User.Username)

			raw := readRaw(t, path)
			assert.Contains(t, raw, "token")
			assert.Contains(t, raw, "user")
			assert.NotContains(t, raw, "userToken")
			assert.NotContains(t, raw, "userInfo")
		})
	}
}

func TestFileStore_CurrentKeysWinOverLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	content := `{"token":"new-tok","user":{"id":"2","username":"janed","email":"j@x.com"},"userToken":"old-tok"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	snap, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "new-tok", snap.Token)
	assert.NotContains(t, readRaw(t, path), "userToken")
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.ErrorContains(t, err, "failed to parse session file")
}
