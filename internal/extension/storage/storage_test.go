package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysagnik/chikki/internal/extension/protocol"
)

func stores(t *testing.T) map[string]Store {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := LoadSession(ctx, s)
			require.NoError(t, err)
			assert.False(t, ok)

			user := protocol.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "admin", Usage: 3}
			require.NoError(t, SaveSession(ctx, s, "tok", user))

			sess, ok, err := LoadSession(ctx, s)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "tok", sess.Token)
			assert.Equal(t, user, sess.User)

			require.NoError(t, ClearSession(ctx, s))
			_, ok, err = LoadSession(ctx, s)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSaveUserKeepsRole(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, map[string][]byte{
				KeyAuthToken: []byte(`"tok"`),
				KeyUser:      []byte(`{"id":"u1","name":"A","email":"a@b.c","role":"admin","usage":3}`),
			}))

			sess, ok, err := LoadSession(ctx, s)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "admin", sess.User.Role)

			require.NoError(t, SaveUser(ctx, s, sess.User))

			items, err := s.Get(ctx, KeyUser)
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"u1","name":"A","email":"a@b.c","role":"admin","usage":3}`, string(items[KeyUser]))
		})
	}
}

func TestSessionRequiresBothKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, map[string][]byte{KeyAuthToken: []byte(`"tok"`)}))
			_, ok, err := LoadSession(ctx, s)
			require.NoError(t, err)
			assert.False(t, ok)

			token, err := LoadToken(ctx, s)
			require.NoError(t, err)
			assert.Equal(t, "tok", token)
		})
	}
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, SaveSession(ctx, first, "tok", protocol.User{Name: "Ada"}))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	sess, ok, err := LoadSession(ctx, second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada", sess.User.Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, filepath.Join(dir, stateFile), first.Path())
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte("{not json"), 0o600))

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = s.Get(context.Background())
	assert.Error(t, err)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte(`"a"`)
	require.NoError(t, s.Set(ctx, map[string][]byte{"k": v}))
	v[1] = 'b'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"a"`, string(got["k"]))
}
