package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	_, err := Open(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenEmptyDir(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestSetGetDelete(t *testing.T) {
	s := newStore(t)

	_, ok, err := s.Get(KeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyCurrentUser, `{"id":1}`))

	value, ok, err := s.Get(KeyCurrentUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, value)

	require.NoError(t, s.Delete(KeyCurrentUser))
	_, ok, err = s.Get(KeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is a no-op.
	require.NoError(t, s.Delete(KeyCurrentUser))
}

func TestSetOverwrites(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Set(KeyDarkMode, "true"))
	require.NoError(t, s.Set(KeyDarkMode, "false"))

	value, ok, err := s.Get(KeyDarkMode)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "false", value)
}

func TestInvalidKeyRejected(t *testing.T) {
	s := newStore(t)

	assert.Error(t, s.Set("../escape", "x"))
	assert.Error(t, s.Delete(""))
	_, _, err := s.Get(`bad\key`)
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	s := newStore(t)

	assert.Equal(t, "", s.Token())
	require.NoError(t, s.SetToken("abc"))
	assert.Equal(t, "abc", s.Token())

	require.NoError(t, s.Delete(KeyAuthToken))
	assert.Equal(t, "", s.Token())
}
