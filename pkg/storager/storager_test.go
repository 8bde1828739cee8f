package storager_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowshot-io/botzip/pkg/storager"
)

func TestNew(t *testing.T) {
	t.Run("Empty connection", func(t *testing.T) {
		_, err := storager.New("")
		assert.True(t, errors.Is(err, storager.ErrEmptyConnection))
	})

	t.Run("Unregistered service", func(t *testing.T) {
		_, err := storager.New("nosuchservice://bucket?credential=hmac:key:secret")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storager.ErrInvalidConnection))
		assert.Contains(t, err.Error(), "nosuchservice")
		assert.NotContains(t, err.Error(), "secret")
	})

	t.Run("Local directory", func(t *testing.T) {
		dir := t.TempDir()
		store, err := storager.New("fs://" + dir)
		require.NoError(t, err)

		_, err = store.WriteWithContext(context.Background(), "releases/bot.zip", strings.NewReader("zipdata"), 7)
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "releases", "bot.zip"))
		require.NoError(t, err)
		assert.Equal(t, "zipdata", string(data))
	})

	t.Run("Local directory must be absolute", func(t *testing.T) {
		_, err := storager.New("fs://releases/bot")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storager.ErrInvalidConnection))
	})

	t.Run("Local directory missing path", func(t *testing.T) {
		_, err := storager.New("fs://")
		assert.True(t, errors.Is(err, storager.ErrInvalidConnection))
	})
}

func TestFileSystemStore(t *testing.T) {
	t.Run("Overwrites existing object", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		store := storager.NewFileSystemStore(fs, "/releases")

		_, err := store.WriteWithContext(context.Background(), "bot.zip", strings.NewReader("old"), 3)
		require.NoError(t, err)
		n, err := store.WriteWithContext(context.Background(), "bot.zip", strings.NewReader("newer"), 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		data, err := afero.ReadFile(fs, "/releases/bot.zip")
		require.NoError(t, err)
		assert.Equal(t, "newer", string(data))

		infos, err := afero.ReadDir(fs, "/releases")
		require.NoError(t, err)
		assert.Len(t, infos, 1)
	})
}
