package publisher_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.beyondstorage.io/v5/types"

	"github.com/flowshot-io/botzip/pkg/logger"
	"github.com/flowshot-io/botzip/pkg/publisher"
)

type memoryStore struct {
	objects map[string][]byte
	sizes   map[string]int64
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects: make(map[string][]byte),
		sizes:   make(map[string]int64),
	}
}

func (s *memoryStore) WriteWithContext(ctx context.Context, path string, r io.Reader, size int64, pairs ...types.Pair) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	s.objects[path] = data
	s.sizes[path] = size
	return int64(len(data)), nil
}

func TestNew(t *testing.T) {
	_, err := publisher.New(publisher.Options{})
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	t.Run("Uploads archive to remote path", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/build/bot.zip", []byte("zipdata"), 0o644))

		store := newMemoryStore()
		p, err := publisher.New(publisher.Options{Store: store, Fs: fs, Logger: logger.NoOp()})
		require.NoError(t, err)

		require.NoError(t, p.Publish(context.Background(), "/build/bot.zip", "releases/bot.zip"))

		assert.Equal(t, []byte("zipdata"), store.objects["releases/bot.zip"])
		assert.Equal(t, int64(7), store.sizes["releases/bot.zip"])
	})

	t.Run("Defaults remote path to base name", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/build/bot.zip", []byte("zipdata"), 0o644))

		store := newMemoryStore()
		p, err := publisher.New(publisher.Options{Store: store, Fs: fs, Logger: logger.NoOp()})
		require.NoError(t, err)

		require.NoError(t, p.Publish(context.Background(), "/build/bot.zip", ""))

		assert.Contains(t, store.objects, "bot.zip")
	})

	t.Run("Missing archive", func(t *testing.T) {
		p, err := publisher.New(publisher.Options{Store: newMemoryStore(), Fs: afero.NewMemMapFs(), Logger: logger.NoOp()})
		require.NoError(t, err)

		assert.Error(t, p.Publish(context.Background(), "/build/bot.zip", ""))
	})

	t.Run("Store failure", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/build/bot.zip", []byte("zipdata"), 0o644))

		errDenied := errors.New("access denied")
		store := newMemoryStore()
		store.err = errDenied

		p, err := publisher.New(publisher.Options{Store: store, Fs: fs, Logger: logger.NoOp()})
		require.NoError(t, err)

		err = p.Publish(context.Background(), "/build/bot.zip", "")
		assert.True(t, errors.Is(err, errDenied))
	})
}
