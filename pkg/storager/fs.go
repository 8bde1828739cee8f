package storager

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"go.beyondstorage.io/v5/types"
)

// FileSystemStore publishes into a directory on a local filesystem.
type FileSystemStore struct {
	Root        string
	fs          afero.Fs
	pathMutexes sync.Map
}

func NewFileSystemStore(fs afero.Fs, root string) *FileSystemStore {
	return &FileSystemStore{Root: root, fs: fs}
}

// WriteWithContext writes r to path under Root, creating parent directories.
// The object becomes visible under its final name only once fully written.
func (s *FileSystemStore) WriteWithContext(ctx context.Context, path string, r io.Reader, size int64, pairs ...types.Pair) (int64, error) {
	mu := s.getMutexForPath(path)
	mu.Lock()
	defer mu.Unlock()

	fullPath := filepath.Join(s.Root, path)
	if err := s.fs.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return 0, err
	}

	file, err := afero.TempFile(s.fs, filepath.Dir(fullPath), "."+filepath.Base(fullPath)+"-*")
	if err != nil {
		return 0, err
	}
	tmpPath := file.Name()

	n, err := io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.fs.Remove(tmpPath)
		return n, err
	}

	if err := s.fs.Rename(tmpPath, fullPath); err != nil {
		s.fs.Remove(tmpPath)
		return n, err
	}

	return n, nil
}

func (s *FileSystemStore) getMutexForPath(path string) *sync.RWMutex {
	mu, _ := s.pathMutexes.LoadOrStore(path, &sync.RWMutex{})
	return mu.(*sync.RWMutex)
}
