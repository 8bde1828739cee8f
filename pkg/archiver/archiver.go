package archiver

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archiver/v3"
	"github.com/spf13/afero"

	"github.com/flowshot-io/botzip/pkg/logger"
)

const archiveMode = 0o644

type (
	// Summary describes a finished archive.
	Summary struct {
		Files int
		Bytes int64
	}

	// Entry is one stored file as read back from an archive.
	Entry struct {
		Name     string
		Size     int64
		CRC32    uint32
		Modified time.Time
	}

	Options struct {
		Fs     afero.Fs
		Logger logger.Logger
	}

	// Archiver packs a directory tree into a zip file.
	Archiver struct {
		fs     afero.Fs
		logger logger.Logger
	}
)

// New creates an Archiver. A nil Options uses the OS filesystem and a no-op logger.
func New(opts *Options) *Archiver {
	if opts == nil {
		opts = &Options{}
	}

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	if opts.Logger == nil {
		opts.Logger = logger.NoOp()
	}

	return &Archiver{
		fs:     opts.Fs,
		logger: opts.Logger,
	}
}

// Archive writes every regular file under sourceRoot into a zip archive at
// destination, named by its slash-separated path relative to sourceRoot.
// Symlinks to regular files are stored with the target's content; symlinks
// to directories are not followed.
//
// The archive is built in a staging file beside destination and renamed over
// it only once complete, so a failed run leaves any previous archive in place.
// A missing sourceRoot produces an empty archive.
func (a *Archiver) Archive(sourceRoot string, destination string) (*Summary, error) {
	root, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, &Error{Kind: ErrPathResolution, Path: sourceRoot, Err: err}
	}

	dest, err := filepath.Abs(destination)
	if err != nil {
		return nil, &Error{Kind: ErrPathResolution, Path: destination, Err: err}
	}

	staging, err := afero.TempFile(a.fs, filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return nil, &Error{Kind: ErrCreate, Path: dest, Err: err}
	}
	stagingPath := staging.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		staging.Close()
		if err := a.fs.Remove(stagingPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("Failed to remove staging file", map[string]interface{}{
				"path":  stagingPath,
				"error": err.Error(),
			})
		}
	}()

	a.logger.Debug("Archiving directory", map[string]interface{}{
		"source":      root,
		"destination": dest,
		"staging":     stagingPath,
	})

	z := archiver.NewZip()
	if err := z.Create(staging); err != nil {
		return nil, &Error{Kind: ErrCreate, Path: dest, Err: err}
	}

	summary := &Summary{}
	err = afero.Walk(a.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				a.logger.Warn("Source directory does not exist, archive will be empty", map[string]interface{}{
					"source": root,
				})
				return nil
			}
			return &Error{Kind: ErrEntry, Path: path, Err: err}
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := a.fs.Stat(path)
			if err != nil {
				return &Error{Kind: ErrEntry, Path: path, Err: err}
			}
			if !target.Mode().IsRegular() {
				a.logger.Debug("Skipping symlink to non-regular file", map[string]interface{}{
					"path": path,
				})
				return nil
			}
			info = target
		}

		if !info.Mode().IsRegular() {
			if !info.IsDir() {
				a.logger.Debug("Skipping non-regular file", map[string]interface{}{
					"path": path,
					"mode": info.Mode().String(),
				})
			}
			return nil
		}

		if path == stagingPath || path == dest {
			return nil
		}

		name, err := localName(root, path)
		if err != nil {
			return &Error{Kind: ErrEntry, Path: path, Err: err}
		}

		if err := a.addFile(z, path, name, info); err != nil {
			return err
		}

		a.logger.Trace("Added entry", map[string]interface{}{
			"name": name,
			"size": info.Size(),
		})

		summary.Files++
		summary.Bytes += info.Size()
		return nil
	})
	if err != nil {
		z.Close()
		return nil, err
	}

	if err := z.Close(); err != nil {
		return nil, &Error{Kind: ErrFinalize, Path: dest, Err: err}
	}

	if err := staging.Close(); err != nil {
		return nil, &Error{Kind: ErrFinalize, Path: dest, Err: err}
	}

	if err := a.fs.Chmod(stagingPath, archiveMode); err != nil {
		return nil, &Error{Kind: ErrFinalize, Path: dest, Err: err}
	}

	if err := a.fs.Rename(stagingPath, dest); err != nil {
		return nil, &Error{Kind: ErrReplace, Path: dest, Err: err}
	}
	committed = true

	a.logger.Info("Archive written", map[string]interface{}{
		"destination": dest,
		"files":       summary.Files,
		"bytes":       summary.Bytes,
	})

	return summary, nil
}

// List returns the entries stored in the zip archive at path, in stored order.
func (a *Archiver) List(path string) ([]Entry, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, &Error{Kind: ErrOpen, Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &Error{Kind: ErrOpen, Path: path, Err: err}
	}

	z := archiver.NewZip()
	if err := z.Open(f, info.Size()); err != nil {
		return nil, &Error{Kind: ErrOpen, Path: path, Err: err}
	}
	defer z.Close()

	var entries []Entry
	for {
		file, err := z.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{Kind: ErrOpen, Path: path, Err: err}
		}
		file.Close()

		var header zip.FileHeader
		switch h := file.Header.(type) {
		case zip.FileHeader:
			header = h
		case *zip.FileHeader:
			header = *h
		default:
			return nil, &Error{Kind: ErrOpen, Path: path, Err: fmt.Errorf("unexpected header type %T for %s", file.Header, file.Name())}
		}

		entries = append(entries, Entry{
			Name:     header.Name,
			Size:     int64(header.UncompressedSize64),
			CRC32:    header.CRC32,
			Modified: header.Modified,
		})
	}

	return entries, nil
}

func (a *Archiver) addFile(z *archiver.Zip, path string, name string, info os.FileInfo) error {
	file, err := a.fs.Open(path)
	if err != nil {
		return &Error{Kind: ErrEntry, Path: path, Err: err}
	}
	defer file.Close()

	err = z.Write(archiver.File{
		FileInfo: archiver.FileInfo{
			FileInfo:   info,
			CustomName: name,
		},
		ReadCloser: file,
	})
	if err != nil {
		return &Error{Kind: ErrEntry, Path: path, Err: err}
	}

	return nil
}

// localName is path relative to root with forward slashes. A root that is
// itself a file is stored under its base name.
func localName(root string, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}

	if rel == "." {
		rel = filepath.Base(path)
	}

	return filepath.ToSlash(rel), nil
}
