package publisher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/flowshot-io/botzip/pkg/logger"
	"github.com/flowshot-io/botzip/pkg/storager"
)

// Options holds the configuration for the publisher.
type Options struct {
	Store  storager.Store
	Fs     afero.Fs
	Logger logger.Logger
}

// Publisher uploads finished archives to a storage service.
type Publisher struct {
	store  storager.Store
	fs     afero.Fs
	logger logger.Logger
}

// New returns a new Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	if opts.Logger == nil {
		opts.Logger = logger.NoOp()
	}

	return &Publisher{
		store:  opts.Store,
		fs:     opts.Fs,
		logger: opts.Logger,
	}, nil
}

// Publish uploads the local archive to remotePath. An empty remotePath uses
// the archive's base name.
func (p *Publisher) Publish(ctx context.Context, localPath string, remotePath string) error {
	if remotePath == "" {
		remotePath = filepath.Base(localPath)
	}

	file, err := p.fs.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get archive stat: %w", err)
	}

	n, err := p.store.WriteWithContext(ctx, remotePath, file, stat.Size())
	if err != nil {
		p.logger.Error("Failed to publish archive", map[string]interface{}{
			"path":  remotePath,
			"error": err.Error(),
		})
		return fmt.Errorf("failed to write archive: %w", err)
	}

	p.logger.Info("Archive published", map[string]interface{}{
		"path":  remotePath,
		"bytes": n,
	})

	return nil
}
