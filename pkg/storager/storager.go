package storager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	// _ "go.beyondstorage.io/services/azblob/v3"
	// _ "go.beyondstorage.io/services/gcs/v3"
	_ "go.beyondstorage.io/services/minio"
	_ "go.beyondstorage.io/services/s3/v3"

	"github.com/spf13/afero"
	"go.beyondstorage.io/v5/services"
	"go.beyondstorage.io/v5/types"
)

const fsScheme = "fs"

var (
	ErrEmptyConnection   = errors.New("storage connection string is empty")
	ErrInvalidConnection = errors.New("invalid storage connection")
)

// Store is the part of a storage service archives are uploaded through.
// types.Storager satisfies it.
type Store interface {
	WriteWithContext(ctx context.Context, path string, r io.Reader, size int64, pairs ...types.Pair) (int64, error)
}

// New builds a store from a connection string. "fs:///abs/dir" publishes
// into a local directory; anything else goes to a registered beyondstorage
// service, e.g. "s3://bucket?credential=hmac:key:secret".
func New(connStr string) (Store, error) {
	if connStr == "" {
		return nil, ErrEmptyConnection
	}

	ty := serviceType(connStr)
	if ty == fsScheme {
		root := strings.TrimPrefix(connStr, fsScheme+"://")
		root, _, _ = strings.Cut(root, "?")
		if root == "" {
			return nil, &connectionError{service: ty, cause: errors.New("missing directory")}
		}
		if !filepath.IsAbs(root) {
			return nil, &connectionError{service: ty, cause: errors.New("directory must be absolute")}
		}
		return NewFileSystemStore(afero.NewOsFs(), root), nil
	}

	store, err := services.NewStoragerFromString(connStr)
	if err != nil {
		return nil, &connectionError{service: ty, cause: err}
	}

	return store, nil
}

// connectionError keeps the connection string, which may carry credentials,
// out of its message while still unwrapping to the service error.
type connectionError struct {
	service string
	cause   error
}

func (e *connectionError) Error() string {
	return fmt.Sprintf("%v for service %q", ErrInvalidConnection, e.service)
}

func (e *connectionError) Unwrap() []error {
	return []error{ErrInvalidConnection, e.cause}
}

func serviceType(connStr string) string {
	ty, _, found := strings.Cut(connStr, "://")
	if !found {
		return "unknown"
	}
	return ty
}
