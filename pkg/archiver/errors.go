package archiver

import (
	"errors"
	"fmt"
)

var (
	ErrPathResolution = errors.New("resolving path")
	ErrCreate         = errors.New("creating archive")
	ErrEntry          = errors.New("adding entry")
	ErrFinalize       = errors.New("finalizing archive")
	ErrReplace        = errors.New("replacing destination")
	ErrOpen           = errors.New("opening archive")
)

// Error records which step failed and the path it failed on. Both Kind and
// the underlying error match with errors.Is.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
