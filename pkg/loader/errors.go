package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrIncludeCycle is returned when a file includes itself, directly or
	// through other files.
	ErrIncludeCycle = errors.New("include cycle")

	// ErrUnsupported is returned for entry files of an unknown format.
	ErrUnsupported = errors.New("unsupported file type")
)

// LoadError reports a definition file that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
