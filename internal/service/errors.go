package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownUser          = errors.New("user not found")
	ErrUnknownComparison    = errors.New("comparison not found")
	ErrImageNotInComparison = errors.New("image not found for requested comparison")
	ErrExhausted            = errors.New("no comparison available for user")
	ErrNoCategories         = errors.New("no comparisons available")
	ErrIDSpaceExhausted     = errors.New("could not allocate a free comparison id")
	ErrUnauthorized         = errors.New("unauthorized")
)

// FileSystemError wraps a failure to enumerate the catalog.
type FileSystemError struct {
	Err error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("scan catalog: %v", e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// InsufficientFilesError names a category holding fewer than two images.
type InsufficientFilesError struct {
	Dirname string
	Count   int
}

func (e *InsufficientFilesError) Error() string {
	return fmt.Sprintf("not enough files in category %q: found %d, minimum 2 needed", e.Dirname, e.Count)
}
