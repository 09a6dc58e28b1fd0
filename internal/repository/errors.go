package repository

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrComparisonNotFound = errors.New("comparison not found")
	ErrVoteNotFound       = errors.New("vote not found")

	// ErrIDTaken is returned by InsertIfAbsent when the identifier belongs to
	// a different comparison. Callers retry with a fresh identifier.
	ErrIDTaken = errors.New("comparison id already taken")
)
