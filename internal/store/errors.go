package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")

	ErrUsernameTaken = fmt.Errorf("%w: username", ErrConflict)
	ErrEmailTaken    = fmt.Errorf("%w: email", ErrConflict)
)

// PostFilter narrows ListPosts. A nil Authors slice means any author; an
// empty non-nil slice matches nothing.
type PostFilter struct {
	Authors []string
	LikedBy string
}
