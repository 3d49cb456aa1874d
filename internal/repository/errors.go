// Package repository defines error types that are reused across the film
// and category stores. These sentinel values allow handlers to map a
// failure to a status code without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"
)

// ErrFilmNotFound is returned when no film has the requested id.
var ErrFilmNotFound = errors.New("film not found")

// ErrCategoryNotFound is returned when no category has the requested id.
var ErrCategoryNotFound = errors.New("category not found")

// MissingCategoryError reports a category id referenced by a film mutation
// that does not exist. The mutation is rolled back as a whole. It matches
// ErrCategoryNotFound with errors.Is.
type MissingCategoryError struct {
	ID uint64
}

func (e *MissingCategoryError) Error() string {
	return fmt.Sprintf("category %d not found", e.ID)
}

func (e *MissingCategoryError) Is(target error) bool {
	return target == ErrCategoryNotFound
}
