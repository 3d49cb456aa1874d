package repository

import (
	"context"
	"time"

	"github.com/iliyamo/film-catalog/internal/model"
)

// FilmFilter narrows a film listing. Empty fields do not filter; non-empty
// fields are case-insensitive substring matches combined with AND.
type FilmFilter struct {
	Title       string // matched against films.name
	Description string // matched against films.description
}

// FilmPatch carries a partial update. Nil fields keep their stored value.
// A non-nil Categories replaces the whole category set, an empty slice
// clears it. ClearNote sets the note to NULL and takes precedence over Note.
type FilmPatch struct {
	Name            *string
	Description     *string
	PublicationDate *time.Time
	Note            *int
	ClearNote       bool
	Categories      *[]uint64
}

// FilmStore is the persistence capability the film handlers depend on.
// FilmRepo (MySQL) and MemoryStore implement it.
type FilmStore interface {
	GetFilm(ctx context.Context, id uint64) (*model.Film, error)
	ListFilms(ctx context.Context, f FilmFilter, limit, offset int) ([]model.Film, error)
	CountFilms(ctx context.Context, f FilmFilter) (int, error)
	CreateFilm(ctx context.Context, film *model.Film, categoryIDs []uint64) error
	UpdateFilm(ctx context.Context, id uint64, p FilmPatch) (*model.Film, error)
	DeleteFilm(ctx context.Context, id uint64) error
	CategoriesOfFilm(ctx context.Context, filmID uint64) ([]model.Category, error)
}

// CategoryStore is the persistence capability the category handlers
// depend on.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uint64) (*model.Category, error)
	FilmsOfCategory(ctx context.Context, categoryID uint64, limit, offset int) ([]model.Film, error)
	CountFilmsOfCategory(ctx context.Context, categoryID uint64) (int, error)
}

// uniqueIDs drops duplicates while keeping first-seen order.
func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
