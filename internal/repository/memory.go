package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/film-catalog/internal/model"
)

// MemoryStore is an in-process FilmStore and CategoryStore. It backs the
// server when STORE=memory and the HTTP tests. Mutations hold the write
// lock for their whole duration, so they are all-or-nothing like the MySQL
// transactions.
type MemoryStore struct {
	mu         sync.RWMutex
	films      map[uint64]model.Film // Categories left empty; see links
	categories map[uint64]model.Category
	links      map[uint64][]uint64 // film id -> category ids
	nextFilm   uint64
	nextCat    uint64
}

// NewMemoryStore returns a store pre-populated with the named categories,
// numbered from 1.
func NewMemoryStore(categoryNames ...string) *MemoryStore {
	s := &MemoryStore{
		films:      map[uint64]model.Film{},
		categories: map[uint64]model.Category{},
		links:      map[uint64][]uint64{},
	}
	for _, name := range categoryNames {
		s.nextCat++
		s.categories[s.nextCat] = model.Category{ID: s.nextCat, Name: name}
	}
	return s
}

var (
	_ FilmStore     = (*MemoryStore)(nil)
	_ CategoryStore = (*MemoryStore)(nil)
	_ FilmStore     = (*FilmRepo)(nil)
	_ CategoryStore = (*CategoryRepo)(nil)
)

// withCategories must be called with mu held.
func (s *MemoryStore) withCategories(f model.Film) model.Film {
	ids := append([]uint64(nil), s.links[f.ID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	f.Categories = nil
	for _, id := range ids {
		f.Categories = append(f.Categories, s.categories[id])
	}
	if f.Note != nil {
		n := *f.Note
		f.Note = &n
	}
	return f
}

// checkCategories must be called with mu held.
func (s *MemoryStore) checkCategories(ids []uint64) ([]uint64, error) {
	ids = uniqueIDs(ids)
	for _, id := range ids {
		if _, ok := s.categories[id]; !ok {
			return nil, &MissingCategoryError{ID: id}
		}
	}
	return ids, nil
}

func (flt FilmFilter) matches(f model.Film) bool {
	if flt.Title != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(flt.Title)) {
		return false
	}
	if flt.Description != "" && !strings.Contains(strings.ToLower(f.Description), strings.ToLower(flt.Description)) {
		return false
	}
	return true
}

// sortedFilms must be called with mu held.
func (s *MemoryStore) sortedFilms(keep func(model.Film) bool) []model.Film {
	out := []model.Film{}
	for _, f := range s.films {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// window must be called with mu held.
func (s *MemoryStore) window(films []model.Film, limit, offset int) []model.Film {
	if offset >= len(films) {
		return []model.Film{}
	}
	end := offset + limit
	if end > len(films) {
		end = len(films)
	}
	out := make([]model.Film, 0, end-offset)
	for _, f := range films[offset:end] {
		out = append(out, s.withCategories(f))
	}
	return out
}

func (s *MemoryStore) GetFilm(_ context.Context, id uint64) (*model.Film, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.films[id]
	if !ok {
		return nil, ErrFilmNotFound
	}
	f = s.withCategories(f)
	return &f, nil
}

func (s *MemoryStore) CountFilms(_ context.Context, flt FilmFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sortedFilms(flt.matches)), nil
}

func (s *MemoryStore) ListFilms(_ context.Context, flt FilmFilter, limit, offset int) ([]model.Film, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window(s.sortedFilms(flt.matches), limit, offset), nil
}

func (s *MemoryStore) CreateFilm(_ context.Context, film *model.Film, categoryIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.checkCategories(categoryIDs)
	if err != nil {
		return err
	}
	s.nextFilm++
	stored := *film
	stored.ID = s.nextFilm
	stored.Categories = nil
	if stored.Note != nil {
		n := *stored.Note
		stored.Note = &n
	}
	s.films[stored.ID] = stored
	if len(ids) > 0 {
		s.links[stored.ID] = ids
	}
	*film = s.withCategories(stored)
	return nil
}

func (s *MemoryStore) UpdateFilm(_ context.Context, id uint64, p FilmPatch) (*model.Film, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.films[id]
	if !ok {
		return nil, ErrFilmNotFound
	}
	var ids []uint64
	if p.Categories != nil {
		var err error
		if ids, err = s.checkCategories(*p.Categories); err != nil {
			return nil, err
		}
	}
	p.apply(&f)
	s.films[id] = f
	if p.Categories != nil {
		s.links[id] = ids
	}
	out := s.withCategories(f)
	return &out, nil
}

func (s *MemoryStore) DeleteFilm(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.films[id]; !ok {
		return ErrFilmNotFound
	}
	delete(s.films, id)
	delete(s.links, id)
	return nil
}

func (s *MemoryStore) CategoriesOfFilm(_ context.Context, filmID uint64) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.films[filmID]
	if !ok {
		return nil, ErrFilmNotFound
	}
	cats := s.withCategories(f).Categories
	if cats == nil {
		cats = []model.Category{}
	}
	return cats, nil
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id uint64) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return &c, nil
}

// inCategory must be called with mu held.
func (s *MemoryStore) inCategory(categoryID uint64) func(model.Film) bool {
	return func(f model.Film) bool {
		for _, id := range s.links[f.ID] {
			if id == categoryID {
				return true
			}
		}
		return false
	}
}

func (s *MemoryStore) CountFilmsOfCategory(_ context.Context, categoryID uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sortedFilms(s.inCategory(categoryID))), nil
}

func (s *MemoryStore) FilmsOfCategory(_ context.Context, categoryID uint64, limit, offset int) ([]model.Film, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window(s.sortedFilms(s.inCategory(categoryID)), limit, offset), nil
}
