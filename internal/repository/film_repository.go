// Package repository contains data access logic separated from HTTP handlers.
// This file defines FilmRepo, the MySQL implementation of FilmStore.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/film-catalog/internal/model"
)

const (
	filmColumns = "f.id, f.name, f.description, f.publication_date, f.note"
	qInsertFilm = "INSERT INTO films (name, description, publication_date, note) VALUES (?, ?, ?, ?)"
	qUpdateFilm = "UPDATE films SET name = ?, description = ?, publication_date = ?, note = ? WHERE id = ?"
)

// likeEscaper makes the LIKE wildcards in user input match literally. '!'
// is the escape character so the pattern does not depend on the
// NO_BACKSLASH_ESCAPES sql_mode.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern is the LIKE argument for a case-insensitive substring match.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// FilmRepo encapsulates all database queries related to films and their
// category assignments.
type FilmRepo struct {
	db *sql.DB
}

// NewFilmRepo constructs a FilmRepo with the provided DB handle.
func NewFilmRepo(db *sql.DB) *FilmRepo {
	return &FilmRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFilm(s rowScanner, f *model.Film) error {
	var note sql.NullInt64
	if err := s.Scan(&f.ID, &f.Name, &f.Description, &f.PublicationDate, &note); err != nil {
		return err
	}
	if note.Valid {
		n := int(note.Int64)
		f.Note = &n
	}
	return nil
}

func noteArg(note *int) any {
	if note == nil {
		return nil
	}
	return *note
}

// GetFilm fetches a film and its categories. It returns ErrFilmNotFound if
// no row matches.
func (r *FilmRepo) GetFilm(ctx context.Context, id uint64) (*model.Film, error) {
	f, err := getFilm(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	cats, err := loadCategories(ctx, r.db, []uint64{f.ID})
	if err != nil {
		return nil, err
	}
	f.Categories = cats[f.ID]
	return f, nil
}

func getFilm(ctx context.Context, q queryer, id uint64, forUpdate bool) (*model.Film, error) {
	query := "SELECT " + filmColumns + " FROM films f WHERE f.id = ?"
	if forUpdate {
		query += " FOR UPDATE"
	}
	var f model.Film
	if err := scanFilm(q.QueryRowContext(ctx, query, id), &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}
	return &f, nil
}

// where renders the filter as a SQL condition over the alias f.
func (flt FilmFilter) where() (string, []any) {
	var conds []string
	var args []any
	if flt.Title != "" {
		conds = append(conds, "LOWER(f.name) LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(flt.Title))
	}
	if flt.Description != "" {
		conds = append(conds, "LOWER(f.description) LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(flt.Description))
	}
	if len(conds) == 0 {
		return "1=1", nil
	}
	return strings.Join(conds, " AND "), args
}

// CountFilms returns the number of films matching f.
func (r *FilmRepo) CountFilms(ctx context.Context, f FilmFilter) (int, error) {
	cond, args := f.where()
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM films f WHERE "+cond, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListFilms returns one window of the films matching f ordered by id, each
// with its categories.
func (r *FilmRepo) ListFilms(ctx context.Context, f FilmFilter, limit, offset int) ([]model.Film, error) {
	cond, args := f.where()
	q := "SELECT " + filmColumns + " FROM films f WHERE " + cond + " ORDER BY f.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return queryFilms(ctx, r.db, q, args...)
}

// queryFilms runs a film SELECT and attaches categories with one batched query.
func queryFilms(ctx context.Context, q queryer, query string, args ...any) ([]model.Film, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Film{}
	var ids []uint64
	for rows.Next() {
		var f model.Film
		if err := scanFilm(rows, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	cats, err := loadCategories(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Categories = cats[out[i].ID]
	}
	return out, nil
}

// loadCategories maps each film id to its categories ordered by id.
func loadCategories(ctx context.Context, q queryer, filmIDs []uint64) (map[uint64][]model.Category, error) {
	query := `SELECT fc.film_id, c.id, c.name
	          FROM film_categories fc
	          JOIN categories c ON c.id = fc.category_id
	          WHERE fc.film_id IN (` + placeholders(len(filmIDs)) + `)
	          ORDER BY fc.film_id, c.id`
	rows, err := q.QueryContext(ctx, query, idArgs(filmIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][]model.Category, len(filmIDs))
	for rows.Next() {
		var filmID uint64
		var c model.Category
		if err := rows.Scan(&filmID, &c.ID, &c.Name); err != nil {
			return nil, err
		}
		out[filmID] = append(out[filmID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateFilm inserts the film and its category assignments in one
// transaction. On success film.ID and film.Categories are populated. If a
// category id does not exist a *MissingCategoryError is returned and
// nothing is written.
func (r *FilmRepo) CreateFilm(ctx context.Context, film *model.Film, categoryIDs []uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, qInsertFilm,
			film.Name, film.Description, film.PublicationDate.Format(model.DateLayout), noteArg(film.Note))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		cats, err := assignCategories(ctx, tx, uint64(id), categoryIDs)
		if err != nil {
			return err
		}
		film.ID = uint64(id)
		film.Categories = cats
		return nil
	})
}

// assignCategories links filmID to every id in categoryIDs after checking
// that all of them exist. It returns the linked categories ordered by id.
func assignCategories(ctx context.Context, tx *sql.Tx, filmID uint64, categoryIDs []uint64) ([]model.Category, error) {
	ids := uniqueIDs(categoryIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, name FROM categories WHERE id IN ("+placeholders(len(ids))+") ORDER BY id", idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	var cats []model.Category
	found := make(map[uint64]bool, len(ids))
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			rows.Close()
			return nil, err
		}
		found[c.ID] = true
		cats = append(cats, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !found[id] {
			return nil, &MissingCategoryError{ID: id}
		}
	}

	values := make([]string, 0, len(ids))
	args := make([]any, 0, 2*len(ids))
	for _, id := range ids {
		values = append(values, "(?, ?)")
		args = append(args, filmID, id)
	}
	q := "INSERT INTO film_categories (film_id, category_id) VALUES " + strings.Join(values, ",")
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	return cats, nil
}

// UpdateFilm applies p to the film inside one transaction. When
// p.Categories is set the existing assignments are cleared and replaced;
// a missing category id rolls back the whole update. The updated film is
// returned.
func (r *FilmRepo) UpdateFilm(ctx context.Context, id uint64, p FilmPatch) (*model.Film, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		f, err := getFilm(ctx, tx, id, true)
		if err != nil {
			return err
		}
		p.apply(f)

		if _, err := tx.ExecContext(ctx, qUpdateFilm,
			f.Name, f.Description, f.PublicationDate.Format(model.DateLayout), noteArg(f.Note), id); err != nil {
			return err
		}

		if p.Categories == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM film_categories WHERE film_id = ?", id); err != nil {
			return err
		}
		_, err = assignCategories(ctx, tx, id, *p.Categories)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetFilm(ctx, id)
}

// apply copies the set fields of p onto f.
func (p FilmPatch) apply(f *model.Film) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.PublicationDate != nil {
		f.PublicationDate = *p.PublicationDate
	}
	switch {
	case p.ClearNote:
		f.Note = nil
	case p.Note != nil:
		n := *p.Note
		f.Note = &n
	}
}

// DeleteFilm removes a film and its category assignments. It returns
// ErrFilmNotFound when no film has the id.
func (r *FilmRepo) DeleteFilm(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM film_categories WHERE film_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM films WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrFilmNotFound
		}
		return nil
	})
}

// CategoriesOfFilm lists the categories of a film ordered by id. It returns
// ErrFilmNotFound if the film does not exist.
func (r *FilmRepo) CategoriesOfFilm(ctx context.Context, filmID uint64) ([]model.Category, error) {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM films WHERE id = ?", filmID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}
	cats, err := loadCategories(ctx, r.db, []uint64{filmID})
	if err != nil {
		return nil, err
	}
	if cats[filmID] == nil {
		return []model.Category{}, nil
	}
	return cats[filmID], nil
}
