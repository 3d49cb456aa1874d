package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/film-catalog/internal/model"
)

// CategoryRepo encapsulates queries related to categories and the films
// assigned to them.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the provided DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// ListCategories returns all categories ordered by id.
func (r *CategoryRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCategory fetches a category by id. It returns ErrCategoryNotFound if
// no row is found.
func (r *CategoryRepo) GetCategory(ctx context.Context, id uint64) (*model.Category, error) {
	var c model.Category
	if err := r.db.QueryRowContext(ctx, "SELECT id, name FROM categories WHERE id = ?", id).Scan(&c.ID, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CountFilmsOfCategory returns how many films are assigned to the category.
func (r *CategoryRepo) CountFilmsOfCategory(ctx context.Context, categoryID uint64) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM film_categories WHERE category_id = ?", categoryID).Scan(&total)
	return total, err
}

// FilmsOfCategory returns one window of the films in a category ordered by
// film id, each with all of its categories.
func (r *CategoryRepo) FilmsOfCategory(ctx context.Context, categoryID uint64, limit, offset int) ([]model.Film, error) {
	q := `SELECT ` + filmColumns + `
	      FROM films f
	      JOIN film_categories fc ON fc.film_id = f.id
	      WHERE fc.category_id = ?
	      ORDER BY f.id
	      LIMIT ? OFFSET ?`
	return queryFilms(ctx, r.db, q, categoryID, limit, offset)
}
