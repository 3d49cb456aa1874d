package database

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brianvoe/gofakeit/v6"
)

const (
	seedFilmCount      = 100
	seedNameMax        = 128
	seedDescriptionMax = 200
	seedMaxNote        = 5
	seedMaxCategories  = 2
)

type seedFilm struct {
	Name        string
	Description string
	Published   time.Time
	Note        int
}

func fakeFilm(f *gofakeit.Faker, now time.Time) seedFilm {
	return seedFilm{
		Name:        truncateRunes(f.MovieName(), seedNameMax),
		Description: truncateRunes(f.LoremIpsumSentence(f.IntRange(8, 30)), seedDescriptionMax),
		Published:   f.DateRange(now.AddDate(-30, 0, 0), now),
		Note:        f.IntRange(0, seedMaxNote),
	}
}

// truncateRunes cuts s to at most n characters, the unit VARCHAR limits
// count in utf8mb4, without splitting a multibyte character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// seedFilms inserts seedFilmCount random films in one statement.
func seedFilms(ctx context.Context, tx *sql.Tx, f *gofakeit.Faker) error {
	now := time.Now().UTC()
	rows := make([]string, 0, seedFilmCount)
	args := make([]any, 0, seedFilmCount*4)
	for i := 0; i < seedFilmCount; i++ {
		sf := fakeFilm(f, now)
		rows = append(rows, "(?, ?, ?, ?)")
		args = append(args, sf.Name, sf.Description, sf.Published.Format("2006-01-02"), sf.Note)
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO films (name, description, publication_date, note) VALUES "+strings.Join(rows, ", "),
		args...)
	return err
}

func queryIDs(ctx context.Context, tx *sql.Tx, q string) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// pickCategories returns 1..seedMaxCategories distinct ids from ids.
func pickCategories(f *gofakeit.Faker, ids []uint64) []uint64 {
	n := f.IntRange(1, seedMaxCategories)
	if n > len(ids) {
		n = len(ids)
	}
	pool := append([]uint64(nil), ids...)
	f.ShuffleAnySlice(pool)
	return pool[:n]
}

// assignCategories gives every film without categories one or two random
// categories.
func assignCategories(ctx context.Context, tx *sql.Tx, f *gofakeit.Faker) error {
	cats, err := queryIDs(ctx, tx, "SELECT id FROM categories ORDER BY id")
	if err != nil || len(cats) == 0 {
		return err
	}
	films, err := queryIDs(ctx, tx,
		`SELECT f.id FROM films f
		 WHERE NOT EXISTS (SELECT 1 FROM film_categories fc WHERE fc.film_id = f.id)
		 ORDER BY f.id`)
	if err != nil || len(films) == 0 {
		return err
	}

	var (
		rows []string
		args []any
	)
	for _, filmID := range films {
		for _, catID := range pickCategories(f, cats) {
			rows = append(rows, "(?, ?)")
			args = append(args, filmID, catID)
		}
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO film_categories (film_id, category_id) VALUES "+strings.Join(rows, ", "),
		args...)
	return err
}
