package database

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
)

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (x INT); -- trailing
INSERT INTO a VALUES ('semi;colon');

  ;
SELECT "q;" FROM a`
	got := splitStatements(script)
	want := []string{
		"CREATE TABLE a (x INT)",
		"INSERT INTO a VALUES ('semi;colon')",
		`SELECT "q;" FROM a`,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stmt %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	for _, m := range Migrations() {
		if m.File == "" {
			continue
		}
		raw, err := migrationFiles.ReadFile(m.File)
		if err != nil {
			t.Fatalf("v%d: %v", m.Version, err)
		}
		if len(splitStatements(string(raw))) == 0 {
			t.Errorf("v%d: no statements", m.Version)
		}
	}
}

func TestMigrations_Ordered(t *testing.T) {
	prev := 0
	for _, m := range Migrations() {
		if m.Version <= prev {
			t.Fatalf("version %d after %d", m.Version, prev)
		}
		if (m.File == "") == (m.Seed == nil) {
			t.Errorf("v%d must have exactly one of File and Seed", m.Version)
		}
		prev = m.Version
	}
}

func TestFakeFilm_Bounds(t *testing.T) {
	f := gofakeit.New(42)
	now := time.Date(2024, 4, 23, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		sf := fakeFilm(f, now)
		if sf.Name == "" || utf8.RuneCountInString(sf.Name) > seedNameMax {
			t.Fatalf("name %q", sf.Name)
		}
		if sf.Description == "" || utf8.RuneCountInString(sf.Description) > seedDescriptionMax {
			t.Fatalf("description length %d", len(sf.Description))
		}
		if sf.Published.Before(now.AddDate(-30, 0, 0)) || sf.Published.After(now) {
			t.Fatalf("publication date %v out of range", sf.Published)
		}
		if sf.Note < 0 || sf.Note > seedMaxNote {
			t.Fatalf("note %d", sf.Note)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Heat", 10, "Heat"},
		{"Heat", 4, "Heat"},
		{"Le Fabuleux Destin", 9, "Le Fabule"},
		{"Amélie", 3, "Amé"},
		{"千と千尋の神隠し", 4, "千と千尋"},
		{"two words", 4, "two"},
	}
	for _, tt := range tests {
		got := truncateRunes(tt.in, tt.n)
		if got != tt.want || !utf8.ValidString(got) {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestPickCategories(t *testing.T) {
	f := gofakeit.New(7)
	ids := []uint64{1, 2, 3}
	for i := 0; i < 100; i++ {
		got := pickCategories(f, ids)
		if len(got) < 1 || len(got) > seedMaxCategories {
			t.Fatalf("picked %v", got)
		}
		if len(got) == 2 && got[0] == got[1] {
			t.Fatalf("duplicate pick %v", got)
		}
	}
	if got := pickCategories(f, []uint64{9}); len(got) != 1 || got[0] != 9 {
		t.Errorf("single category pick = %v", got)
	}
}

func TestMigrate_SkipSeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS films").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(1, "create_films").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS categories").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS film_categories").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO categories").WillReturnResult(sqlmock.NewResult(3, 3))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(3, "create_categories").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := Migrate(context.Background(), db, Options{SkipSeed: true})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMigrate_RunsOnlyPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	at := time.Date(2024, 4, 23, 13, 36, 0, 0, time.UTC)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}).
			AddRow(1, at).AddRow(2, at).AddRow(3, at))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM categories").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))
	mock.ExpectQuery("SELECT f.id FROM films f").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectExec("INSERT INTO film_categories").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(4, "assign_categories").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := Migrate(context.Background(), db, Options{Faker: gofakeit.New(1)})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if n != 1 {
		t.Errorf("applied = %d, want 1", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS films").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	n, err := Migrate(context.Background(), db, Options{SkipSeed: true})
	if err == nil || n != 0 {
		t.Fatalf("Migrate = %d, %v; want failure before any migration", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	at := time.Date(2024, 4, 23, 13, 36, 0, 0, time.UTC)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version", "applied_at"}).AddRow(1, at))

	st, err := Status(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	if len(st) != len(Migrations()) {
		t.Fatalf("len = %d", len(st))
	}
	if st[0].AppliedAt == nil || !st[0].AppliedAt.Equal(at) {
		t.Errorf("v1 applied_at = %v", st[0].AppliedAt)
	}
	if st[1].AppliedAt != nil {
		t.Errorf("v2 reported applied")
	}
}
