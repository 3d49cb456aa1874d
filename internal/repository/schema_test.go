package repository

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var (
	createTableRE = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\)`)
	insertRE      = regexp.MustCompile(`INSERT INTO (\w+) \(([^)]*)\)`)
	updateRE      = regexp.MustCompile(`UPDATE (\w+) SET (.*?) WHERE (\w+) =`)
	selectRE      = regexp.MustCompile(`SELECT ([a-z_]+(?:, [a-z_]+)*) FROM (\w+)`)
	whereRE       = regexp.MustCompile(`FROM (\w+) WHERE (\w+) (?:=|IN)`)
)

// schemaColumns reads the embedded migrations and returns table -> columns.
func schemaColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()
	files, err := filepath.Glob("../database/migrations/*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("no migrations found: %v", err)
	}
	tables := map[string]map[string]bool{}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range createTableRE.FindAllStringSubmatch(string(b), -1) {
			cols := map[string]bool{}
			for _, line := range strings.Split(m[2], "\n") {
				fields := strings.Fields(line)
				if len(fields) < 2 {
					continue
				}
				switch fields[0] {
				case "PRIMARY", "KEY", "UNIQUE", "CONSTRAINT", "INDEX":
					continue
				}
				cols[fields[0]] = true
			}
			tables[m[1]] = cols
		}
	}
	return tables
}

// repositorySQL returns the non-test Go sources of this package.
func repositorySQL(t *testing.T) string {
	t.Helper()
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		sb.Write(b)
	}
	return sb.String()
}

func TestRepositorySQL_MatchesSchema(t *testing.T) {
	tables := schemaColumns(t)
	for _, want := range []string{"films", "categories", "film_categories"} {
		if tables[want] == nil {
			t.Fatalf("migrations do not create %s", want)
		}
	}

	check := func(where, table, col string) {
		t.Helper()
		col = strings.TrimSpace(col)
		if cols, ok := tables[table]; !ok {
			t.Errorf("%s: unknown table %s", where, table)
		} else if !cols[col] {
			t.Errorf("%s: %s.%s is not created by any migration", where, table, col)
		}
	}

	for _, col := range strings.Split(filmColumns, ",") {
		check("filmColumns", "films", strings.TrimPrefix(strings.TrimSpace(col), "f."))
	}
	for _, col := range strings.Split(insertRE.FindStringSubmatch(qInsertFilm)[2], ",") {
		check("qInsertFilm", "films", col)
	}
	for _, set := range strings.Split(updateRE.FindStringSubmatch(qUpdateFilm)[2], ",") {
		check("qUpdateFilm", "films", strings.SplitN(set, "=", 2)[0])
	}

	src := repositorySQL(t)
	for _, m := range insertRE.FindAllStringSubmatch(src, -1) {
		for _, col := range strings.Split(m[2], ",") {
			check("INSERT", m[1], col)
		}
	}
	for _, m := range updateRE.FindAllStringSubmatch(src, -1) {
		for _, set := range strings.Split(m[2], ",") {
			check("UPDATE", m[1], strings.SplitN(set, "=", 2)[0])
		}
		check("UPDATE", m[1], m[3])
	}
	for _, m := range selectRE.FindAllStringSubmatch(src, -1) {
		for _, col := range strings.Split(m[1], ",") {
			check("SELECT", m[2], col)
		}
	}
	for _, m := range whereRE.FindAllStringSubmatch(src, -1) {
		check("WHERE", m[1], m[2])
	}
}
