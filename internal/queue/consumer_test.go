package queue

import (
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestHandleMessage_AppendsLine(t *testing.T) {
    dir := filepath.Join(t.TempDir(), "logs")

    first := `{"type":"film.created","film_id":7,"name":"Heat","category_ids":[1,3],"occurred_at":"2024-04-23T13:36:00Z"}`
    second := `{"type":"film.deleted","film_id":7,"occurred_at":"2024-04-24T09:00:00Z"}`
    for _, body := range []string{first, second} {
        if err := handleMessage(dir, []byte(body)); err != nil {
            t.Fatalf("handleMessage: %v", err)
        }
    }

    raw, err := os.ReadFile(filepath.Join(dir, EventLogFile))
    if err != nil {
        t.Fatal(err)
    }
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    if len(lines) != 2 {
        t.Fatalf("got %d lines: %q", len(lines), raw)
    }
    if !strings.Contains(lines[0], "film.created | film_id=7 | name=\"Heat\" | categories=[1 3]") {
        t.Errorf("line 0 = %q", lines[0])
    }
    if !strings.HasPrefix(lines[1], "[2024-04-24T09:00:00Z] film.deleted") {
        t.Errorf("line 1 = %q", lines[1])
    }
}

func TestHandleMessage_RejectsBadPayload(t *testing.T) {
    dir := t.TempDir()
    for _, body := range []string{`not json`, `{"type":"film.created"}`} {
        if err := handleMessage(dir, []byte(body)); err == nil {
            t.Errorf("handleMessage(%q) = nil, want error", body)
        }
    }
    if _, err := os.Stat(filepath.Join(dir, EventLogFile)); !os.IsNotExist(err) {
        t.Errorf("log file written for rejected messages")
    }
}

func TestNewFilmEvent(t *testing.T) {
    ev := NewFilmEvent(FilmUpdated, 3, "Alien")
    if ev.Type != FilmUpdated || ev.FilmID != 3 || ev.OccurredAt == "" {
        t.Errorf("event = %+v", ev)
    }
}
