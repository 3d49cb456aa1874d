// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
    "fmt"
    "time"
)

// Film event types, also used as the AMQP message type.
const (
    FilmCreated = "film.created"
    FilmUpdated = "film.updated"
    FilmDeleted = "film.deleted"
)

// FilmEvent is published after a film mutation commits.  It carries enough
// for downstream consumers to log or reindex without querying the database.
type FilmEvent struct {
    Type        string   `json:"type"`
    FilmID      uint64   `json:"film_id"`
    Name        string   `json:"name,omitempty"`
    CategoryIDs []uint64 `json:"category_ids,omitempty"`
    OccurredAt  string   `json:"occurred_at"`
    RequestID   string   `json:"request_id,omitempty"`
}

// NewFilmEvent stamps an event with the current UTC time.
func NewFilmEvent(typ string, filmID uint64, name string) FilmEvent {
    return FilmEvent{
        Type:       typ,
        FilmID:     filmID,
        Name:       name,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
}

// Line renders the event as one human-friendly log line.
func (ev FilmEvent) Line() string {
    return fmt.Sprintf("[%s] %s | film_id=%d | name=%q | categories=%v | request_id=%s\n",
        ev.OccurredAt, ev.Type, ev.FilmID, ev.Name, ev.CategoryIDs, ev.RequestID)
}
