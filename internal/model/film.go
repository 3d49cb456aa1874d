package model

import "time"

// DateLayout is the wire and storage format of PublicationDate.
const DateLayout = "2006-01-02"

// Film is a catalogued film.  It corresponds to a row in the `films` table;
// Categories is filled from `film_categories` by the repository.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – title of the film (max 128 characters).
//  Description     – synopsis (max 2048 characters).
//  PublicationDate – release date; only the date part is stored.
//  Note            – optional integer rating, nil when unset.
//  Categories      – categories the film belongs to, ordered by id.
type Film struct {
    ID              uint64     // films.id
    Name            string     // films.name
    Description     string     // films.description
    PublicationDate time.Time  // films.publication_date
    Note            *int       // films.note
    Categories      []Category // via film_categories
}
