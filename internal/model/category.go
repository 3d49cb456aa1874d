package model

// Category groups films, e.g. "Action" or "Drama".  A film may belong to
// many categories and a category to many films.
type Category struct {
    ID   uint64 // categories.id
    Name string // categories.name
}
