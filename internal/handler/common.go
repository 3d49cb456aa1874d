package handler // handler defines http handlers

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "strings"

    "github.com/goccy/go-json"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/film-catalog/internal/model"
    "github.com/iliyamo/film-catalog/internal/paging"
    "github.com/iliyamo/film-catalog/internal/queue"
    "github.com/iliyamo/film-catalog/internal/repository"
)

// Route names used for reverse routing.  The router registers every route
// under one of these names and links are built from them.
const (
    RouteFilmList       = "film-list"
    RouteFilmDetail     = "film-detail"
    RouteFilmCreate     = "film-create"
    RouteFilmUpdate     = "film-update"
    RouteFilmDelete     = "film-delete"
    RouteCategoryList   = "category-list"
    RouteFilmCategories = "film-categories"
    RouteCategoryFilms  = "category-films"
)

// maxBodyBytes caps request bodies on the write routes.
const maxBodyBytes = 1_048_576

// EventPublisher receives film change events after a mutation commits.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.FilmEvent)
}

// FilmHandler bundles the stores and the event publisher used by the film
// and category endpoints.
type FilmHandler struct {
    Films      repository.FilmStore     // film persistence
    Categories repository.CategoryStore // category persistence
    Events     EventPublisher           // nil disables events
}

// NewFilmHandler constructs a FilmHandler and panics if a store is missing.
func NewFilmHandler(films repository.FilmStore, categories repository.CategoryStore, events EventPublisher) *FilmHandler {
    if films == nil || categories == nil {
        panic("nil store passed to NewFilmHandler")
    }
    return &FilmHandler{Films: films, Categories: categories, Events: events}
}

// link is a HAL-style hypermedia reference.
type link struct {
    Href string `json:"href"`
}

type categoryJSON struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

type filmLinks struct {
    Self       link `json:"self"`
    Categories link `json:"categories"`
}

type filmJSON struct {
    ID              uint64         `json:"id"`
    Name            string         `json:"name"`
    Description     string         `json:"description"`
    PublicationDate string         `json:"publication_date"`
    Note            *int           `json:"note"`
    Categories      []categoryJSON `json:"categories"`
    Links           filmLinks      `json:"links"`
}

type pagination struct {
    Page         int     `json:"page"`
    TotalPages   int     `json:"total_pages"`
    TotalResults int     `json:"total_results"`
    NextPage     *string `json:"next_page"`
    PrevPage     *string `json:"prev_page"`
    CurrentPage  string  `json:"current_page"`
}

type filmPage struct {
    Results    []filmJSON `json:"results"`
    Pagination pagination `json:"pagination"`
}

func toCategories(cats []model.Category) []categoryJSON {
    out := make([]categoryJSON, 0, len(cats))
    for _, cat := range cats {
        out = append(out, categoryJSON{ID: cat.ID, Name: cat.Name})
    }
    return out
}

func toFilm(e *echo.Echo, f model.Film) filmJSON {
    return filmJSON{
        ID:              f.ID,
        Name:            f.Name,
        Description:     f.Description,
        PublicationDate: f.PublicationDate.Format(model.DateLayout),
        Note:            f.Note,
        Categories:      toCategories(f.Categories),
        Links: filmLinks{
            Self:       link{Href: e.Reverse(RouteFilmDetail, f.ID)},
            Categories: link{Href: e.Reverse(RouteFilmCategories, f.ID)},
        },
    }
}

func toFilms(e *echo.Echo, films []model.Film) []filmJSON {
    out := make([]filmJSON, 0, len(films))
    for _, f := range films {
        out = append(out, toFilm(e, f))
    }
    return out
}

// pageURL is base with page=n and the request's other list parameters.
func pageURL(base string, n int, keep url.Values) string {
    q := url.Values{}
    for k, vs := range keep {
        q[k] = vs
    }
    q.Set("page", strconv.Itoa(n))
    return base + "?" + q.Encode()
}

// listParams returns the query parameters a page link must carry: any
// non-empty filter in names plus an explicit page_size.
func listParams(c echo.Context, names ...string) url.Values {
    keep := url.Values{}
    for _, n := range append(names, "page_size") {
        if v := strings.TrimSpace(c.QueryParam(n)); v != "" {
            keep.Set(n, v)
        }
    }
    return keep
}

func buildPagination(base string, p paging.Page, keep url.Values) pagination {
    out := pagination{
        Page:         p.Number,
        TotalPages:   p.TotalPages,
        TotalResults: p.TotalCount,
        CurrentPage:  pageURL(base, p.Number, keep),
    }
    if p.HasNext() {
        next := pageURL(base, p.Number+1, keep)
        out.NextPage = &next
    }
    if p.HasPrev() {
        prev := pageURL(base, p.Number-1, keep)
        out.PrevPage = &prev
    }
    return out
}

// parseID reads the :id path parameter as a positive integer.
func parseID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func notFound(c echo.Context, msg string) error {
    return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
}

// readJSON decodes exactly one JSON value from the request body into dst
// and turns decoder failures into client-facing messages.
func readJSON(c echo.Context, dst any) error {
    r := c.Request()
    r.Body = http.MaxBytesReader(c.Response(), r.Body, maxBodyBytes)

    dec := json.NewDecoder(r.Body)
    if err := dec.Decode(dst); err != nil {
        var (
            syntaxError        *json.SyntaxError
            unmarshalTypeError *json.UnmarshalTypeError
            maxBytesError      *http.MaxBytesError
        )
        switch {
        case errors.As(err, &syntaxError):
            return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
        case errors.Is(err, io.ErrUnexpectedEOF):
            return errors.New("body contains badly-formed JSON")
        case errors.As(err, &unmarshalTypeError):
            if unmarshalTypeError.Field != "" {
                return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
            }
            return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
        case errors.Is(err, io.EOF):
            return errors.New("body must not be empty")
        case errors.As(err, &maxBytesError):
            return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
        default:
            return fmt.Errorf("invalid JSON data: %v", err)
        }
    }
    if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
        return errors.New("body must only contain a single JSON value")
    }
    return nil
}

// MethodNotAllowed answers requests to a mutation route with the wrong
// method.
func MethodNotAllowed(c echo.Context) error {
    return badRequest(c, "method not allowed")
}

func (h *FilmHandler) publish(c echo.Context, typ string, f model.Film, categoryIDs []uint64) {
    if h.Events == nil {
        return
    }
    ev := queue.NewFilmEvent(typ, f.ID, f.Name)
    ev.CategoryIDs = categoryIDs
    ev.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
    h.Events.Publish(c.Request().Context(), ev)
}

func categoryIDs(cats []model.Category) []uint64 {
    ids := make([]uint64, 0, len(cats))
    for _, cat := range cats {
        ids = append(ids, cat.ID)
    }
    return ids
}
