package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/goccy/go-json"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/film-catalog/internal/model"
    "github.com/iliyamo/film-catalog/internal/queue"
    "github.com/iliyamo/film-catalog/internal/repository"
    "github.com/iliyamo/film-catalog/internal/validation"
)

// createFilmRequest is the body of POST /films/create/.
type createFilmRequest struct {
    Name            string   `json:"name" validate:"required,max=128"`
    Description     string   `json:"description" validate:"required,max=2048"`
    PublicationDate string   `json:"publication_date" validate:"required,datetime=2006-01-02"`
    Note            *int     `json:"note"`
    Categories      []uint64 `json:"categories" validate:"omitempty,dive,gte=1"`
}

// updateFilmRequest is the body of PUT /films/update/:id/.  Absent fields
// keep their stored value; "note": null clears the rating.
type updateFilmRequest struct {
    Name            *string   `json:"name" validate:"omitnil,min=1,max=128"`
    Description     *string   `json:"description" validate:"omitnil,min=1,max=2048"`
    PublicationDate *string   `json:"publication_date" validate:"omitnil,datetime=2006-01-02"`
    Note            *int      `json:"note"`
    Categories      *[]uint64 `json:"categories" validate:"omitnil,dive,gte=1"`

    noteSet bool
}

// UnmarshalJSON records whether the body named "note" at all, so that an
// explicit null can be told apart from a missing key.
func (r *updateFilmRequest) UnmarshalJSON(b []byte) error {
    type plain updateFilmRequest
    if err := json.Unmarshal(b, (*plain)(r)); err != nil {
        return err
    }
    var keys map[string]any
    if err := json.Unmarshal(b, &keys); err != nil {
        return err
    }
    _, r.noteSet = keys["note"]
    return nil
}

// checkBody validates req and writes the 400 response when it fails.  The
// returned bool reports whether the handler may continue.
func checkBody(c echo.Context, req any) (bool, error) {
    err := validation.Struct(req)
    if err == nil {
        return true, nil
    }
    var fields validation.Errors
    if errors.As(err, &fields) {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
    }
    return false, err
}

// mutationError maps store failures shared by create and update.
func mutationError(c echo.Context, err error) error {
    var missing *repository.MissingCategoryError
    switch {
    case errors.As(err, &missing):
        return notFound(c, missing.Error())
    case errors.Is(err, repository.ErrFilmNotFound):
        return notFound(c, "Film not found")
    default:
        return err
    }
}

// CreateFilm stores a new film and its category assignments.  Either all of
// it is stored or none of it.
func (h *FilmHandler) CreateFilm(c echo.Context) error {
    var req createFilmRequest
    if err := readJSON(c, &req); err != nil {
        return badRequest(c, err.Error())
    }
    if ok, err := checkBody(c, &req); !ok {
        return err
    }
    released, _ := time.Parse(model.DateLayout, req.PublicationDate)

    film := &model.Film{
        Name:            req.Name,
        Description:     req.Description,
        PublicationDate: released,
        Note:            req.Note,
    }
    if err := h.Films.CreateFilm(c.Request().Context(), film, req.Categories); err != nil {
        return mutationError(c, err)
    }

    h.publish(c, queue.FilmCreated, *film, categoryIDs(film.Categories))
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "Film created",
        "id":      film.ID,
        "links": echo.Map{
            "self": link{Href: c.Echo().Reverse(RouteFilmDetail, film.ID)},
        },
    })
}

// UpdateFilm applies a partial update.  A categories array, even an empty
// one, replaces the film's whole category set.
func (h *FilmHandler) UpdateFilm(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badRequest(c, "invalid film id")
    }
    var req updateFilmRequest
    if err := readJSON(c, &req); err != nil {
        return badRequest(c, err.Error())
    }
    if ok, err := checkBody(c, &req); !ok {
        return err
    }

    patch := repository.FilmPatch{
        Name:        req.Name,
        Description: req.Description,
        Note:        req.Note,
        ClearNote:   req.noteSet && req.Note == nil,
        Categories:  req.Categories,
    }
    if req.PublicationDate != nil {
        released, _ := time.Parse(model.DateLayout, *req.PublicationDate)
        patch.PublicationDate = &released
    }

    film, err := h.Films.UpdateFilm(c.Request().Context(), id, patch)
    if err != nil {
        return mutationError(c, err)
    }

    h.publish(c, queue.FilmUpdated, *film, categoryIDs(film.Categories))
    e := c.Echo()
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Film updated",
        "links": filmLinks{
            Self:       link{Href: e.Reverse(RouteFilmDetail, film.ID)},
            Categories: link{Href: e.Reverse(RouteFilmCategories, film.ID)},
        },
    })
}

// DeleteFilm removes a film and its category assignments.
func (h *FilmHandler) DeleteFilm(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badRequest(c, "invalid film id")
    }
    ctx := c.Request().Context()
    film, err := h.Films.GetFilm(ctx, id)
    if err == nil {
        err = h.Films.DeleteFilm(ctx, id)
    }
    if errors.Is(err, repository.ErrFilmNotFound) {
        return notFound(c, "Film not found")
    }
    if err != nil {
        return err
    }

    h.publish(c, queue.FilmDeleted, *film, nil)
    return c.JSON(http.StatusOK, echo.Map{"message": "Film deleted"})
}
