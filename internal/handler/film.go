package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/film-catalog/internal/paging"
    "github.com/iliyamo/film-catalog/internal/repository"
)

// ListFilms returns one page of films.  title and description are
// case-insensitive substring filters; page and page_size select the window.
func (h *FilmHandler) ListFilms(c echo.Context) error {
    ctx := c.Request().Context()
    flt := repository.FilmFilter{
        Title:       strings.TrimSpace(c.QueryParam("title")),
        Description: strings.TrimSpace(c.QueryParam("description")),
    }

    total, err := h.Films.CountFilms(ctx, flt)
    if err != nil {
        return err
    }
    p := paging.New(total, c.QueryParam("page"), c.QueryParam("page_size"))
    films, err := h.Films.ListFilms(ctx, flt, p.Limit(), p.Offset())
    if err != nil {
        return err
    }

    e := c.Echo()
    return c.JSON(http.StatusOK, filmPage{
        Results:    toFilms(e, films),
        Pagination: buildPagination(e.Reverse(RouteFilmList), p, listParams(c, "title", "description")),
    })
}

// GetFilm returns a single film with its categories.
func (h *FilmHandler) GetFilm(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badRequest(c, "invalid film id")
    }
    f, err := h.Films.GetFilm(c.Request().Context(), id)
    if errors.Is(err, repository.ErrFilmNotFound) {
        return notFound(c, "Film not found")
    }
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, toFilm(c.Echo(), *f))
}

// CategoriesOfFilm lists the categories a film belongs to.
func (h *FilmHandler) CategoriesOfFilm(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badRequest(c, "invalid film id")
    }
    cats, err := h.Films.CategoriesOfFilm(c.Request().Context(), id)
    if errors.Is(err, repository.ErrFilmNotFound) {
        return notFound(c, "Film not found")
    }
    if err != nil {
        return err
    }

    e := c.Echo()
    return c.JSON(http.StatusOK, echo.Map{
        "categories": toCategories(cats),
        "links": echo.Map{
            "film": link{Href: e.Reverse(RouteFilmDetail, id)},
        },
        "pagination": echo.Map{
            "current_page": e.Reverse(RouteFilmCategories, id),
        },
    })
}
