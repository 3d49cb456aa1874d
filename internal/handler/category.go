package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/film-catalog/internal/paging"
    "github.com/iliyamo/film-catalog/internal/repository"
)

type categoryItem struct {
    categoryJSON
    Links struct {
        Films link `json:"films"`
    } `json:"links"`
}

// ListCategories returns every category.  The list is short and is not
// paginated.
func (h *FilmHandler) ListCategories(c echo.Context) error {
    cats, err := h.Categories.ListCategories(c.Request().Context())
    if err != nil {
        return err
    }
    e := c.Echo()
    out := make([]categoryItem, 0, len(cats))
    for _, cat := range cats {
        item := categoryItem{categoryJSON: categoryJSON{ID: cat.ID, Name: cat.Name}}
        item.Links.Films = link{Href: e.Reverse(RouteCategoryFilms, cat.ID)}
        out = append(out, item)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "results": out,
        "pagination": echo.Map{
            "current_page": e.Reverse(RouteCategoryList),
        },
    })
}

// FilmsOfCategory returns one page of the films in a category.
func (h *FilmHandler) FilmsOfCategory(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return badRequest(c, "invalid category id")
    }
    ctx := c.Request().Context()
    if _, err := h.Categories.GetCategory(ctx, id); err != nil {
        if errors.Is(err, repository.ErrCategoryNotFound) {
            return notFound(c, "Category not found")
        }
        return err
    }

    total, err := h.Categories.CountFilmsOfCategory(ctx, id)
    if err != nil {
        return err
    }
    p := paging.New(total, c.QueryParam("page"), c.QueryParam("page_size"))
    films, err := h.Categories.FilmsOfCategory(ctx, id, p.Limit(), p.Offset())
    if err != nil {
        return err
    }

    e := c.Echo()
    return c.JSON(http.StatusOK, filmPage{
        Results:    toFilms(e, films),
        Pagination: buildPagination(e.Reverse(RouteCategoryFilms, id), p, listParams(c)),
    })
}
