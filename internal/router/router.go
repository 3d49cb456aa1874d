package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/film-catalog/internal/config"
	"github.com/iliyamo/film-catalog/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/film-catalog/internal/middleware" // cache, rate limit, JWT and logging middleware
	"github.com/iliyamo/film-catalog/internal/utils"
)

// Deps carries everything the routes need.  Redis, Health and a JWT secret
// are optional; without them caching, rate limiting, the database ping and
// the write guard are skipped.
type Deps struct {
	Films     *handler.FilmHandler
	Health    handler.Pinger
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	JWTSecret string
}

// New builds the Echo instance with the API's serializer, error handler,
// global middleware and routes.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.HTTPErrorHandler = handler.ErrorHandler

	// Paths are registered with a trailing slash; /films and /films/ are the
	// same resource.  Operational endpoints keep their bare paths.
	e.Pre(echomw.AddTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/healthz" || p == "/metrics"
		},
	}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics())

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes maps every endpoint on e.  Read routes go through the
// Redis cache; write routes purge it and, when a secret is configured,
// require an EDITOR or ADMIN token.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.Health))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	h := d.Films

	read := []echo.MiddlewareFunc{limit, cache}
	e.GET("/films/", h.ListFilms, read...).Name = handler.RouteFilmList
	e.GET("/films/:id/", h.GetFilm, read...).Name = handler.RouteFilmDetail
	e.GET("/films/:id/categories/", h.CategoriesOfFilm, read...).Name = handler.RouteFilmCategories
	e.GET("/categories/", h.ListCategories, read...).Name = handler.RouteCategoryList
	e.GET("/categories/:id/films/", h.FilmsOfCategory, read...).Name = handler.RouteCategoryFilms

	write := []echo.MiddlewareFunc{limit}
	if d.JWTSecret != "" {
		write = append(write, middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(utils.RoleEditor, utils.RoleAdmin))
	}
	write = append(write, middleware.PurgeOnWrite(d.Cache, d.Redis))

	mutation(e, http.MethodPost, "/films/create/", handler.RouteFilmCreate, h.CreateFilm, write)
	mutation(e, http.MethodPut, "/films/update/:id/", handler.RouteFilmUpdate, h.UpdateFilm, write)
	mutation(e, http.MethodDelete, "/films/delete/:id/", handler.RouteFilmDelete, h.DeleteFilm, write)
}

// mutation registers h for method on path and answers every other method
// with 400.
func mutation(e *echo.Echo, method, path, name string, h echo.HandlerFunc, mw []echo.MiddlewareFunc) {
	for _, m := range []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	} {
		if !strings.EqualFold(m, method) {
			e.Add(m, path, handler.MethodNotAllowed)
		}
	}
	e.Add(method, path, h, mw...).Name = name
}
