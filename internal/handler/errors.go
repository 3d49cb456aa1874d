package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/film-catalog/internal/logging"
)

// ErrorHandler is the echo.HTTPErrorHandler for the API.  Echo's own errors
// (unknown route, wrong method on a read route) keep their status; anything
// else a handler returns is logged and reported as 500.  Bodies are always
// {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }

    code := http.StatusInternalServerError
    msg := http.StatusText(code)
    var he *echo.HTTPError
    if errors.As(err, &he) {
        code = he.Code
        if m, ok := he.Message.(string); ok {
            msg = m
        } else {
            msg = http.StatusText(code)
        }
    } else {
        logging.Error().Err(err).
            Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
            Str("method", c.Request().Method).
            Str("uri", c.Request().RequestURI).
            Msg("request failed")
    }

    var werr error
    if c.Request().Method == http.MethodHead {
        werr = c.NoContent(code)
    } else {
        werr = c.JSON(code, echo.Map{"error": msg})
    }
    if werr != nil {
        logging.Warn().Err(werr).Msg("write error response")
    }
}
