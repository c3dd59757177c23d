package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Data writes the standard success envelope: {"success":true,"data":...}.
func Data(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// OK writes a success envelope with caller-supplied top-level fields.
// "success":true is always set.
func OK(c echo.Context, fields map[string]interface{}) error {
	body := map[string]interface{}{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

// Error writes the uniform failure envelope: {"success":false,"error":msg}.
func Error(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// HTTPErrorHandler renders echo's own errors (404s, auth failures raised as
// echo.HTTPError, panics surfaced by the recovery middleware) in the same
// envelope the handlers use, so clients always see a success flag.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		if writeErr := Error(c, status, msg); writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}
