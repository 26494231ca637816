package webhook

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhle/duetask/internal/logger"
)

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondSuccess(c echo.Context) error {
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func respondError(c echo.Context, code int, err error) error {
	return c.JSON(code, errorResponse{Error: err.Error()})
}

// errorHandler renders every error that escapes a handler, including
// recovered panics and router 404/405s, as {"error": message}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		logger.From(c.Request().Context()).Error().Err(err).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Error: msg})
}
