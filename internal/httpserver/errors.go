package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Arayanmemon/devTube/internal/apperr"
	"github.com/Arayanmemon/devTube/internal/logging"
	"github.com/Arayanmemon/devTube/internal/transport"
)

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperr.ErrBadRequest.Error()
	case http.StatusUnauthorized:
		return apperr.ErrUnauthorized.Error()
	case http.StatusForbidden:
		return apperr.ErrForbidden.Error()
	case http.StatusNotFound:
		return apperr.ErrNotFound.Error()
	case http.StatusConflict:
		return apperr.ErrConflict.Error()
	}
	if status >= 500 {
		return apperr.ErrInternal.Error()
	}
	return http.StatusText(status)
}

// ErrorHandler renders every error as the uniform error body. Domain errors
// keep their status and message; anything else becomes a generic 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := transport.ErrorResponse{Success: false}
	var he *echo.HTTPError
	if e, ok := apperr.As(err); ok {
		body.Status, body.Code, body.Message = e.Status, e.Code(), e.Message
		if e.Status >= 500 {
			logging.FromContext(c.Request().Context()).Error("request_failed", "error", err)
		}
	} else if errors.As(err, &he) {
		body.Status, body.Code, body.Message = he.Code, codeForStatus(he.Code), fmt.Sprint(he.Message)
	} else {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
		body.Status = http.StatusInternalServerError
		body.Code = apperr.ErrInternal.Error()
		body.Message = "Internal server error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(body.Status)
		return
	}
	_ = c.JSON(body.Status, body)
}
