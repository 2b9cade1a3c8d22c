package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/marsha-uploader/internal/common"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/services"
)

func isAuthError(err error) bool {
	return errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrRefreshTokenExpired) ||
		errors.Is(err, common.ErrInvalidToken)
}

// handleError renders every error as JSON. Field errors become
// {"field": "message"}; everything else becomes {"detail": "message"}.
// Unexpected errors are logged and reported, and their text is not leaked.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code int
		body any
	)

	var httpErr *echo.HTTPError
	var tooLarge *services.FileTooLargeError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if m, ok := httpErr.Message.(string); ok {
			body = echo.Map{"detail": m}
		} else {
			body = httpErr.Message
		}
	case errors.As(err, &tooLarge):
		code = http.StatusBadRequest
		body = echo.Map{"size": sizeMessage(c.Request().Header.Get(common.AcceptLanguageHeaderName), tooLarge.Max)}
	case errors.As(err, &fieldErrs):
		code = http.StatusBadRequest
		trans := services.Translator(locale(c.Request().Header.Get(common.AcceptLanguageHeaderName)))
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Translate(trans)
		}
		body = fields
	case errors.Is(err, common.ErrorNotFound):
		code = http.StatusNotFound
		body = echo.Map{"detail": "Not found."}
	case isAuthError(err):
		code = http.StatusUnauthorized
		body = echo.Map{"detail": "No active account found with the given credentials"}
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrStorageKeyInvalid), errors.Is(err, common.ErrUploadEnded):
		code = http.StatusBadRequest
		body = echo.Map{"detail": err.Error()}
	default:
		code = http.StatusInternalServerError
		body = echo.Map{"detail": http.StatusText(code)}
		ctx := c.Request().Context()
		s.logger.Error(ctx, "request failed", "error", err, "path", c.Path())
		s.reporter.Report(ctx, err, map[string]any{"path": c.Request().URL.Path, "method": c.Request().Method})
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, body)
	}
	if werr != nil {
		s.logger.Error(c.Request().Context(), "write error response", "error", werr)
	}
}
