package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/marsha-uploader/internal/common"
)

const contextUserKey = "user_id"

// tokenNotValid mirrors the body a simplejwt backend returns for a bad or
// expired access token.
func tokenNotValid(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
		"detail": msg,
		"code":   "token_not_valid",
	})
}

func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
		}

		userID, err := s.users.UserIDFromAccessToken(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return tokenNotValid("Token is expired")
			}
			return tokenNotValid("Given token not valid for any token type")
		}

		c.Set(contextUserKey, userID)
		return next(c)
	}
}
