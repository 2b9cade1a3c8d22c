package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/marsha-uploader/internal/common"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/services"
)

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type patchRequest struct {
	Title *string `json:"title"`
}

type uploadEndedRequest struct {
	FileKey string `json:"file_key" validate:"required"`
}

func bindAndValidate(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error.")
	}
	return c.Validate(v)
}

func (s *Server) obtainToken(c echo.Context) error {
	var req credentials
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	pair, err := s.users.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

func (s *Server) refreshToken(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	pair, err := s.users.RefreshToken(c.Request().Context(), req.Refresh)
	if err != nil {
		if isAuthError(err) {
			return tokenNotValid("Token is invalid or expired")
		}
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// parsePath splits the wildcard part of an /api/ path into a resource
// reference and an optional action:
//
//	videos/v1/                          -> videos v1
//	videos/v1/initiate-upload/          -> videos v1, initiate-upload
//	videos/v1/thumbnails/t1/upload-ended/ -> thumbnails t1 under videos v1
func parsePath(p string) (services.Ref, string, error) {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for _, s := range segs {
		if s == "" {
			return services.Ref{}, "", fmt.Errorf("%w: empty path segment", common.ErrorNotFound)
		}
	}

	switch len(segs) {
	case 2:
		return services.Ref{Kind: segs[0], ID: segs[1]}, "", nil
	case 3:
		return services.Ref{Kind: segs[0], ID: segs[1]}, segs[2], nil
	case 4:
		return services.Ref{ParentType: segs[0], ParentID: segs[1], Kind: segs[2], ID: segs[3]}, "", nil
	case 5:
		return services.Ref{ParentType: segs[0], ParentID: segs[1], Kind: segs[2], ID: segs[3]}, segs[4], nil
	default:
		return services.Ref{}, "", fmt.Errorf("%w: %s", common.ErrorNotFound, p)
	}
}

func (s *Server) getResource(c echo.Context) error {
	ref, action, err := parsePath(c.Param("*"))
	if err != nil {
		return err
	}
	if action != "" {
		return echo.ErrNotFound
	}
	res, err := s.uploads.Get(c.Request().Context(), ref)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.JSON())
}

func (s *Server) patchResource(c echo.Context) error {
	ref, action, err := parsePath(c.Param("*"))
	if err != nil {
		return err
	}
	if action != "" {
		return echo.ErrNotFound
	}

	var req patchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "JSON parse error.")
	}
	if req.Title == nil {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"title": requiredMessage(c.Request().Header.Get(common.AcceptLanguageHeaderName), "title")})
	}

	res, err := s.uploads.PatchTitle(c.Request().Context(), ref, *req.Title)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.JSON())
}

func (s *Server) postAction(c echo.Context) error {
	ref, action, err := parsePath(c.Param("*"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	switch action {
	case "initiate-upload":
		var req services.InitiateUploadRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		dst, err := s.uploads.InitiateUpload(ctx, ref, req)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, dst)

	case "upload-ended":
		var req uploadEndedRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
		res, err := s.uploads.UploadEnded(ctx, ref, req.FileKey)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, res.JSON())

	default:
		return echo.ErrMethodNotAllowed
	}
}
