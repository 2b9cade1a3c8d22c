// Package httpapi serves the account and upload REST endpoints with echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/dmitrijs2005/marsha-uploader/internal/reporting"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/services"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/storage"
)

type Users interface {
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	UserIDFromAccessToken(token string) (string, error)
}

type Uploads interface {
	InitiateUpload(ctx context.Context, ref services.Ref, req services.InitiateUploadRequest) (*storage.Destination, error)
	UploadEnded(ctx context.Context, ref services.Ref, fileKey string) (*models.Resource, error)
	Get(ctx context.Context, ref services.Ref) (*models.Resource, error)
	PatchTitle(ctx context.Context, ref services.Ref, title string) (*models.Resource, error)
}

type Server struct {
	addr     string
	app      *echo.Echo
	users    Users
	uploads  Uploads
	logger   logging.Logger
	reporter reporting.Reporter
}

type echoValidator struct {
	v *validator.Validate
}

func (ev *echoValidator) Validate(i any) error {
	return ev.v.Struct(i)
}

func NewServer(addr string, users Users, uploads Uploads, logger logging.Logger, reporter reporting.Reporter) *Server {
	s := &Server{
		addr:     addr,
		app:      echo.New(),
		users:    users,
		uploads:  uploads,
		logger:   logger,
		reporter: reporter,
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Validator = &echoValidator{v: services.NewValidator()}
	s.app.HTTPErrorHandler = s.handleError

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recover())
	s.app.Use(middleware.BodyLimit("1M"))
	s.app.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info(c.Request().Context(), "request",
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID)
			return nil
		},
	}))

	account := s.app.Group("/account/api")
	account.POST("/token/", s.obtainToken)
	account.POST("/token/refresh/", s.refreshToken)

	api := s.app.Group("/api", s.bearerAuth)
	api.GET("/*", s.getResource)
	api.PATCH("/*", s.patchResource)
	api.POST("/*", s.postAction)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		errCh <- s.app.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.app.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}
