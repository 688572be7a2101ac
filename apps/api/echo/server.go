package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/onboardme/backend/core"
	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/exam"
	"github.com/onboardme/backend/core/metrics"
	"github.com/onboardme/backend/core/notification"
	"github.com/onboardme/backend/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc    *user.Service
		CourseSvc  *course.Service
		ContentSvc *content.Service
		ExamSvc    *exam.Service
		MetricsSvc *metrics.Service
		NotifSvc   *notification.Service

		// SignalShutdown is called when a non-recoverable error bubbles up.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")

	registerUserAPI(v1, s.opts.UserSvc, s.opts.Validate)
	registerCourseAPI(v1, s.opts.CourseSvc, s.opts.Validate)
	registerSectionAPI(v1, s.opts.ContentSvc, s.opts.ExamSvc, s.opts.Validate)
	registerNotificationAPI(v1, s.opts.NotifSvc)
	registerMetricsAPI(v1, s.opts.MetricsSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to OnboardMe API!")
}
