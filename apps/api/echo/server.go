package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/analytics"
	"github.com/darasahq/darasa/core/beta"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/prospect"
	"github.com/darasahq/darasa/core/quiz"
	"github.com/darasahq/darasa/core/user"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc      user.ServiceInterface
		CourseSvc    *course.Service
		QuizSvc      *quiz.Service
		BetaSvc      *beta.Service
		ProspectSvc  *prospect.Service
		AnalyticsSvc *analytics.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig())

	registerAuthAPI(api, s.opts.UserSvc, s.opts.ProspectSvc)
	registerUserAPI(api, jwt, s.opts.UserSvc, s.opts.Validate, s.opts.Translator)
	registerCourseAPI(api, jwt, s.opts.CourseSvc, s.opts.UserSvc, s.opts.Validate)
	registerQuizAPI(api, jwt, s.opts.QuizSvc, s.opts.CourseSvc, s.opts.UserSvc, s.opts.Validate)
	registerBetaAPI(api, jwt, s.opts.BetaSvc, s.opts.UserSvc, s.opts.Validate)
	registerProspectAPI(api, jwt, s.opts.ProspectSvc, s.opts.Validate)
	registerAnalyticsAPI(api, jwt, s.opts.AnalyticsSvc, s.opts.Validate)
}

func (s *server) Start() {
	s.errs <- s.app.Start(s.opts.Addr)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown is handed to the error handler so an integrity error can
// gracefully bring the server down.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Darasa API!")
}
