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
	"go.uber.org/dig"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
)

type (
	// ServerDeps holds the services the API is built on. It is filled by the dig container.
	ServerDeps struct {
		dig.In

		Conf       *core.Config
		Logger     core.Logger
		Verifier   account.SessionVerifier
		AccountSvc *account.Service
		StudentSvc *school.StudentService
		TeacherSvc *school.TeacherService
		ClassSvc   *school.ClassService
		TermSvc    *school.TermService
		PaymentSvc *school.PaymentService
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home(conf.AppName))
	s.app.GET("/health", health)

	api := s.app.Group("/api", sessionMiddleware(s.deps.Verifier, s.deps.AccountSvc))

	registerAccountAPI(api)
	registerClassAPI(api, s.deps.ClassSvc, s.deps.Validate)
	registerStudentAPI(api, s.deps.StudentSvc, s.deps.Validate)
	registerTeacherAPI(api, s.deps.TeacherSvc, s.deps.Validate)
	registerTermAPI(api, s.deps.TermSvc, s.deps.Validate)
	registerPaymentAPI(api, s.deps.PaymentSvc, s.deps.Validate)
}

// Start blocks until the server stops. Errors are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(appName string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+appName+" API!")
	}
}

func health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}
