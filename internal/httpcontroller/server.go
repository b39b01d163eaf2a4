// internal/httpcontroller/server.go
package httpcontroller

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/datastore"
	"github.com/histolab/msinet-go/internal/httpcontroller/handlers"
	"github.com/histolab/msinet-go/internal/logging"
	"github.com/histolab/msinet-go/internal/msinet"
	"github.com/histolab/msinet-go/internal/security"
)

// Server encapsulates the Echo server and related configuration.
type Server struct {
	Echo       *echo.Echo
	DS         datastore.Interface
	Settings   *conf.Settings
	Sessions   *security.SessionManager
	Classifier msinet.Classifier
	Handlers   *handlers.Handlers

	// Structured logger for web operations
	webLogger      *slog.Logger
	webLoggerClose func() error
}

// New initializes a new HTTP server with the given datastore and classifier.
func New(settings *conf.Settings, dataStore datastore.Interface, classifier msinet.Classifier) *Server {
	configureDefaultSettings(settings)

	s := &Server{
		Echo:       echo.New(),
		DS:         dataStore,
		Settings:   settings,
		Sessions:   security.NewSessionManager(settings),
		Classifier: classifier,
	}

	// Initialize handlers
	s.Handlers = handlers.New(s.DS, s.Settings, s.Sessions, s.Classifier, nil)

	s.initializeServer()
	return s
}

// Start begins listening and serving HTTP requests.
func (s *Server) Start() {
	errChan := make(chan error)

	go func() {
		if err := s.Echo.Start(":" + s.Settings.WebServer.Port); err != nil {
			errChan <- err
		}
	}()

	go handleServerError(errChan)

	fmt.Printf("HTTP server started on port %s\n", s.Settings.WebServer.Port)
}

// initializeServer configures and initializes the server.
func (s *Server) initializeServer() {
	s.Echo.HideBanner = true
	s.initLogger()
	s.configureMiddleware()
	s.setupTemplateRenderer()
	s.initRoutes()
}

// configureDefaultSettings sets default values for server settings.
func configureDefaultSettings(settings *conf.Settings) {
	if settings.WebServer.Port == "" {
		settings.WebServer.Port = "8080"
	}
}

// handleServerError listens for server errors and handles them.
func handleServerError(errChan chan error) {
	for err := range errChan {
		log.Printf("Server error: %v", err)
	}
}

// initLogger initializes the structured web request logger.
func (s *Server) initLogger() {
	if !s.Settings.WebServer.Log.Enabled {
		return
	}

	webLogPath := s.Settings.WebServer.Log.Path
	webLogger, closeFunc, err := logging.NewFileLogger(webLogPath, "web", slog.LevelInfo)
	if err != nil {
		log.Printf("Warning: Failed to initialize web structured logger: %v", err)
		// Continue without structured logging rather than failing completely
		return
	}
	s.webLogger = webLogger
	s.webLoggerClose = closeFunc

	// Discard Echo's default log output, rely on middleware
	s.Echo.Logger.SetOutput(io.Discard)
	s.Echo.Logger.SetLevel(99)
}

// Debug logs debug messages if debug mode is enabled
func (s *Server) Debug(format string, v ...interface{}) {
	if !s.Settings.WebServer.Debug {
		return
	}
	switch len(v) {
	case 0:
		log.Print(format)
	default:
		log.Printf(format, v...)
	}
	if s.webLogger != nil {
		s.webLogger.Debug(fmt.Sprintf(format, v...))
	}
}

// Shutdown performs cleanup operations and gracefully stops the server
func (s *Server) Shutdown() error {
	if s.webLoggerClose != nil {
		if err := s.webLoggerClose(); err != nil {
			log.Printf("Error closing web log file: %v", err)
		}
	}
	return s.Echo.Close()
}

// LoggingMiddleware creates a middleware function that logs HTTP requests
// with structured timing information.
func (s *Server) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if s.webLogger == nil {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)

			req := ctx.Request()
			res := ctx.Response()

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"query", req.URL.RawQuery,
				"status", res.Status,
				"ip", ctx.RealIP(),
				"user_agent", req.UserAgent(),
				"latency_ms", time.Since(start).Milliseconds(),
				"bytes_out", res.Size,
			}

			switch {
			case err != nil:
				attrs = append(attrs, "error", err.Error())
				s.webLogger.Error("HTTP Request", attrs...)
			case res.Status >= 400:
				s.webLogger.Warn("HTTP Request", attrs...)
			default:
				s.webLogger.Info("HTTP Request", attrs...)
			}

			return err
		}
	}
}
