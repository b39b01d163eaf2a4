package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/datastore"
	"github.com/histolab/msinet-go/internal/errors"
	"github.com/histolab/msinet-go/internal/msinet"
	"github.com/histolab/msinet-go/internal/security"
)

// Handlers contains all the handler functions and their dependencies
type Handlers struct {
	baseHandler
	DS         datastore.Interface
	Settings   *conf.Settings
	Sessions   *security.SessionManager
	Classifier msinet.Classifier
	debug      bool
}

// HandlerError is a custom error type that includes an HTTP status code and a user-friendly message.
type HandlerError struct {
	Err     error
	Message string
	Code    int
}

// Error implements the error interface for HandlerError.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// baseHandler provides common functionality for all handlers.
type baseHandler struct {
	logger *log.Logger
}

// NewHandlerError creates a new HandlerError with the given parameters.
func (bh *baseHandler) NewHandlerError(err error, message string, code int) *HandlerError {
	handlerErr := &HandlerError{
		Err:     err,
		Message: message,
		Code:    code,
	}
	bh.logger.Printf("Error: %s (Code: %d, Underlying error: %v)", handlerErr.Message, handlerErr.Code, handlerErr.Err)
	return handlerErr
}

// New creates a new Handlers instance with the given dependencies.
func New(ds datastore.Interface, settings *conf.Settings, sessions *security.SessionManager, classifier msinet.Classifier, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	}

	return &Handlers{
		baseHandler: baseHandler{logger: logger},
		DS:          ds,
		Settings:    settings,
		Sessions:    sessions,
		Classifier:  classifier,
		debug:       settings.Debug,
	}
}

// HandleError is a utility method to handle errors in Echo handlers.
func (h *Handlers) HandleError(err error, c echo.Context) error {
	var he *HandlerError
	var echoHTTPError *echo.HTTPError
	var enhancedErr *errors.EnhancedError

	switch {
	case errors.As(err, &he):
		// It's already a HandlerError, use it as is
	case errors.As(err, &echoHTTPError):
		he = &HandlerError{
			Err:     echoHTTPError,
			Message: fmt.Sprintf("%v", echoHTTPError.Message),
			Code:    echoHTTPError.Code,
		}
	case errors.As(err, &enhancedErr):
		he = &HandlerError{
			Err:     enhancedErr,
			Message: enhancedErr.Error(),
			Code:    mapCategoryToHTTPStatus(enhancedErr.GetCategory()),
		}
	default:
		he = &HandlerError{
			Err:     err,
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		}
	}

	if c.Response().Committed {
		return nil
	}

	if he.Code >= http.StatusInternalServerError {
		h.logger.Printf("Error: %s (Code: %d, Underlying error: %v)", he.Message, he.Code, he.Err)
	}

	errorData := map[string]interface{}{
		"Title":   fmt.Sprintf("%d Error", he.Code),
		"Code":    he.Code,
		"Message": he.Message,
		"User":    c.Get("user"),
		"Flashes": []security.FlashView{},
	}

	return c.Render(he.Code, "error", errorData)
}

// mapCategoryToHTTPStatus maps error categories to appropriate HTTP status codes
func mapCategoryToHTTPStatus(category errors.ErrorCategory) int {
	switch category {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WithErrorHandling wraps an Echo handler function with error handling.
func (h *Handlers) WithErrorHandling(fn func(echo.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := fn(c)
		if err != nil {
			return h.HandleError(err, c)
		}
		return nil
	}
}

// currentUser returns the authenticated user resolved by the auth middleware,
// or nil on unauthenticated routes.
func currentUser(c echo.Context) *datastore.User {
	user, _ := c.Get("user").(*datastore.User)
	return user
}

// pageTitles maps template names to the title shown in the browser tab.
var pageTitles = map[string]string{
	"login":          "Login",
	"sign_up":        "Sign Up",
	"home":           "Home",
	"create_patient": "Create Patient",
	"result_history": "Result History",
	"upload_image":   "Upload Image",
}

// render renders a page template with the base data every view expects:
// the page title, the current user and any pending flash messages.
func (h *Handlers) render(c echo.Context, code int, name string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = pageTitles[name]
	}
	if _, ok := data["User"]; !ok {
		data["User"] = currentUser(c)
	}
	data["Flashes"] = h.Sessions.Flashes(c)
	return c.Render(code, name, data)
}
