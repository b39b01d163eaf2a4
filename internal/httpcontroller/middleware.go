package httpcontroller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// UserContextKey is the key used to store the authenticated user in the context
const UserContextKey = "user"

// configureMiddleware sets up middleware for the server.
func (s *Server) configureMiddleware() {
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(s.LoggingMiddleware())
}

// AuthMiddleware gates protected routes. Requests without a session identity
// are redirected to the login page; otherwise the session user is resolved
// from the datastore and stored in the request context.
func (s *Server) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := s.Sessions.CurrentUserID(c)
		if !ok {
			return c.Redirect(http.StatusFound, "/login")
		}

		user, err := s.DS.GetUser(userID)
		if err != nil {
			// Stale session referencing a removed account, drop it.
			_ = s.Sessions.LogoutUser(c)
			return c.Redirect(http.StatusFound, "/login")
		}

		c.Set(UserContextKey, user)
		return next(c)
	}
}
