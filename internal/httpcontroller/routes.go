// httpcontroller/routes.go
package httpcontroller

import (
	"embed"

	"github.com/labstack/echo/v4/middleware"
)

// Embed the views directory.
//
//go:embed views
var ViewsFs embed.FS

// initRoutes initializes the routes for the server.
func (s *Server) initRoutes() {
	h := s.Handlers

	// Add rate limiter for auth routes
	g := s.Echo.Group("")
	g.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(10)))

	g.GET("/login", h.WithErrorHandling(h.GetLogin))
	g.POST("/login", h.WithErrorHandling(h.PostLogin))
	g.GET("/sign_up", h.WithErrorHandling(h.GetSignUp))
	g.POST("/sign_up", h.WithErrorHandling(h.PostSignUp))

	// Protected routes operate on the current session's user.
	p := s.Echo.Group("", s.AuthMiddleware)
	p.GET("/", h.WithErrorHandling(h.Home))
	p.GET("/logout", h.WithErrorHandling(h.Logout))
	p.GET("/create_patient", h.WithErrorHandling(h.GetCreatePatient))
	p.POST("/create_patient", h.WithErrorHandling(h.PostCreatePatient))
	p.GET("/result_history/:patient_id", h.WithErrorHandling(h.ResultHistory))
	p.GET("/save_result", h.WithErrorHandling(h.GetUploadImage))
	p.POST("/save_result", h.WithErrorHandling(h.PostSaveResult))
	p.GET("/upload_image", h.WithErrorHandling(h.GetUploadImage))
	p.POST("/upload_image", h.WithErrorHandling(h.GetUploadImage))
	p.GET("/get_output", h.WithErrorHandling(h.GetUploadImage))
	p.POST("/get_output", h.WithErrorHandling(h.PostGetOutput))

	// Serve stored slide images.
	s.Echo.Static("/uploads", s.Settings.Uploads.Path)
}
