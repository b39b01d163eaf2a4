package httpcontroller

import (
	"bytes"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// TemplateRenderer is a custom HTML template renderer for the Echo framework.
type TemplateRenderer struct {
	templates *template.Template
	logger    echo.Logger
}

// Render renders a template with the given data.
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	// Render into a buffer first so template execution errors never produce
	// a half-written response.
	var buf bytes.Buffer
	err := t.templates.ExecuteTemplate(&buf, name, data)
	if err != nil {
		t.logger.Errorf("Error executing template %s: %v", name, err)
		return err
	}

	_, err = buf.WriteTo(w)
	if err != nil {
		t.logger.Errorf("Error writing template result: %v", err)
	}
	return err
}

// setupTemplateRenderer configures the template renderer for the server
func (s *Server) setupTemplateRenderer() {
	tmpl, err := template.New("").ParseFS(ViewsFs, "views/*.html")
	if err != nil {
		s.Echo.Logger.Fatal(err)
	}

	s.Echo.Renderer = &TemplateRenderer{
		templates: tmpl,
		logger:    s.Echo.Logger,
	}
}
