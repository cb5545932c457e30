package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"

	"EarnView/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFS serves the client script and stylesheet.
func StaticFS() fs.FS { return echo.MustSubFS(staticFS, "static") }

// Renderer renders the dashboard templates. It satisfies echo.Renderer.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("earnview").
		Funcs(template.FuncMap{"coord": view.Coord}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// Fragment renders the swappable part of the page.
func (r *Renderer) Fragment(p view.Page) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "dashboard", p); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// pageData is the root template input.
type pageData struct {
	SessionID string
	WSPath    string
	Page      view.Page
}
