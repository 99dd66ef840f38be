package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/pkg/storage"
)

//go:embed templates
var files embed.FS

const layout = "base"

// Renderer implements echo.Renderer over the embedded page templates. Each
// page is parsed together with the shared layout and includes.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page template. media turns storage keys into URLs.
func New(media storage.URLBuilder) (*Renderer, error) {
	funcs := Funcs(media)

	shared := []string{"templates/base.html", "templates/includes/*.html"}
	r := &Renderer{pages: make(map[string]*template.Template)}

	err := fs.WalkDir(files, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if p == "templates/base.html" || strings.HasPrefix(p, "templates/includes/") {
			return nil
		}
		name := strings.TrimPrefix(p, "templates/")
		tmpl, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(files, append(shared, p)...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render executes the layout for the named page, e.g. "posts/index.html".
// The page is rendered into a buffer first so a failing template never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layout, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Funcs returns the helpers available to every template.
func Funcs(media storage.URLBuilder) template.FuncMap {
	return template.FuncMap{
		"mediaURL": media.URL,
		"date": func(t time.Time) string {
			return t.Format("2 January 2006 15:04")
		},
		"linebreaksbr": func(s string) template.HTML {
			escaped := template.HTMLEscapeString(s)
			escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
			return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
		},
		"add": func(a, b int) int { return a + b },
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}
}
