package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
)

// errorMessage is what a failed section tells the visitor.
func errorMessage(err error, fallback string) string {
	if apiclient.IsTimeout(err) {
		return fallback + ": the server took too long to answer."
	}
	return apiclient.MessageOf(err, fallback)
}

// layoutFiles are parsed into every page.
var layoutFiles = []string{"layout.html", "partials.html"}

// TemplateCache holds parsed templates
type TemplateCache struct {
	cache map[string]*template.Template
	funcs template.FuncMap
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		cache: make(map[string]*template.Template),
		funcs: template.FuncMap{
			"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
			"date":  func(t models.Timestamp) string { return t.Display() },
			"errmsg": errorMessage,
			"deref": func(d *decimal.Decimal) decimal.Decimal {
				if d == nil {
					return decimal.Zero
				}
				return *d
			},
			"lower": strings.ToLower,
		},
	}
}

// Load parses every page in fsys together with the shared layout files.
func (tc *TemplateCache) Load(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return err
	}
	for _, name := range files {
		if slices.Contains(layoutFiles, name) {
			continue
		}
		patterns := append(slices.Clone(layoutFiles), name)
		tmpl, err := template.New(name).Funcs(tc.funcs).ParseFS(fsys, patterns...)
		if err != nil {
			slog.Error("Failed to parse template", "file", name, "error", err)
			return err
		}
		tc.cache[name] = tmpl
		slog.Debug("Cached template", "name", name)
	}
	return nil
}

func (tc *TemplateCache) Get(name string) *template.Template {
	return tc.cache[name]
}

// Render executes the page inside the layout. Output is buffered so a
// failing template never leaves a half-written page.
func (tc *TemplateCache) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := tc.RenderBlock(&buf, name, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Client went away while writing page", "template", name, "error", err)
	}
	return nil
}

// RenderBlock executes one named template of a page, e.g. a live section.
func (tc *TemplateCache) RenderBlock(w io.Writer, name, block string, data any) error {
	tmpl := tc.Get(name)
	if tmpl == nil {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, block, data)
}
