// Package render resolves stores and renders their public pages through
// the closed set of template variants.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/c360studio/tienditas/store"
)

//go:embed templates/*.gohtml
var embeddedTemplates embed.FS

// PageData is the contract every template variant consumes. Variants
// differ only in layout; the data shape is identical across them.
type PageData struct {
	StoreID  string
	Store    *store.Record
	ThemeCSS template.CSS
}

// Renderer renders one store page layout.
type Renderer interface {
	RenderStorePage(w io.Writer, data PageData) error
}

// templateRenderer executes one named page template.
type templateRenderer struct {
	name string
	tmpl *template.Template
}

func (r *templateRenderer) RenderStorePage(w io.Writer, data PageData) error {
	return r.tmpl.ExecuteTemplate(w, r.name, data)
}

// Engine holds the parsed template set and dispatches on TemplateID. The
// variant set is closed: adding a layout means adding a template file and
// a registry entry here, nothing in the data model or editor changes.
type Engine struct {
	logger *slog.Logger

	mu        sync.RWMutex
	renderers map[store.TemplateID]Renderer
	notFound  *template.Template
}

// NewEngine parses the embedded templates.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger}
	if err := e.loadFrom(embeddedTemplates); err != nil {
		return nil, err
	}
	return e, nil
}

// loadFrom parses the full template set from fsys and swaps it in
// atomically: a parse error leaves the previous set serving.
func (e *Engine) loadFrom(fsys fs.FS) error {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}).ParseFS(fsys, "templates/*.gohtml")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	for _, name := range []string{"classic", "modern", "notfound"} {
		if tmpl.Lookup(name) == nil {
			return fmt.Errorf("template %q missing from set", name)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderers = map[store.TemplateID]Renderer{
		store.TemplateClassic: &templateRenderer{name: "classic", tmpl: tmpl},
		store.TemplateModern:  &templateRenderer{name: "modern", tmpl: tmpl},
	}
	e.notFound = tmpl
	return nil
}

// ResolveStore looks up id in the committed collection. An empty id
// resolves to the default store; the resolved identifier is returned so
// the caller can reflect it into the visible address.
func ResolveStore(collection store.Collection, id string) (string, *store.Record, bool) {
	if id == "" {
		id = store.DefaultStoreID
	}
	rec, ok := collection[id]
	return id, rec, ok
}

// Render writes the store page for rec, dispatching on its TemplateID.
// Unrecognized template tags fall back to classic rather than failing.
func (e *Engine) Render(w io.Writer, storeID string, rec *store.Record) error {
	e.mu.RLock()
	renderer, ok := e.renderers[rec.TemplateID]
	if !ok {
		renderer = e.renderers[store.TemplateClassic]
	}
	e.mu.RUnlock()

	return renderer.RenderStorePage(w, PageData{
		StoreID:  storeID,
		Store:    rec,
		ThemeCSS: CSSVars(rec.Theme),
	})
}

// RenderNotFound writes the store-not-found page. It is a first-class
// terminal state, not an error dialog.
func (e *Engine) RenderNotFound(w io.Writer, storeID string) error {
	e.mu.RLock()
	tmpl := e.notFound
	e.mu.RUnlock()
	return tmpl.ExecuteTemplate(w, "notfound", struct{ StoreID string }{StoreID: storeID})
}
