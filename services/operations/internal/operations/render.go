package operations

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

const (
	PageSignIn    = "signin.html"
	PageDashboard = "dashboard.html"
	PageAudit     = "audit.html"
	PageError     = "error.html"
)

var pages = []string{PageSignIn, PageDashboard, PageAudit, PageError}

type NavLink struct {
	Label  string
	Path   string
	Active bool
}

// PageData is what every page template receives.
type PageData struct {
	Title   string
	Session *Session
	Nav     []NavLink
	Error   string
	Email   string
	Area    string
	View    View
	Entries []*AuditEntry
	Filters map[string]string
	// Stream enables the live delivery feed on the page.
	Stream bool
}

// Renderer holds one parsed template set per page, each layered on the base layout.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"label": Label,
	"date": func(e *AuditEntry) string {
		return e.CreatedAt.Format(displayTime)
	},
}

// NewRenderer parses templates/base.html with each page of templates/.
func NewRenderer(assets fs.FS) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(assets, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render buffers the page so a template failure still answers a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return fmt.Errorf("unknown page %s", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return fmt.Errorf("cannot render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
