// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public share
// pages. Every page template is paired with the shared base layout and
// parsed once from the embedded filesystem.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"slidesmith/internal/models"
)

//go:embed templates/*.html
var pageFS embed.FS

// CarouselPage holds the data of the public carousel page. Slides are the
// rendered SVG documents in slide order.
type CarouselPage struct {
	Title    string
	ShareURL string
	QRURL    string
	Format   models.Format
	Slides   []template.HTML
	Views    int64
	Branding models.Branding
}

// ErrorPage is shown for missing and private carousels.
type ErrorPage struct {
	Status  int
	Title   string
	Message string
}

// Renderer handles template parsing and execution for public pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New creates a Renderer by parsing all page templates from the embedded
// filesystem. Each page template is paired with the base layout.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// aspect returns the aspect-ratio declaration of a slide format.
			"aspect": func(f models.Format) template.CSS {
				w, h := f.Dimensions()
				return template.CSS(fmt.Sprintf("aspect-ratio: %d / %d", w, h))
			},
			"inc": func(i int) int { return i + 1 },
		},
	}

	entries, err := pageFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			pageFS, "templates/base.html", "templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Page renders a full page with the given status. The output is buffered so
// a template error never leaves a half-written page behind.
func (rn *Renderer) Page(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, "base.html", data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Carousel renders the public carousel page.
func (rn *Renderer) Carousel(w http.ResponseWriter, data *CarouselPage) {
	rn.Page(w, http.StatusOK, "carousel", data)
}

// Error renders the error page with the given status.
func (rn *Renderer) Error(w http.ResponseWriter, status int, title, message string) {
	rn.Page(w, status, "error", &ErrorPage{Status: status, Title: title, Message: message})
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}
