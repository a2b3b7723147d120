// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders carousel slides as self-contained SVG documents.
// It selects a template from a fixed catalog, injects theme variables into
// the embedded stylesheet and substitutes slide content into placeholder
// tokens. Rendering is pure: the same input always yields the same bytes,
// which lets rendered slides be cached by a fingerprint of their input.
package engine

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"slidesmith/internal/models"
)

// ErrUnsupported is returned by Validate for template, variant, format or
// pattern values outside the catalog.
var ErrUnsupported = errors.New("engine: unsupported render input")

// Input is everything a single slide render depends on.
type Input struct {
	Template       models.TemplateType `json:"template"`
	Slide          models.Slide        `json:"slide"`
	Theme          models.Theme        `json:"theme"`
	Branding       models.Branding     `json:"branding"`
	Format         models.Format       `json:"format"`
	Pattern        models.Pattern      `json:"pattern"`
	PatternOpacity float64             `json:"pattern_opacity"`
}

// InputFor builds the render input for one slide of a carousel.
func InputFor(c *models.Carousel, slide models.Slide) Input {
	return Input{
		Template:       c.TemplateType,
		Slide:          slide,
		Theme:          c.Theme,
		Branding:       c.Branding,
		Format:         c.Format,
		Pattern:        c.Pattern,
		PatternOpacity: c.PatternOpacity,
	}
}

// Validate checks that the input selects an existing catalog entry. HTTP
// handlers call it before Render, which treats unknown combinations as
// programming errors.
func Validate(in Input) error {
	if !in.Template.Valid() {
		return fmt.Errorf("%w: template %q", ErrUnsupported, in.Template)
	}
	if !in.Slide.Variant.Valid() {
		return fmt.Errorf("%w: variant %q", ErrUnsupported, in.Slide.Variant)
	}
	if !in.Format.Valid() {
		return fmt.Errorf("%w: format %q", ErrUnsupported, in.Format)
	}
	if !in.Pattern.Valid() {
		return fmt.Errorf("%w: pattern %q", ErrUnsupported, in.Pattern)
	}
	return nil
}

// Render produces the SVG markup for one slide. It panics if the input
// names a template, variant or format outside the catalog.
func Render(in Input) string {
	tmpl := lookup(in.Template, in.Slide.Variant, in.Format)
	w, h := in.Format.Dimensions()

	r := strings.NewReplacer(
		tokenStyle, styleVars(in.Theme),
		tokenWidth, strconv.Itoa(w),
		tokenHeight, strconv.Itoa(h),
		tokenPattern, patternOverlay(in.Pattern, in.PatternOpacity),
		tokenPreheader, escapeText(in.Slide.Preheader),
		tokenHeadline, escapeText(in.Slide.Headline),
		tokenBody, escapeText(in.Slide.Body),
		tokenListItems, listItems(in.Slide.Items),
		tokenFooter, escapeText(in.Slide.Footer),
		tokenImage, slideImage(in.Slide.ImageURL),
		tokenBranding, brandingCard(in.Branding, in.Format),
	)
	return r.Replace(tmpl)
}

// Engine renders slides and keeps recently rendered output in an in-process
// thumbnail cache keyed by the fingerprint of the render input.
type Engine struct {
	cache *thumbnailCache
}

// New creates an engine whose thumbnails expire after ttl. A zero ttl uses
// DefaultThumbnailTTL.
func New(ttl time.Duration) *Engine {
	if ttl == 0 {
		ttl = DefaultThumbnailTTL
	}
	return &Engine{cache: newThumbnailCache(ttl)}
}

// Render returns the SVG for in, serving it from the thumbnail cache when
// the same input was rendered before.
func (e *Engine) Render(in Input) string {
	// The slide's own SVG field is the output cache, not an input.
	in.Slide.SVG = ""

	key := cacheKeyFor(in)
	if svg, ok := e.cache.get(key); ok {
		return svg
	}

	svg := Render(in)
	e.cache.put(key, svg)
	return svg
}

// RenderCarousel renders every slide of c in order and returns the slides
// with their SVG field filled. The carousel itself is not modified.
func (e *Engine) RenderCarousel(c *models.Carousel) []models.Slide {
	out := make([]models.Slide, len(c.Slides))
	for i, s := range c.Slides {
		s.SVG = e.Render(InputFor(c, s))
		out[i] = s
	}
	return out
}

// CachedCount returns the number of thumbnails currently held.
func (e *Engine) CachedCount() int {
	return e.cache.count()
}

// Purge drops all cached thumbnails.
func (e *Engine) Purge() {
	e.cache.flush()
}

// escapeText makes user text safe inside the XHTML content region. Line
// breaks become <br/> so multi-line bodies keep their shape.
func escapeText(s string) string {
	s = html.EscapeString(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br/>")
}

// styleVars emits the theme as CSS custom properties on the root element.
func styleVars(t models.Theme) string {
	var b strings.Builder
	b.WriteString("svg.slide{")
	vars := [...][2]string{
		{"--bg", t.Background},
		{"--surface", t.Surface},
		{"--text", t.Text},
		{"--muted", t.Muted},
		{"--accent", t.Accent},
		{"--accent-text", t.AccentText},
		{"--font-heading", t.FontHeading},
		{"--font-body", t.FontBody},
	}
	for _, v := range vars {
		b.WriteString(v[0])
		b.WriteByte(':')
		b.WriteString(html.EscapeString(v[1]))
		b.WriteByte(';')
	}
	b.WriteString("}")
	return b.String()
}

// listItems builds one <li> fragment per item, preserving order.
func listItems(items []models.ListItem) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("<li>")
		if it.Title != "" {
			b.WriteString("<strong>")
			b.WriteString(escapeText(it.Title))
			b.WriteString("</strong> ")
		}
		b.WriteString(escapeText(it.Text))
		b.WriteString("</li>")
	}
	return b.String()
}

func slideImage(url string) string {
	if url == "" {
		return ""
	}
	return `<img class="visual" src="` + html.EscapeString(url) + `" alt=""/>`
}

// patternOverlay returns the decorative pattern definition and the rect
// that paints it. Opacity is clamped to [0, 1].
func patternOverlay(p models.Pattern, opacity float64) string {
	var shape string
	switch p {
	case models.PatternDots:
		shape = `<circle class="pat" cx="6" cy="6" r="3"/>`
	case models.PatternGrid:
		shape = `<path class="pat-line" d="M40 0 L0 0 0 40" stroke-width="1.5"/>`
	case models.PatternDiagonal:
		shape = `<path class="pat-line" d="M0 40 L40 0" stroke-width="2"/>`
	case models.PatternWaves:
		shape = `<path class="pat-line" d="M0 20 Q10 10 20 20 T40 20" stroke-width="2"/>`
	default:
		return ""
	}

	opacity = min(max(opacity, 0), 1)
	if opacity == 0 {
		return ""
	}

	id := "pattern-" + string(p)
	return `<defs><pattern id="` + id + `" width="40" height="40" patternUnits="userSpaceOnUse">` +
		shape + `</pattern></defs>` +
		`<rect x="0" y="0" width="100%" height="100%" fill="url(#` + id + `)" opacity="` +
		strconv.FormatFloat(opacity, 'f', 2, 64) + `"/>`
}

// brandingCard renders the signature card along the bottom edge. Disabled
// or empty branding yields no markup.
func brandingCard(b models.Branding, f models.Format) string {
	if b.IsZero() {
		return ""
	}
	m := metricsFor(f)
	y := m.height - m.pad - 96

	var sb strings.Builder
	fmt.Fprintf(&sb, `<g class="brand" transform="translate(%d %d)">`, m.pad, y)
	if b.AvatarURL != "" {
		sb.WriteString(`<defs><clipPath id="brand-avatar-clip"><circle cx="48" cy="48" r="48"/></clipPath></defs>`)
		sb.WriteString(`<image href="` + html.EscapeString(b.AvatarURL) + `" x="0" y="0" width="96" height="96" clip-path="url(#brand-avatar-clip)" preserveAspectRatio="xMidYMid slice"/>`)
	} else {
		sb.WriteString(`<circle class="brand-avatar" cx="48" cy="48" r="48"/>`)
		sb.WriteString(`<text class="brand-initial" x="48" y="60" text-anchor="middle">` + html.EscapeString(initial(b)) + `</text>`)
	}
	sb.WriteString(`<text class="brand-name" x="120" y="42">` + html.EscapeString(b.Name) + `</text>`)

	second := b.Handle
	if b.Tagline != "" {
		if second != "" {
			second += " · "
		}
		second += b.Tagline
	}
	sb.WriteString(`<text class="brand-handle" x="120" y="80">` + html.EscapeString(second) + `</text>`)
	sb.WriteString(`</g>`)
	return sb.String()
}

func initial(b models.Branding) string {
	for _, s := range []string{b.Name, strings.TrimPrefix(b.Handle, "@")} {
		for _, r := range s {
			return strings.ToUpper(string(r))
		}
	}
	return ""
}
