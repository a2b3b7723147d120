// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"slidesmith/internal/cache"
	"slidesmith/internal/engine"
	"slidesmith/internal/models"
	"slidesmith/internal/render"
	"slidesmith/internal/sharing"
)

// qrSize is the edge length in pixels of the share-link QR code.
const qrSize = 256

// Viewer resolves public carousels. *sharing.Service implements it.
type Viewer interface {
	View(ctx context.Context, id uuid.UUID, client sharing.Client) (*models.Carousel, error)
	Lookup(ctx context.Context, id uuid.UUID) (*models.Carousel, error)
}

// Public serves shared carousels to anonymous visitors.
type Public struct {
	viewer  Viewer
	engine  *engine.Engine
	slides  *cache.SlideCache
	pages   *render.Renderer
	baseURL string
}

// NewPublic creates the public handler group. slides may be nil.
func NewPublic(viewer Viewer, eng *engine.Engine, slides *cache.SlideCache, pages *render.Renderer, baseURL string) *Public {
	return &Public{viewer: viewer, engine: eng, slides: slides, pages: pages, baseURL: baseURL}
}

// publicCarousel is the JSON shape of a shared carousel. Owner and
// visibility fields are left out.
type publicCarousel struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Format    models.Format  `json:"format"`
	Slides    []models.Slide `json:"slides"`
	ViewCount int64          `json:"view_count"`
	UpdatedAt time.Time      `json:"updated_at"`
	URL       string         `json:"url"`
}

// Page renders the share page of a public carousel and records the view.
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		p.notFound(w)
		return
	}

	c, err := p.viewer.View(r.Context(), id, clientOf(r))
	if err != nil {
		p.pageError(w, r, err)
		return
	}

	svgs := p.renderedSlides(r.Context(), c)
	slides := make([]template.HTML, len(svgs))
	for i, svg := range svgs {
		// Engine output escapes every piece of user text.
		slides[i] = template.HTML(svg)
	}

	url := ShareURL(p.baseURL, c.ID)
	p.pages.Carousel(w, &render.CarouselPage{
		Title:    c.Title,
		ShareURL: url,
		QRURL:    "/c/" + c.ID.String() + "/qr.png",
		Format:   c.Format,
		Slides:   slides,
		Views:    c.ViewCount,
		Branding: c.Branding,
	})
}

// JSON returns a public carousel for embedding clients and records the view.
func (p *Public) JSON(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	c, err := p.viewer.View(r.Context(), id, clientOf(r))
	if err != nil {
		fail(w, r, "public carousel", err)
		return
	}

	svgs := p.renderedSlides(r.Context(), c)
	slides := make([]models.Slide, len(c.Slides))
	for i, s := range c.Slides {
		s.SVG = svgs[i]
		slides[i] = s
	}

	writeJSON(w, http.StatusOK, publicCarousel{
		ID:        c.ID,
		Title:     c.Title,
		Format:    c.Format,
		Slides:    slides,
		ViewCount: c.ViewCount,
		UpdatedAt: c.UpdatedAt,
		URL:       ShareURL(p.baseURL, c.ID),
	})
}

// QRCode returns a PNG QR code of the share URL. Fetching it does not count
// as a view.
func (p *Public) QRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	c, err := p.viewer.Lookup(r.Context(), id)
	if err != nil {
		fail(w, r, "share qr code", err)
		return
	}

	png, err := qrcode.Encode(ShareURL(p.baseURL, c.ID), qrcode.Medium, qrSize)
	if err != nil {
		fail(w, r, "encode qr code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// renderedSlides returns the SVG of every slide, from the slide cache when
// this revision of the carousel was rendered before.
func (p *Public) renderedSlides(ctx context.Context, c *models.Carousel) []string {
	if svgs, ok := p.slides.Get(ctx, c.ID, c.UpdatedAt); ok && len(svgs) == len(c.Slides) {
		return svgs
	}

	rendered := p.engine.RenderCarousel(c)
	svgs := make([]string, len(rendered))
	for i, s := range rendered {
		svgs[i] = s.SVG
	}
	p.slides.Set(ctx, c.ID, c.UpdatedAt, svgs)
	return svgs
}

func (p *Public) pageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sharing.ErrNotFound):
		p.notFound(w)
	case errors.Is(err, sharing.ErrPrivate):
		p.pages.Error(w, http.StatusForbidden, "Private carousel", "The owner has not shared this carousel.")
	default:
		slog.Error("public page failed", "error", err, "path", r.URL.Path)
		p.pages.Error(w, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
	}
}

func (p *Public) notFound(w http.ResponseWriter) {
	p.pages.Error(w, http.StatusNotFound, "Carousel not found", "This link does not point to a carousel.")
}

func clientOf(r *http.Request) sharing.Client {
	return sharing.Client{UserAgent: r.UserAgent(), Referrer: r.Referer()}
}
