// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"slidesmith/internal/agent"
	"slidesmith/internal/cache"
	"slidesmith/internal/engine"
	"slidesmith/internal/middleware"
	"slidesmith/internal/models"
	"slidesmith/internal/slug"
	"slidesmith/internal/storage"
	"slidesmith/internal/store"
)

// maxPageSize bounds the limit query parameter of List.
const maxPageSize = 100

// CarouselRepository is the carousel store as seen by the library.
type CarouselRepository interface {
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Carousel, error)
	ListByUser(ctx context.Context, userID uuid.UUID, f store.ListFilter) ([]models.CarouselSummary, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Duplicate(ctx context.Context, id, userID uuid.UUID) (*models.Carousel, error)
	SetVisibility(ctx context.Context, id, userID uuid.UUID, public bool) error
}

// ViewStats reads the per-device view breakdown of a carousel.
type ViewStats interface {
	CountByDevice(ctx context.Context, carouselID uuid.UUID) (map[models.Device]int64, error)
}

// Library groups the saved-carousel endpoints of the signed-in user.
type Library struct {
	carousels CarouselRepository
	views     ViewStats
	slides    *cache.SlideCache
	engine    *engine.Engine
	exports   agent.ObjectStore
	baseURL   string
}

// NewLibrary creates the library handler group. slides and exports may be
// nil; without exports the export endpoint answers 501.
func NewLibrary(carousels CarouselRepository, views ViewStats, slides *cache.SlideCache, eng *engine.Engine, exports agent.ObjectStore, baseURL string) *Library {
	return &Library{
		carousels: carousels,
		views:     views,
		slides:    slides,
		engine:    eng,
		exports:   exports,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// ShareURL is the public address of a carousel.
func ShareURL(baseURL string, id uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/c/" + id.String()
}

// List returns the user's carousels, newest first. Query parameters:
// public (true|false), limit, offset.
func (l *Library) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	q := r.URL.Query()

	var f store.ListFilter
	if v := q.Get("public"); v != "" {
		public, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "public must be true or false")
			return
		}
		f.Public = &public
	}
	var err error
	if f.Limit, err = uintParam(q.Get("limit")); err != nil || f.Limit > maxPageSize {
		writeError(w, http.StatusBadRequest, "limit must be between 0 and 100")
		return
	}
	if f.Offset, err = uintParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	items, err := l.carousels.ListByUser(r.Context(), sess.UserID, f)
	if err != nil {
		fail(w, r, "list carousels", err)
		return
	}
	total, err := l.carousels.CountByUser(r.Context(), sess.UserID)
	if err != nil {
		fail(w, r, "count carousels", err)
		return
	}
	if items == nil {
		items = []models.CarouselSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"carousels": items, "total": total})
}

// Get returns one carousel of the user.
func (l *Library) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := l.owned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a carousel and its cached renders.
func (l *Library) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := l.carousels.Delete(r.Context(), id, sess.UserID); err != nil {
		fail(w, r, "delete carousel", err)
		return
	}
	l.slides.Invalidate(r.Context(), id)
	slog.Info("carousel deleted", "carousel_id", id, "user_id", sess.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// Duplicate copies a carousel into a new private one. The copy counts
// against the storage limit.
func (l *Library) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	c, err := l.carousels.Duplicate(r.Context(), id, sess.UserID)
	if err != nil {
		fail(w, r, "duplicate carousel", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type visibilityRequest struct {
	Public *bool `json:"public" validate:"required"`
}

// SetVisibility publishes or unpublishes a carousel. Cached renders are
// dropped either way so a re-published carousel is rendered fresh.
func (l *Library) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req visibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if err := l.carousels.SetVisibility(r.Context(), id, sess.UserID, *req.Public); err != nil {
		fail(w, r, "set visibility", err)
		return
	}
	l.slides.Invalidate(r.Context(), id)

	resp := map[string]any{"public": *req.Public}
	if *req.Public {
		resp["url"] = ShareURL(l.baseURL, id)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats returns the view counter and the per-device breakdown.
func (l *Library) Stats(w http.ResponseWriter, r *http.Request) {
	c, ok := l.owned(w, r)
	if !ok {
		return
	}
	devices, err := l.views.CountByDevice(r.Context(), c.ID)
	if err != nil {
		fail(w, r, "view stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"views":   c.ViewCount,
		"devices": devices,
	})
}

// Export renders every slide and uploads the SVG files to object storage,
// returning their URLs in slide order.
func (l *Library) Export(w http.ResponseWriter, r *http.Request) {
	if l.exports == nil {
		writeError(w, http.StatusNotImplemented, "object storage is not configured")
		return
	}
	c, ok := l.owned(w, r)
	if !ok {
		return
	}

	slides := l.engine.RenderCarousel(c)
	urls := make([]string, len(slides))
	for i, s := range slides {
		key := storage.ExportKey(c.UserID, c.ID, i)
		if err := l.exports.Upload(r.Context(), key, "image/svg+xml", strings.NewReader(s.SVG), int64(len(s.SVG))); err != nil {
			fail(w, r, "export carousel", err)
			return
		}
		urls[i] = l.exports.FileURL(key)
	}

	slog.Info("carousel exported", "carousel_id", c.ID, "slides", len(urls))
	writeJSON(w, http.StatusOK, map[string]any{
		"name":  slug.Generate(c.Title, "carousel"),
		"files": urls,
	})
}

// owned loads the carousel named by the id parameter, answering 404 when it
// does not exist or belongs to someone else.
func (l *Library) owned(w http.ResponseWriter, r *http.Request) (*models.Carousel, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	sess := middleware.SessionFromCtx(r.Context())
	c, err := l.carousels.FindOwned(r.Context(), id, sess.UserID)
	if err != nil {
		fail(w, r, "load carousel", err)
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return c, true
}

func uintParam(v string) (uint64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.New("not a non-negative integer")
	}
	return n, nil
}
