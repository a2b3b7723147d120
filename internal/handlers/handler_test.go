// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Collaborators are in-memory fakes so the handlers run without PostgreSQL,
// Valkey or a model backend.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slidesmith/internal/agent"
	"slidesmith/internal/middleware"
	"slidesmith/internal/models"
	"slidesmith/internal/normalize"
	"slidesmith/internal/session"
	"slidesmith/internal/store"
	"slidesmith/internal/theme"
)

// fakeCarousels is an in-memory carousel store. It satisfies every
// carousel-facing interface of the handlers plus autosave.Saver and
// sharing.Carousels.
type fakeCarousels struct {
	mu     sync.Mutex
	items  map[uuid.UUID]*models.Carousel
	limit  int
	err    error
	views  map[uuid.UUID]int
	clock  time.Time
	writes int
}

func newFakeCarousels() *fakeCarousels {
	return &fakeCarousels{
		items: make(map[uuid.UUID]*models.Carousel),
		views: make(map[uuid.UUID]int),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeCarousels) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// add stores c as-is and returns it.
func (f *fakeCarousels) add(c *models.Carousel) *models.Carousel {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.UpdatedAt = f.tick()
	cp := *c
	f.items[c.ID] = &cp
	return c
}

func (f *fakeCarousels) get(id uuid.UUID) *models.Carousel {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (f *fakeCarousels) countLocked(userID uuid.UUID) int {
	n := 0
	for _, c := range f.items {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func (f *fakeCarousels) Create(_ context.Context, c *models.Carousel) (*models.Carousel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(c.Slides) == 0 {
		return nil, store.ErrEmptyCarousel
	}
	if f.limit > 0 && f.countLocked(c.UserID) >= f.limit {
		return nil, store.ErrStorageLimit
	}
	cp := *c
	cp.ID = uuid.New()
	cp.CreatedAt = f.tick()
	cp.UpdatedAt = cp.CreatedAt
	f.items[cp.ID] = &cp
	f.writes++
	out := cp
	return &out, nil
}

func (f *fakeCarousels) Update(_ context.Context, c *models.Carousel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.items[c.ID]
	if !ok || cur.UserID != c.UserID {
		return store.ErrNotFound
	}
	cp := *c
	cp.IsPublic, cp.ViewCount, cp.CreatedAt = cur.IsPublic, cur.ViewCount, cur.CreatedAt
	cp.UpdatedAt = f.tick()
	f.items[c.ID] = &cp
	f.writes++
	return nil
}

func (f *fakeCarousels) FindByID(_ context.Context, id uuid.UUID) (*models.Carousel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.get(id), nil
}

func (f *fakeCarousels) FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Carousel, error) {
	c, err := f.FindByID(ctx, id)
	if err != nil || c == nil || c.UserID != userID {
		return nil, err
	}
	return c, nil
}

func (f *fakeCarousels) ListByUser(_ context.Context, userID uuid.UUID, lf store.ListFilter) ([]models.CarouselSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CarouselSummary
	for _, c := range f.items {
		if c.UserID != userID || (lf.Public != nil && c.IsPublic != *lf.Public) {
			continue
		}
		out = append(out, models.CarouselSummary{
			ID: c.ID, Title: c.Title, SlideCount: len(c.Slides),
			IsPublic: c.IsPublic, ViewCount: c.ViewCount, UpdatedAt: c.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if lf.Offset > 0 {
		if int(lf.Offset) >= len(out) {
			return nil, nil
		}
		out = out[lf.Offset:]
	}
	if lf.Limit > 0 && int(lf.Limit) < len(out) {
		out = out[:lf.Limit]
	}
	return out, nil
}

func (f *fakeCarousels) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(userID), nil
}

func (f *fakeCarousels) Delete(_ context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCarousels) Duplicate(ctx context.Context, id, userID uuid.UUID) (*models.Carousel, error) {
	src, _ := f.FindOwned(ctx, id, userID)
	if src == nil {
		return nil, store.ErrNotFound
	}
	src.IsPublic = false
	src.ViewCount = 0
	src.Title += " (copy)"
	return f.Create(ctx, src)
}

func (f *fakeCarousels) SetVisibility(_ context.Context, id, userID uuid.UUID, public bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	c.IsPublic = public
	c.UpdatedAt = f.tick()
	return nil
}

func (f *fakeCarousels) IncrementViews(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.items[id]; ok {
		c.ViewCount++
	}
	f.views[id]++
	return nil
}

func (f *fakeCarousels) viewCount(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[id]
}

func (f *fakeCarousels) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// fakeViews records views in memory.
type fakeViews struct {
	mu      sync.Mutex
	records []models.View
}

func (f *fakeViews) Record(_ context.Context, v models.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, v)
	return nil
}

func (f *fakeViews) CountByDevice(_ context.Context, id uuid.UUID) (map[models.Device]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[models.Device]int64)
	for _, v := range f.records {
		if v.CarouselID == id {
			out[v.Device]++
		}
	}
	return out, nil
}

// fakeNormalizer returns the text of topic and text inputs and a fixed
// page for urls.
type fakeNormalizer struct {
	err error
}

func (f *fakeNormalizer) Normalize(_ context.Context, in normalize.Input) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if in.Mode == normalize.ModeURL {
		return "page text from " + in.URL, nil
	}
	if strings.TrimSpace(in.Text) == "" {
		return "", normalize.ErrEmptyInput
	}
	return in.Text, nil
}

// fakeAgent captures its inputs and returns canned results.
type fakeAgent struct {
	draft    *agent.Draft
	refine   *agent.RefineResult
	imageURL string
	err      error

	gotTopic, gotSource string
	gotSettings         agent.Settings
}

func (f *fakeAgent) GenerateSlides(_ context.Context, topic, source string, s agent.Settings) (*agent.Draft, error) {
	f.gotTopic, f.gotSource, f.gotSettings = topic, source, s
	return f.draft, f.err
}

func (f *fakeAgent) Refine(_ context.Context, req agent.RefineRequest) (*agent.RefineResult, error) {
	return f.refine, f.err
}

func (f *fakeAgent) GenerateImage(_ context.Context, _ uuid.UUID, _, _ string) (string, error) {
	return f.imageURL, f.err
}

type fakeModels struct{}

func (fakeModels) Available() []string           { return []string{"claude", "openai"} }
func (fakeModels) ActiveName() string            { return "openai" }
func (fakeModels) SupportsImageGeneration() bool { return true }

// fakeObjectStore keeps uploads in memory.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjectStore) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = b
	return nil
}

func (f *fakeObjectStore) FileURL(key string) string {
	return "https://cdn.example/" + key
}

// sampleSlides is a small valid deck covering every variant.
func sampleSlides() []models.Slide {
	return []models.Slide{
		{Position: 0, Variant: models.VariantHero, Headline: "Ship faster"},
		{Position: 1, Variant: models.VariantBody, Headline: "Why", Body: "Less waiting."},
		{Position: 2, Variant: models.VariantList, Headline: "How", Items: []models.ListItem{{Text: "Plan"}, {Text: "Cut"}}},
		{Position: 3, Variant: models.VariantCTA, Headline: "Try it", Footer: "@ada"},
	}
}

// sampleCarousel returns a complete carousel owned by userID.
func sampleCarousel(userID uuid.UUID, public bool) *models.Carousel {
	return &models.Carousel{
		UserID:       userID,
		Title:        "Ship faster",
		TemplateType: models.TemplateEditorial,
		PresetID:     "paper",
		Theme:        theme.Resolve("paper", models.TemplateEditorial),
		Format:       models.FormatPortrait,
		Pattern:      models.PatternNone,
		Slides:       sampleSlides(),
		IsPublic:     public,
	}
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID) *session.Data {
	return &session.Data{UserID: userID, Email: "ada@example.com", DisplayName: "Ada"}
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withSession adds session data to the request context.
func withSession(r *http.Request, data *session.Data) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), data))
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody decodes a JSON response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// errorOf returns the error message of a JSON error response.
func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeBody(t, rec, &body)
	return body.Error
}
