// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"slidesmith/internal/agent"
	"slidesmith/internal/engine"
	"slidesmith/internal/metrics"
	"slidesmith/internal/middleware"
	"slidesmith/internal/models"
	"slidesmith/internal/normalize"
	"slidesmith/internal/theme"
)

// SourceNormalizer turns a raw input into agent source text.
type SourceNormalizer interface {
	Normalize(ctx context.Context, in normalize.Input) (string, error)
}

// SlideAgent is the model-backed half of the studio.
type SlideAgent interface {
	GenerateSlides(ctx context.Context, topic, source string, s agent.Settings) (*agent.Draft, error)
	Refine(ctx context.Context, req agent.RefineRequest) (*agent.RefineResult, error)
	GenerateImage(ctx context.Context, userID uuid.UUID, modelID, prompt string) (string, error)
}

// ModelCatalog reports which model backends are configured.
type ModelCatalog interface {
	Available() []string
	ActiveName() string
	SupportsImageGeneration() bool
}

// Studio groups the generation, refinement and preview endpoints.
type Studio struct {
	normalizer SourceNormalizer
	agent      SlideAgent
	models     ModelCatalog
	engine     *engine.Engine
}

// NewStudio creates the studio handler group.
func NewStudio(normalizer SourceNormalizer, agent SlideAgent, models ModelCatalog, eng *engine.Engine) *Studio {
	return &Studio{normalizer: normalizer, agent: agent, models: models, engine: eng}
}

// design holds the look of a carousel as chosen in the editor.
type design struct {
	TemplateType   models.TemplateType `json:"template_type"`
	PresetID       string              `json:"preset_id" validate:"max=40"`
	Format         models.Format       `json:"format"`
	Pattern        models.Pattern      `json:"pattern"`
	PatternOpacity float64             `json:"pattern_opacity" validate:"gte=0,lte=1"`
	Branding       models.Branding     `json:"branding"`
}

// withDefaults fills the design fields a new carousel starts with.
func (d design) withDefaults() design {
	if d.TemplateType == "" {
		d.TemplateType = models.TemplateEditorial
	}
	if d.PresetID == "" {
		d.PresetID = theme.DefaultPresetID
	}
	if d.Format == "" {
		d.Format = models.FormatPortrait
	}
	if d.Pattern == "" {
		d.Pattern = models.PatternNone
	}
	return d
}

// check rejects enum values outside the render catalog.
func (d design) check() error {
	return engine.Validate(engine.Input{
		Template: d.TemplateType,
		Slide:    models.Slide{Variant: models.VariantBody},
		Format:   d.Format,
		Pattern:  d.Pattern,
	})
}

type generateRequest struct {
	Topic    string          `json:"topic" validate:"max=500"`
	Input    normalize.Input `json:"input"`
	Settings agent.Settings  `json:"settings"`
	Design   design          `json:"design"`
}

// Generate normalizes the input, asks the agent for slides and returns an
// unsaved carousel with every slide rendered. Persisting it is the editor's
// job.
func (s *Studio) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d := req.Design.withDefaults()
	if err := d.check(); err != nil {
		fail(w, r, "generate", err)
		return
	}

	source, err := s.normalizer.Normalize(r.Context(), req.Input)
	if err != nil {
		fail(w, r, "normalize input", err)
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" && req.Input.Mode == normalize.ModeTopic {
		topic = strings.TrimSpace(source)
		source = ""
	}

	start := time.Now()
	draft, err := s.agent.GenerateSlides(r.Context(), topic, source, req.Settings)
	observe("slides", start, err)
	if err != nil {
		failUpstream(w, r, "generate slides", err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	c := &models.Carousel{
		UserID:         sess.UserID,
		Title:          draft.Title,
		TemplateType:   d.TemplateType,
		PresetID:       d.PresetID,
		Theme:          theme.Resolve(d.PresetID, d.TemplateType),
		Format:         d.Format,
		Pattern:        d.Pattern,
		PatternOpacity: d.PatternOpacity,
		Branding:       d.Branding,
		Slides:         draft.Slides,
	}
	c.Slides = s.engine.RenderCarousel(c)
	writeJSON(w, http.StatusOK, c)
}

// Refine reworks a single slide field.
func (s *Studio) Refine(w http.ResponseWriter, r *http.Request) {
	var req agent.RefineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	res, err := s.agent.Refine(r.Context(), req)
	observe("refine", start, err)
	if err != nil {
		failUpstream(w, r, "refine", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type imageRequest struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
	Model  string `json:"model" validate:"max=120"`
}

// Image generates an image for a slide and returns its public URL. The
// request blocks until the backend has produced and stored the image.
func (s *Studio) Image(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	start := time.Now()
	url, err := s.agent.GenerateImage(r.Context(), sess.UserID, req.Model, req.Prompt)
	observe("image", start, err)
	if err != nil {
		failUpstream(w, r, "generate image", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

type renderRequest struct {
	Slide  models.Slide `json:"slide"`
	Design design       `json:"design"`
}

// Render returns the SVG of one slide. The design's preset and template
// type are resolved into a theme here, never taken from the client.
func (s *Studio) Render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d := req.Design.withDefaults()
	in := engine.Input{
		Template:       d.TemplateType,
		Slide:          req.Slide,
		Theme:          theme.Resolve(d.PresetID, d.TemplateType),
		Branding:       d.Branding,
		Format:         d.Format,
		Pattern:        d.Pattern,
		PatternOpacity: d.PatternOpacity,
	}
	if err := engine.Validate(in); err != nil {
		fail(w, r, "render", err)
		return
	}

	svg := s.engine.Render(in)
	if r.URL.Query().Get("raw") == "1" {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(svg))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"svg": svg})
}

// Presets lists the color presets offered by the editor.
func (s *Studio) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, theme.Presets())
}

// Models lists the configured model backends.
func (s *Studio) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active":    s.models.ActiveName(),
		"available": s.models.Available(),
		"images":    s.models.SupportsImageGeneration(),
	})
}

// failUpstream reports model failures. Errors without a more specific
// mapping are the backend's fault, so they become 502 with the message
// passed through verbatim.
func failUpstream(w http.ResponseWriter, r *http.Request, op string, err error) {
	if status, _ := statusFor(err); status != http.StatusInternalServerError {
		fail(w, r, op, err)
		return
	}
	slog.Error(op+" failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusBadGateway, err.Error())
}

func observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.GenerationsTotal.WithLabelValues(op, result).Inc()
	metrics.GenerationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
