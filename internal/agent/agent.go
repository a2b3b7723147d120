// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package agent drafts carousel slides with a language model. It builds
// the prompts, dispatches one request to the backend named by the model
// identifier and parses the strict JSON reply. Nothing is retried and no
// partial result is ever returned.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"slidesmith/internal/ai"
	"slidesmith/internal/models"
)

// Slide count bounds accepted by GenerateSlides.
const (
	MinSlides = 3
	MaxSlides = 12
)

// maxSourceChars bounds the source text embedded in a prompt.
const maxSourceChars = 40_000

var (
	// ErrInvalidSettings wraps validation failures detected before dispatch.
	ErrInvalidSettings = errors.New("invalid generation settings")

	// ErrEmptyResult means the model answered with valid JSON that holds no
	// slides (or no refinement).
	ErrEmptyResult = errors.New("model returned no content")

	// ErrMalformedResponse means the reply was not the requested JSON shape.
	ErrMalformedResponse = errors.New("model returned malformed JSON")

	// ErrPromptRejected means moderation flagged the source material.
	ErrPromptRejected = errors.New("prompt rejected by moderation")
)

// Settings are the user's generation choices.
type Settings struct {
	SlideCount   int    `json:"slide_count" validate:"min=3,max=12"`
	Tone         string `json:"tone" validate:"max=60"`
	Instructions string `json:"instructions" validate:"max=2000"`
	Language     string `json:"language" validate:"max=40"`
	Model        string `json:"model" validate:"max=120"`
}

// Generator is the model transport. *ai.Registry implements it.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (string, error)
	CheckPrompt(ctx context.Context, text string) (*ai.ModerationResult, error)
}

// Agent turns source text into slides.
type Agent struct {
	gen      Generator
	validate *validator.Validate
	images   *ImageService
}

// New creates an Agent on top of gen. images may be nil when image
// generation is not configured.
func New(gen Generator, images *ImageService) *Agent {
	return &Agent{
		gen:      gen,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		images:   images,
	}
}

// ValidateSettings checks s without dispatching anything.
func (a *Agent) ValidateSettings(s Settings) error {
	if err := a.validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.StructField() == "SlideCount" {
				return fmt.Errorf("%w: slide count must be between %d and %d, got %d",
					ErrInvalidSettings, MinSlides, MaxSlides, s.SlideCount)
			}
			return fmt.Errorf("%w: %s failed %q", ErrInvalidSettings, strings.ToLower(fe.StructField()), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Draft is the parsed result of a generation call.
type Draft struct {
	Title  string         `json:"title"`
	Slides []models.Slide `json:"slides"`
}

// GenerateSlides asks the model for a carousel about topic using source as
// material. Settings are validated before any request is made.
func (a *Agent) GenerateSlides(ctx context.Context, topic, source string, s Settings) (*Draft, error) {
	if err := a.ValidateSettings(s); err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" && strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: topic or source text is required", ErrInvalidSettings)
	}

	if err := a.moderate(ctx, topic+"\n\n"+truncateRunes(source, 4000)); err != nil {
		return nil, err
	}

	req := ai.Request{
		System: slidesSystemPrompt(s),
		User:   slidesUserPrompt(topic, truncateRunes(source, maxSourceChars), s),
		Model:  s.Model,
		JSON:   true,
	}

	raw, err := a.gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate slides: %w", err)
	}

	draft, err := parseDraft(raw)
	if err != nil {
		slog.Warn("slide generation returned unusable output", "error", err, "model", s.Model, "chars", len(raw))
		return nil, err
	}

	if draft.Title == "" {
		draft.Title = topic
	}
	slog.Info("slides generated", "model", s.Model, "requested", s.SlideCount, "received", len(draft.Slides))
	return draft, nil
}

// moderate checks text with the configured moderator. Moderation outages
// let the request through; backends still apply their own filters.
func (a *Agent) moderate(ctx context.Context, text string) error {
	res, err := a.gen.CheckPrompt(ctx, text)
	if err != nil {
		slog.Warn("moderation check failed, allowing prompt", "error", err)
		return nil
	}
	if res.Safe {
		return nil
	}
	slog.Warn("prompt flagged by moderation", "categories", strings.Join(res.Categories, ", "))
	return fmt.Errorf("%w: %s", ErrPromptRejected, strings.Join(res.Categories, ", "))
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
