// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package agent

import (
	"context"
	"fmt"
	"strings"

	"slidesmith/internal/ai"
)

// RefineKind selects a single-field refinement.
type RefineKind string

const (
	RefineClarity   RefineKind = "clarity"
	RefinePunchy    RefineKind = "punchy"
	RefineGrammar   RefineKind = "grammar"
	RefineHeadlines RefineKind = "headlines"
)

// headlineAlternatives is how many headlines a RefineHeadlines call returns.
const headlineAlternatives = 3

// RefineRequest names the field to rework. Body is required for the
// rewrite kinds; Headline for RefineHeadlines (Body is optional context).
type RefineRequest struct {
	Kind     RefineKind `json:"kind" validate:"oneof=clarity punchy grammar headlines"`
	Headline string     `json:"headline" validate:"max=500"`
	Body     string     `json:"body" validate:"max=5000"`
	Language string     `json:"language" validate:"max=40"`
	Model    string     `json:"model" validate:"max=120"`
}

// RefineResult carries only the field that was asked for.
type RefineResult struct {
	Body      string   `json:"body,omitempty"`
	Headlines []string `json:"headlines,omitempty"`
}

// Refine rewrites one slide field. It never returns a restructured slide.
func (a *Agent) Refine(ctx context.Context, req RefineRequest) (*RefineResult, error) {
	if err := a.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if req.Kind == RefineHeadlines {
		if strings.TrimSpace(req.Headline) == "" && strings.TrimSpace(req.Body) == "" {
			return nil, fmt.Errorf("%w: headline or body is required", ErrInvalidSettings)
		}
	} else if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidSettings)
	}

	if err := a.moderate(ctx, req.Headline+"\n"+req.Body); err != nil {
		return nil, err
	}

	raw, err := a.gen.Generate(ctx, ai.Request{
		System: refineSystemPrompt(req.Kind, req.Language),
		User:   refineUserPrompt(req),
		Model:  req.Model,
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("refine %s: %w", req.Kind, err)
	}

	if req.Kind == RefineHeadlines {
		var out struct {
			Headlines []string `json:"headlines"`
		}
		if err := decodeStrict(raw, &out); err != nil {
			return nil, err
		}
		var hs []string
		for _, h := range out.Headlines {
			if h = strings.TrimSpace(h); h != "" {
				hs = append(hs, h)
			}
		}
		if len(hs) == 0 {
			return nil, fmt.Errorf("%w: \"headlines\" is missing or empty", ErrEmptyResult)
		}
		if len(hs) != headlineAlternatives {
			return nil, fmt.Errorf("%w: expected %d headlines, got %d", ErrMalformedResponse, headlineAlternatives, len(hs))
		}
		return &RefineResult{Headlines: hs}, nil
	}

	var out struct {
		Body *string `json:"body"`
	}
	if err := decodeStrict(raw, &out); err != nil {
		return nil, err
	}
	if out.Body == nil || strings.TrimSpace(*out.Body) == "" {
		return nil, fmt.Errorf("%w: \"body\" is missing or empty", ErrEmptyResult)
	}
	return &RefineResult{Body: strings.TrimSpace(*out.Body)}, nil
}
