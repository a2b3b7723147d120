// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"slidesmith/internal/models"
)

// stripFences removes a surrounding markdown code fence. Some backends wrap
// JSON in ```json ... ``` despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl != -1 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// decodeStrict unmarshals raw into v, allowing only a stripped fence around
// the object.
func decodeStrict(raw string, v any) error {
	body := stripFences(raw)
	if body == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

type rawDraft struct {
	Title  string         `json:"title"`
	Slides []models.Slide `json:"slides"`
}

func parseDraft(raw string) (*Draft, error) {
	var d rawDraft
	if err := decodeStrict(raw, &d); err != nil {
		return nil, err
	}
	if len(d.Slides) == 0 {
		return nil, fmt.Errorf("%w: \"slides\" is missing or empty", ErrEmptyResult)
	}
	return &Draft{
		Title:  strings.TrimSpace(d.Title),
		Slides: normalizeSlides(d.Slides),
	}, nil
}

// normalizeSlides renumbers positions, trims text, drops model-provided
// render output and repairs unknown variants: the first slide becomes a
// hero, the last a cta, slides with items a list and the rest body.
func normalizeSlides(in []models.Slide) []models.Slide {
	out := make([]models.Slide, len(in))
	last := len(in) - 1
	for i, s := range in {
		s.Position = i
		s.Preheader = strings.TrimSpace(s.Preheader)
		s.Headline = strings.TrimSpace(s.Headline)
		s.Body = strings.TrimSpace(s.Body)
		s.Footer = strings.TrimSpace(s.Footer)
		s.SVG = ""
		s.ImageURL = ""

		items := s.Items[:0:0]
		for _, it := range s.Items {
			it.Title = strings.TrimSpace(it.Title)
			it.Text = strings.TrimSpace(it.Text)
			if it.Title != "" || it.Text != "" {
				items = append(items, it)
			}
		}
		s.Items = items

		s.Variant = models.Variant(strings.ToLower(strings.TrimSpace(string(s.Variant))))
		if !s.Variant.Valid() {
			switch {
			case i == 0:
				s.Variant = models.VariantHero
			case i == last && last > 0:
				s.Variant = models.VariantCTA
			case len(s.Items) > 0:
				s.Variant = models.VariantList
			default:
				s.Variant = models.VariantBody
			}
		}
		out[i] = s
	}
	return out
}
