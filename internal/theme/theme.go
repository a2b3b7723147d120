// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theme resolves a color preset and a template type into the
// complete style variable set consumed by slide templates. The renderer
// never interprets colors itself; every value it needs comes from here.
package theme

import (
	"slices"

	"slidesmith/internal/models"
)

// Preset is a named color palette offered to the editor.
type Preset struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
	Muted      string `json:"muted"`
	Accent     string `json:"accent"`
	AccentText string `json:"accent_text"`
}

// presets is the fixed palette catalog. The first entry is the fallback
// for unknown preset ids.
var presets = []Preset{
	{ID: "midnight", Label: "Midnight", Background: "#0f172a", Surface: "#1e293b", Text: "#f8fafc", Muted: "#94a3b8", Accent: "#38bdf8", AccentText: "#0f172a"},
	{ID: "paper", Label: "Paper", Background: "#faf7f2", Surface: "#ffffff", Text: "#1c1917", Muted: "#78716c", Accent: "#dc2626", AccentText: "#ffffff"},
	{ID: "sunset", Label: "Sunset", Background: "#fff7ed", Surface: "#ffedd5", Text: "#431407", Muted: "#9a3412", Accent: "#f97316", AccentText: "#ffffff"},
	{ID: "forest", Label: "Forest", Background: "#052e16", Surface: "#14532d", Text: "#f0fdf4", Muted: "#86efac", Accent: "#facc15", AccentText: "#052e16"},
	{ID: "mono", Label: "Mono", Background: "#ffffff", Surface: "#f4f4f5", Text: "#09090b", Muted: "#71717a", Accent: "#09090b", AccentText: "#ffffff"},
}

// DefaultPresetID is used when a carousel has no preset yet.
const DefaultPresetID = "midnight"

// Presets returns a copy of the preset catalog in display order.
func Presets() []Preset {
	return slices.Clone(presets)
}

// Lookup returns the preset with the given id and whether it exists.
func Lookup(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Resolve computes the theme for a preset and template type. Unknown
// presets fall back to the default palette; the result is always complete.
//
// The editorial family keeps the preset as-is with a serif heading face.
// The bold family inverts the hero emphasis: the accent becomes the
// surface color and headings switch to a heavy sans face.
func Resolve(presetID string, tmpl models.TemplateType) models.Theme {
	p, ok := Lookup(presetID)
	if !ok {
		p = presets[0]
	}

	t := models.Theme{
		Background:  p.Background,
		Surface:     p.Surface,
		Text:        p.Text,
		Muted:       p.Muted,
		Accent:      p.Accent,
		AccentText:  p.AccentText,
		FontHeading: "Georgia, 'Times New Roman', serif",
		FontBody:    "'Inter', 'Helvetica Neue', Arial, sans-serif",
	}

	if tmpl == models.TemplateBold {
		t.Surface = p.Accent
		t.FontHeading = "'Archivo Black', 'Arial Black', Impact, sans-serif"
		t.FontBody = "'Archivo', 'Helvetica Neue', Arial, sans-serif"
	}

	return t
}
