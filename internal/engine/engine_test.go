// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"errors"
	"strings"
	"testing"

	"slidesmith/internal/models"
	"slidesmith/internal/theme"
)

func sampleInput() Input {
	return Input{
		Template: models.TemplateEditorial,
		Slide: models.Slide{
			Position:  0,
			Variant:   models.VariantHero,
			Preheader: "Intro",
			Headline:  "Ship faster",
			Body:      "Three habits of fast teams",
			Footer:    "Swipe →",
		},
		Theme:  theme.Resolve("midnight", models.TemplateEditorial),
		Format: models.FormatPortrait,
	}
}

// --------------------------------------------------------------------------
// Catalog
// --------------------------------------------------------------------------

func TestCatalogHasEveryCombination(t *testing.T) {
	if len(catalog) != 16 {
		t.Fatalf("catalog size = %d, want 16", len(catalog))
	}

	for _, tmpl := range []models.TemplateType{models.TemplateEditorial, models.TemplateBold} {
		for _, v := range models.Variants {
			for _, f := range []models.Format{models.FormatPortrait, models.FormatSquare} {
				s := lookup(tmpl, v, f)
				for _, tok := range []string{tokenStyle, tokenWidth, tokenHeight, tokenPattern, tokenBranding, tokenHeadline} {
					if !strings.Contains(s, tok) {
						t.Errorf("%s/%s/%s missing token %s", tmpl, v, f, tok)
					}
				}
			}
		}
	}
}

func TestLookupUnknownPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for unknown template")
		}
	}()
	lookup("neon", models.VariantHero, models.FormatPortrait)
}

// --------------------------------------------------------------------------
// Render
// --------------------------------------------------------------------------

func TestRenderDeterministic(t *testing.T) {
	in := sampleInput()
	a := Render(in)
	b := Render(in)
	if a != b {
		t.Fatal("identical input produced different output")
	}
}

func TestRenderSubstitutesContent(t *testing.T) {
	out := Render(sampleInput())

	for _, want := range []string{
		"Ship faster",
		"Three habits of fast teams",
		"Intro",
		`width="1080"`,
		`height="1350"`,
		"--accent:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "{{") {
		t.Errorf("output still contains unsubstituted tokens")
	}
}

func TestRenderSquareDimensions(t *testing.T) {
	in := sampleInput()
	in.Format = models.FormatSquare
	out := Render(in)
	if !strings.Contains(out, `viewBox="0 0 1080 1080"`) {
		t.Errorf("square render has wrong viewBox")
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	in := sampleInput()
	in.Slide.Headline = `<script>alert("x")</script> & more`

	out := Render(in)
	if strings.Contains(out, "<script>") {
		t.Fatal("raw markup leaked into SVG")
	}
	if !strings.Contains(out, "&lt;script&gt;") || !strings.Contains(out, "&amp; more") {
		t.Errorf("headline not escaped: %s", out)
	}
}

func TestRenderListItemsInOrder(t *testing.T) {
	in := sampleInput()
	in.Slide.Variant = models.VariantList
	in.Slide.Items = []models.ListItem{
		{Text: "first"},
		{Title: "Second", Text: "with title"},
		{Text: "third"},
	}

	out := Render(in)
	i1 := strings.Index(out, "<li>first</li>")
	i2 := strings.Index(out, "<li><strong>Second</strong> with title</li>")
	i3 := strings.Index(out, "<li>third</li>")
	if i1 < 0 || i2 < 0 || i3 < 0 {
		t.Fatalf("list items missing: %d %d %d", i1, i2, i3)
	}
	if !(i1 < i2 && i2 < i3) {
		t.Errorf("list items out of order: %d %d %d", i1, i2, i3)
	}
}

func TestRenderOptionalOverlays(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		out := Render(sampleInput())
		if strings.Contains(out, "<pattern") {
			t.Error("pattern rendered without being requested")
		}
		if strings.Contains(out, `class="brand"`) {
			t.Error("branding rendered while disabled")
		}
	})

	t.Run("present", func(t *testing.T) {
		in := sampleInput()
		in.Pattern = models.PatternDots
		in.PatternOpacity = 0.35
		in.Branding = models.Branding{Enabled: true, Name: "Ada", Handle: "@ada"}

		out := Render(in)
		if !strings.Contains(out, `opacity="0.35"`) {
			t.Error("pattern opacity missing")
		}
		if !strings.Contains(out, `class="brand"`) || !strings.Contains(out, ">Ada<") {
			t.Error("branding card missing")
		}
		if !strings.Contains(out, `class="brand-initial"`) {
			t.Error("expected initial avatar when no avatar url is set")
		}
	})

	t.Run("opacity clamped", func(t *testing.T) {
		in := sampleInput()
		in.Pattern = models.PatternGrid
		in.PatternOpacity = 4
		if out := Render(in); !strings.Contains(out, `opacity="1.00"`) {
			t.Error("opacity not clamped to 1")
		}
		in.PatternOpacity = -1
		if out := Render(in); strings.Contains(out, "<pattern") {
			t.Error("zero opacity should drop the pattern")
		}
	})
}

func TestRenderMultilineBody(t *testing.T) {
	in := sampleInput()
	in.Slide.Body = "line one\nline two"
	if out := Render(in); !strings.Contains(out, "line one<br/>line two") {
		t.Error("newline not converted to <br/>")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		ok     bool
	}{
		{"valid", func(*Input) {}, true},
		{"bad template", func(in *Input) { in.Template = "neon" }, false},
		{"bad variant", func(in *Input) { in.Slide.Variant = "quote" }, false},
		{"bad format", func(in *Input) { in.Format = "story" }, false},
		{"bad pattern", func(in *Input) { in.Pattern = "stars" }, false},
		{"empty pattern", func(in *Input) { in.Pattern = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mutate(&in)
			err := Validate(in)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrUnsupported) {
				t.Errorf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

// --------------------------------------------------------------------------
// Engine (cached)
// --------------------------------------------------------------------------

func TestEngineCachesByInput(t *testing.T) {
	eng := New(0)

	in := sampleInput()
	first := eng.Render(in)
	if eng.CachedCount() != 1 {
		t.Fatalf("cached = %d, want 1", eng.CachedCount())
	}

	// A stale SVG on the slide must not change the key.
	in.Slide.SVG = "<svg>old</svg>"
	if got := eng.Render(in); got != first {
		t.Error("cached render differs from the original")
	}
	if eng.CachedCount() != 1 {
		t.Errorf("cached = %d after repeat render, want 1", eng.CachedCount())
	}

	in.Slide.Headline = "Different"
	eng.Render(in)
	if eng.CachedCount() != 2 {
		t.Errorf("cached = %d after changed input, want 2", eng.CachedCount())
	}

	eng.Purge()
	if eng.CachedCount() != 0 {
		t.Errorf("cached = %d after purge, want 0", eng.CachedCount())
	}
}

func TestRenderCarousel(t *testing.T) {
	eng := New(0)
	c := &models.Carousel{
		TemplateType: models.TemplateBold,
		Theme:        theme.Resolve("sunset", models.TemplateBold),
		Format:       models.FormatSquare,
		Slides: []models.Slide{
			{Position: 0, Variant: models.VariantHero, Headline: "One"},
			{Position: 1, Variant: models.VariantBody, Headline: "Two"},
			{Position: 2, Variant: models.VariantCTA, Headline: "Three"},
		},
	}

	slides := eng.RenderCarousel(c)
	if len(slides) != 3 {
		t.Fatalf("got %d slides, want 3", len(slides))
	}
	for i, want := range []string{"One", "Two", "Three"} {
		if !strings.Contains(slides[i].SVG, want) {
			t.Errorf("slide %d missing headline %q", i, want)
		}
	}
	if c.Slides[0].SVG != "" {
		t.Error("RenderCarousel mutated the input carousel")
	}
}
