// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// TemplateType names one of the two slide template families.
type TemplateType string

const (
	TemplateEditorial TemplateType = "editorial"
	TemplateBold      TemplateType = "bold"
)

// Valid reports whether t is a known template type.
func (t TemplateType) Valid() bool {
	return t == TemplateEditorial || t == TemplateBold
}

// Format is the canvas aspect of every slide in a carousel.
type Format string

const (
	FormatPortrait Format = "portrait"
	FormatSquare   Format = "square"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatPortrait || f == FormatSquare
}

// Dimensions returns the canvas size in pixels.
func (f Format) Dimensions() (width, height int) {
	if f == FormatSquare {
		return 1080, 1080
	}
	return 1080, 1350
}

// Pattern is the decorative background overlay of a slide.
type Pattern string

const (
	PatternNone     Pattern = "none"
	PatternDots     Pattern = "dots"
	PatternGrid     Pattern = "grid"
	PatternDiagonal Pattern = "diagonal"
	PatternWaves    Pattern = "waves"
)

// Valid reports whether p is a known pattern. The empty pattern counts as none.
func (p Pattern) Valid() bool {
	switch p {
	case "", PatternNone, PatternDots, PatternGrid, PatternDiagonal, PatternWaves:
		return true
	}
	return false
}

// Branding holds the signature card composited onto each slide.
type Branding struct {
	Enabled   bool   `json:"enabled"`
	Name      string `json:"name,omitempty"`
	Handle    string `json:"handle,omitempty"`
	Tagline   string `json:"tagline,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IsZero reports whether the branding card has nothing to show.
func (b Branding) IsZero() bool {
	return !b.Enabled || (b.Name == "" && b.Handle == "" && b.Tagline == "")
}

// Carousel is the top-level saved artifact: ordered slides plus theme and
// presentation metadata. It is created implicitly on the first successful
// auto-save.
type Carousel struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	Title          string       `json:"title"`
	TemplateType   TemplateType `json:"template_type"`
	PresetID       string       `json:"preset_id"`
	Theme          Theme        `json:"theme"`
	Format         Format       `json:"format"`
	Pattern        Pattern      `json:"pattern"`
	PatternOpacity float64      `json:"pattern_opacity"`
	Branding       Branding     `json:"branding"`
	Slides         []Slide      `json:"slides"`
	IsPublic       bool         `json:"is_public"`
	ViewCount      int64        `json:"view_count"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// CarouselSummary is the list-view projection of a carousel.
type CarouselSummary struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	SlideCount int       `json:"slide_count"`
	IsPublic   bool      `json:"is_public"`
	ViewCount  int64     `json:"view_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}
