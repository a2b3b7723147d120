// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
)

// Variant selects which layout archetype a slide renders with.
type Variant string

const (
	VariantHero Variant = "hero"
	VariantBody Variant = "body"
	VariantList Variant = "list"
	VariantCTA  Variant = "cta"
)

// Variants lists every slide variant in catalog order.
var Variants = []Variant{VariantHero, VariantBody, VariantList, VariantCTA}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantHero, VariantBody, VariantList, VariantCTA:
		return true
	}
	return false
}

// ListItem is one entry of a list slide. The model may return either a
// plain bullet string or a structured {title, text} object; both decode
// into this type.
type ListItem struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// UnmarshalJSON accepts both "bullet text" and {"title": ..., "text": ...}.
func (li *ListItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*li = ListItem{Text: s}
		return nil
	}

	type plain ListItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("list item: %w", err)
	}
	*li = ListItem(p)
	return nil
}

// Slide is one page of a carousel. Its identity is its index within the
// carousel's slide sequence.
type Slide struct {
	Position  int        `json:"position"`
	Variant   Variant    `json:"variant"`
	Preheader string     `json:"preheader,omitempty"`
	Headline  string     `json:"headline"`
	Body      string     `json:"body,omitempty"`
	Items     []ListItem `json:"items,omitempty"`
	Footer    string     `json:"footer,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	SVG       string     `json:"svg,omitempty"` // rendered cache
}
