// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Theme is the resolved style variable set injected into every slide
// template. It is derived from a color preset and a template type and is
// never edited directly.
type Theme struct {
	Background  string `json:"background"`
	Surface     string `json:"surface"`
	Text        string `json:"text"`
	Muted       string `json:"muted"`
	Accent      string `json:"accent"`
	AccentText  string `json:"accent_text"`
	FontHeading string `json:"font_heading"`
	FontBody    string `json:"font_body"`
}

// IsZero reports whether the theme has not been computed yet.
func (t Theme) IsZero() bool {
	return t == Theme{}
}
