// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns carousel titles into names that are safe as file
// names, directory names and object key segments.
package slug

import (
	"regexp"
	"strings"
)

// MaxLen bounds a generated slug. Longer results are cut at the last
// hyphen that fits.
const MaxLen = 60

var (
	// separators become hyphens: whitespace, underscores and path separators.
	separators = regexp.MustCompile(`[\s_/\\.]+`)
	// unsafe matches anything that isn't a lowercase letter, digit or hyphen.
	unsafe = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a slug from s, or returns fallback when nothing usable
// is left. Example: "Launch week: day 1/5" → "launch-week-day-1-5".
func Generate(s, fallback string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = separators.ReplaceAllString(result, "-")
	result = unsafe.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > MaxLen {
		cut := result[:MaxLen]
		if i := strings.LastIndexByte(cut, '-'); i > 0 {
			cut = cut[:i]
		}
		result = strings.Trim(cut, "-")
	}
	if result == "" {
		return fallback
	}
	return result
}
