// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package agent

import (
	"fmt"
	"strings"
)

func slidesSystemPrompt(s Settings) string {
	lang := s.Language
	if lang == "" {
		lang = "English"
	}
	tone := s.Tone
	if tone == "" {
		tone = "clear and confident"
	}

	return fmt.Sprintf(`You are an expert social media writer who turns source material into swipeable carousel posts.

Write exactly %d slides in %s with a %s tone.

Respond with ONE JSON object and nothing else: no prose, no markdown, no code fences.
The object must match this schema:
{
  "title": "short carousel title",
  "slides": [
    {
      "variant": "hero" | "body" | "list" | "cta",
      "preheader": "small kicker text above the headline",
      "headline": "max 8 words",
      "body": "max 40 words",
      "items": ["only for list slides, 3 to 5 short bullets"],
      "footer": "optional small footer text"
    }
  ]
}

Rules:
- The first slide is a "hero" slide that hooks the reader.
- The last slide is a "cta" slide with a clear call to action in "footer".
- Use "list" slides for steps, tips or comparisons; leave "items" empty on other variants.
- Every fact must come from the source material. Do not invent statistics.
- Keep every slide self-contained and readable on a phone.`, s.SlideCount, lang, tone)
}

func slidesUserPrompt(topic, source string, s Settings) string {
	var b strings.Builder
	if topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n\n", topic)
	}
	if inst := strings.TrimSpace(s.Instructions); inst != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n\n", inst)
	}
	if source = strings.TrimSpace(source); source != "" && source != topic {
		b.WriteString("Source material:\n\"\"\"\n")
		b.WriteString(source)
		b.WriteString("\n\"\"\"\n")
	}
	return b.String()
}

func refineSystemPrompt(kind RefineKind, language string) string {
	lang := language
	if lang == "" {
		lang = "the same language as the input"
	}

	switch kind {
	case RefineHeadlines:
		return fmt.Sprintf(`You are a headline writing expert for social media carousels.
Propose exactly 3 alternative headlines for the slide, each at most 8 words, written in %s.
Respond with ONE JSON object and nothing else: {"headlines": ["...", "...", "..."]}`, lang)
	}

	var goal string
	switch kind {
	case RefineClarity:
		goal = "Rewrite the text so it is clearer and easier to scan. Keep the meaning."
	case RefinePunchy:
		goal = "Rewrite the text so it is shorter and punchier. Keep the meaning."
	case RefineGrammar:
		goal = "Fix spelling, grammar and punctuation only. Change nothing else."
	}
	return fmt.Sprintf(`You are a professional editor for social media carousels.
%s
Write in %s.
Respond with ONE JSON object and nothing else: {"body": "..."}`, goal, lang)
}

func refineUserPrompt(req RefineRequest) string {
	var b strings.Builder
	if req.Headline != "" {
		fmt.Fprintf(&b, "Slide headline: %s\n", req.Headline)
	}
	if req.Body != "" {
		fmt.Fprintf(&b, "Slide text:\n\"\"\"\n%s\n\"\"\"\n", req.Body)
	}
	return b.String()
}
