// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go holds the fixed set of SVG slide templates. Each entry is a
// template family x variant x format combination composed once at package
// init; rendering only substitutes placeholder tokens into these strings.
package engine

import (
	"fmt"
	"strings"

	"slidesmith/internal/models"
)

// Placeholder tokens substituted at render time.
const (
	tokenStyle     = "{{STYLE}}"
	tokenWidth     = "{{WIDTH}}"
	tokenHeight    = "{{HEIGHT}}"
	tokenPattern   = "{{PATTERN}}"
	tokenPreheader = "{{PREHEADER}}"
	tokenHeadline  = "{{HEADLINE}}"
	tokenBody      = "{{BODY}}"
	tokenListItems = "{{LIST_ITEMS}}"
	tokenFooter    = "{{FOOTER}}"
	tokenImage     = "{{IMAGE}}"
	tokenBranding  = "{{BRANDING}}"
)

// catalogKey identifies one template in the catalog.
type catalogKey struct {
	tmpl    models.TemplateType
	variant models.Variant
	format  models.Format
}

func (k catalogKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.tmpl, k.variant, k.format)
}

// metrics are the format-dependent layout numbers baked into a template.
type metrics struct {
	width, height int
	pad           int
	brandReserve  int // vertical space kept free for the signature card
	hero          int // hero headline font size
	headline      int
	body          int
	pre           int
}

func metricsFor(f models.Format) metrics {
	w, h := f.Dimensions()
	m := metrics{width: w, height: h, pad: 96, brandReserve: 160, hero: 104, headline: 76, body: 38, pre: 28}
	if f == models.FormatSquare {
		m.pad = 80
		m.brandReserve = 140
		m.hero = 88
		m.headline = 64
		m.body = 34
	}
	return m
}

var catalog = buildCatalog()

func buildCatalog() map[catalogKey]string {
	c := make(map[catalogKey]string)
	for _, tmpl := range []models.TemplateType{models.TemplateEditorial, models.TemplateBold} {
		for _, v := range models.Variants {
			for _, f := range []models.Format{models.FormatPortrait, models.FormatSquare} {
				c[catalogKey{tmpl: tmpl, variant: v, format: f}] = compose(tmpl, v, metricsFor(f))
			}
		}
	}
	return c
}

// lookup returns the template for a combination. An unknown combination is
// a programming error: callers validate enums before rendering.
func lookup(tmpl models.TemplateType, variant models.Variant, format models.Format) string {
	k := catalogKey{tmpl: tmpl, variant: variant, format: format}
	s, ok := catalog[k]
	if !ok {
		panic("engine: no slide template for " + k.String())
	}
	return s
}

// compose assembles one SVG template from the shared frame, the family
// stylesheet and decorations, and the variant's content region.
func compose(tmpl models.TemplateType, v models.Variant, m metrics) string {
	var b strings.Builder

	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" class="slide" width="{{WIDTH}}" height="{{HEIGHT}}" viewBox="0 0 {{WIDTH}} {{HEIGHT}}">`)
	b.WriteString(`<style>{{STYLE}}`)
	b.WriteString(baseCSS(m))
	if tmpl == models.TemplateBold {
		b.WriteString(boldCSS(m))
	} else {
		b.WriteString(editorialCSS(m))
	}
	b.WriteString(`</style>`)
	b.WriteString(`<rect class="bg" x="0" y="0" width="{{WIDTH}}" height="{{HEIGHT}}"/>`)
	b.WriteString(`{{PATTERN}}`)

	if tmpl == models.TemplateBold {
		b.WriteString(boldDecoration(v, m))
	} else {
		b.WriteString(editorialDecoration(m))
	}

	fmt.Fprintf(&b, `<foreignObject x="%d" y="%d" width="%d" height="%d">`,
		m.pad, m.pad, m.width-2*m.pad, m.height-2*m.pad-m.brandReserve)
	fmt.Fprintf(&b, `<div xmlns="http://www.w3.org/1999/xhtml" class="frame frame-%s">`, v)
	b.WriteString(variantContent(v))
	b.WriteString(`</div></foreignObject>`)
	b.WriteString(`{{BRANDING}}`)
	b.WriteString(`</svg>`)

	return b.String()
}

func variantContent(v models.Variant) string {
	switch v {
	case models.VariantHero:
		return `<div class="pre">{{PREHEADER}}</div>` +
			`<h1 class="headline hero">{{HEADLINE}}</h1>` +
			`<p class="body">{{BODY}}</p>{{IMAGE}}` +
			`<div class="footer">{{FOOTER}}</div>`
	case models.VariantBody:
		return `<div class="pre">{{PREHEADER}}</div>` +
			`<h2 class="headline">{{HEADLINE}}</h2>` +
			`{{IMAGE}}<p class="body">{{BODY}}</p>` +
			`<div class="footer">{{FOOTER}}</div>`
	case models.VariantList:
		return `<div class="pre">{{PREHEADER}}</div>` +
			`<h2 class="headline">{{HEADLINE}}</h2>` +
			`<ol class="items">{{LIST_ITEMS}}</ol>` +
			`<div class="footer">{{FOOTER}}</div>`
	case models.VariantCTA:
		return `<div class="pre">{{PREHEADER}}</div>` +
			`<h2 class="headline">{{HEADLINE}}</h2>` +
			`<p class="body">{{BODY}}</p>` +
			`<div class="cta">{{FOOTER}}</div>`
	}
	panic("engine: unknown variant " + string(v))
}

func baseCSS(m metrics) string {
	return fmt.Sprintf(
		`.bg{fill:var(--bg)}`+
			`.pat{fill:var(--accent)}`+
			`.pat-line{fill:none;stroke:var(--accent)}`+
			`.frame{width:100%%;height:100%%;display:flex;flex-direction:column;justify-content:center;color:var(--text);font-family:var(--font-body)}`+
			`.pre{color:var(--accent);font-size:%dpx;letter-spacing:4px;text-transform:uppercase;font-weight:600}`+
			`.headline{font-family:var(--font-heading);font-size:%dpx;line-height:1.08;margin:24px 0}`+
			`.hero{font-size:%dpx}`+
			`.body{font-size:%dpx;line-height:1.45;color:var(--muted);margin:0}`+
			`.items{font-size:%dpx;line-height:1.4;margin:0;padding-left:1.2em}`+
			`.items li{margin:0 0 18px 0}`+
			`.items strong{color:var(--text)}`+
			`.footer{margin-top:32px;font-size:%dpx;color:var(--muted)}`+
			`.visual{max-width:100%%;max-height:40%%;border-radius:16px;margin:24px 0}`+
			`.brand-name{fill:var(--text);font-family:var(--font-body);font-size:30px;font-weight:700}`+
			`.brand-handle{fill:var(--muted);font-family:var(--font-body);font-size:24px}`+
			`.brand-avatar{fill:var(--accent)}`+
			`.brand-initial{fill:var(--accent-text);font-family:var(--font-body);font-size:36px;font-weight:700}`,
		m.pre, m.headline, m.hero, m.body, m.body, m.pre,
	)
}

func editorialCSS(m metrics) string {
	return fmt.Sprintf(
		`.rule{fill:var(--accent)}`+
			`.cta{margin-top:40px;align-self:flex-start;padding:20px 40px;border-radius:999px;background:var(--accent);color:var(--accent-text);font-size:%dpx;font-weight:600}`,
		m.body,
	)
}

func boldCSS(m metrics) string {
	return fmt.Sprintf(
		`.bar{fill:var(--surface)}`+
			`.block{fill:var(--surface);opacity:0.18}`+
			`.headline{text-transform:uppercase;letter-spacing:-1px}`+
			`.cta{margin-top:40px;padding:28px 40px;background:var(--surface);color:var(--accent-text);font-size:%dpx;font-weight:800;text-transform:uppercase}`,
		m.body,
	)
}

func editorialDecoration(m metrics) string {
	return fmt.Sprintf(`<rect class="rule" x="%d" y="%d" width="120" height="8"/>`, m.pad, m.pad-40)
}

func boldDecoration(v models.Variant, m metrics) string {
	d := fmt.Sprintf(`<rect class="bar" x="0" y="0" width="24" height="%d"/>`, m.height)
	if v == models.VariantHero || v == models.VariantCTA {
		d += fmt.Sprintf(`<path class="block" d="M%d 0 H%d V%d Z"/>`, m.width/2, m.width, m.height/2)
	}
	return d
}
