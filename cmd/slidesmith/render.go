// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"slidesmith/internal/engine"
	"slidesmith/internal/models"
	"slidesmith/internal/slug"
	"slidesmith/internal/theme"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <carousel.json>",
	Short: "Render a carousel document to SVG files",
	Long: `Render reads a carousel document (JSON, comments and trailing commas
allowed; "-" reads stdin) and writes slide-01.svg, slide-02.svg and so on
into the output directory, which defaults to a directory named after the
carousel title. No database or model backend is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			src = f
		}

		c, err := readCarousel(src)
		if err != nil {
			return err
		}
		out := renderOut
		if out == "" {
			out = slug.Generate(c.Title, "carousel")
		}
		files, err := writeSlides(engine.New(0), c, out)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output directory (default: slug of the title)")
}

// readCarousel decodes a carousel document and fills the presentation
// defaults the editor would apply. The theme is always derived from the
// preset and template type.
func readCarousel(r io.Reader) (*models.Carousel, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read carousel: %w", err)
	}

	var c models.Carousel
	if err := json.Unmarshal(jsonc.ToJSON(raw), &c); err != nil {
		return nil, fmt.Errorf("decode carousel: %w", err)
	}
	if len(c.Slides) == 0 {
		return nil, fmt.Errorf("carousel has no slides")
	}

	if c.TemplateType == "" {
		c.TemplateType = models.TemplateEditorial
	}
	if c.PresetID == "" {
		c.PresetID = theme.DefaultPresetID
	}
	if c.Format == "" {
		c.Format = models.FormatPortrait
	}
	if c.Pattern == "" {
		c.Pattern = models.PatternNone
	}
	c.Theme = theme.Resolve(c.PresetID, c.TemplateType)

	for i, s := range c.Slides {
		if err := engine.Validate(engine.InputFor(&c, s)); err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
	}
	return &c, nil
}

// writeSlides renders c into dir and returns the written paths in slide
// order.
func writeSlides(eng *engine.Engine, c *models.Carousel, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	slides := eng.RenderCarousel(c)
	files := make([]string, 0, len(slides))
	for i, s := range slides {
		path := filepath.Join(dir, fmt.Sprintf("slide-%02d.svg", i+1))
		if err := os.WriteFile(path, []byte(s.SVG), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}
