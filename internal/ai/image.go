// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrImagesUnsupported is returned when the selected provider cannot
// generate images.
var ErrImagesUnsupported = errors.New("ai: provider does not support image generation")

// ImageGenerator is an optional capability. Claude and Mistral are
// text-only.
type ImageGenerator interface {
	// GenerateImage returns raw image bytes and their MIME type.
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// GenerateImage resolves the provider named by id (see Resolve) and asks it
// for an image.
func (r *Registry) GenerateImage(ctx context.Context, id, prompt string) ([]byte, string, error) {
	p, _, err := r.Resolve(id)
	if err != nil {
		return nil, "", err
	}

	ig, ok := p.(ImageGenerator)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrImagesUnsupported, p.Name())
	}
	return ig.GenerateImage(ctx, prompt)
}

// SupportsImageGeneration reports whether the default provider can
// generate images.
func (r *Registry) SupportsImageGeneration() bool {
	p, err := r.Active()
	if err != nil {
		return false
	}
	_, ok := p.(ImageGenerator)
	return ok
}
