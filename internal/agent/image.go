// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"slidesmith/internal/storage"
)

// ErrImagesUnavailable is returned when image generation or object storage
// is not configured.
var ErrImagesUnavailable = errors.New("image generation is not configured")

// ImageSource produces image bytes. *ai.Registry implements it.
type ImageSource interface {
	GenerateImage(ctx context.Context, modelID, prompt string) ([]byte, string, error)
}

// ObjectStore persists uploaded images. *storage.Client implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

// ImageService generates an image and stores it, returning a public URL.
type ImageService struct {
	source ImageSource
	store  ObjectStore
}

// NewImageService returns nil when either dependency is missing, which
// makes GenerateImage report ErrImagesUnavailable.
func NewImageService(source ImageSource, store ObjectStore) *ImageService {
	if source == nil || store == nil {
		return nil
	}
	return &ImageService{source: source, store: store}
}

// GenerateImage blocks until the backend returns the image, uploads it and
// returns its URL.
func (a *Agent) GenerateImage(ctx context.Context, userID uuid.UUID, modelID, prompt string) (string, error) {
	if a.images == nil {
		return "", ErrImagesUnavailable
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: image prompt is required", ErrInvalidSettings)
	}
	if err := a.moderate(ctx, prompt); err != nil {
		return "", err
	}

	img, contentType, err := a.images.source.GenerateImage(ctx, modelID, prompt)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	key := storage.ImageKey(userID, contentType)
	if err := a.images.store.Upload(ctx, key, contentType, bytes.NewReader(img), int64(len(img))); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	url := a.images.store.FileURL(key)
	slog.Info("image generated", "user_id", userID, "key", key, "bytes", len(img))
	return url, nil
}
