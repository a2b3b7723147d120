// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sharing serves public carousels to anonymous viewers and records
// their visits.
package sharing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"slidesmith/internal/metrics"
	"slidesmith/internal/models"
)

var (
	// ErrNotFound means no carousel has the requested id.
	ErrNotFound = errors.New("carousel not found")
	// ErrPrivate means the carousel exists but is not shared.
	ErrPrivate = errors.New("carousel is private")
)

// DefaultRecordTimeout bounds the detached view bookkeeping.
const DefaultRecordTimeout = 5 * time.Second

// maxReferrer caps how much of the Referer header is stored.
const maxReferrer = 512

// Carousels is the read and counter side of the carousel store.
type Carousels interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Carousel, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// Views records visits. *store.ViewStore implements it.
type Views interface {
	Record(ctx context.Context, v models.View) error
}

// Client describes the anonymous viewer.
type Client struct {
	UserAgent string
	Referrer  string
}

// Service looks up public carousels.
type Service struct {
	carousels Carousels
	views     Views
	timeout   time.Duration

	wg sync.WaitGroup
}

// New creates a sharing service. views may be nil, in which case only the
// counter is incremented.
func New(carousels Carousels, views Views) *Service {
	return &Service{carousels: carousels, views: views, timeout: DefaultRecordTimeout}
}

// View returns the carousel iff it is public. A successful view bumps the
// view counter and records the visit in the background; the caller never
// waits for it and its failure is only logged.
func (s *Service) View(ctx context.Context, id uuid.UUID, client Client) (*models.Carousel, error) {
	c, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	device := DeviceClass(client.UserAgent)
	metrics.PublicViewsTotal.WithLabelValues(string(device)).Inc()

	s.wg.Add(1)
	go s.record(c.ID, device, truncate(client.Referrer, maxReferrer))
	return c, nil
}

// Lookup is View without the bookkeeping. It is used for assets of a view
// (QR codes) that must not count as separate visits.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*models.Carousel, error) {
	c, err := s.carousels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if !c.IsPublic {
		return nil, ErrPrivate
	}
	return c, nil
}

func (s *Service) record(id uuid.UUID, device models.Device, referrer string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.carousels.IncrementViews(ctx, id); err != nil {
		slog.Warn("failed to increment view count", "carousel_id", id, "error", err)
	}
	if s.views == nil {
		return
	}
	if err := s.views.Record(ctx, models.View{CarouselID: id, Device: device, Referrer: referrer}); err != nil {
		slog.Warn("failed to record view", "carousel_id", id, "error", err)
	}
}

// Wait blocks until all background bookkeeping has finished. Call it during
// shutdown after the HTTP server has stopped.
func (s *Service) Wait() {
	s.wg.Wait()
}

// truncate cuts s to at most n bytes of valid UTF-8, never inside a rune.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(strings.TrimSpace(s), "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
