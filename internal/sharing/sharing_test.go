// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sharing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"slidesmith/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCarousels struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*models.Carousel
	findErr   error
	incErr    error
	increment int
	block     chan struct{}
}

func (f *fakeCarousels) FindByID(_ context.Context, id uuid.UUID) (*models.Carousel, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byID[id], nil
}

func (f *fakeCarousels) IncrementViews(context.Context, uuid.UUID) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increment++
	return f.incErr
}

type fakeViews struct {
	mu    sync.Mutex
	views []models.View
}

func (f *fakeViews) Record(_ context.Context, v models.View) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, v)
	return nil
}

func fixture() (*fakeCarousels, uuid.UUID, uuid.UUID) {
	pub := &models.Carousel{ID: uuid.New(), IsPublic: true, Slides: []models.Slide{{Headline: "hi"}}}
	priv := &models.Carousel{ID: uuid.New(), IsPublic: false}
	return &fakeCarousels{byID: map[uuid.UUID]*models.Carousel{pub.ID: pub, priv.ID: priv}}, pub.ID, priv.ID
}

func TestViewPublic(t *testing.T) {
	carousels, pub, _ := fixture()
	views := &fakeViews{}
	s := New(carousels, views)

	c, err := s.View(context.Background(), pub, Client{
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148",
		Referrer:  " https://example.com/feed ",
	})
	require.NoError(t, err)
	assert.Equal(t, pub, c.ID)

	s.Wait()
	assert.Equal(t, 1, carousels.increment)
	require.Len(t, views.views, 1)
	assert.Equal(t, models.View{CarouselID: pub, Device: models.DeviceMobile, Referrer: "https://example.com/feed"}, views.views[0])
}

func TestViewNotFoundAndPrivateAreDistinct(t *testing.T) {
	carousels, _, priv := fixture()
	s := New(carousels, &fakeViews{})

	_, err := s.View(context.Background(), uuid.New(), Client{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.View(context.Background(), priv, Client{})
	assert.ErrorIs(t, err, ErrPrivate)
	assert.False(t, errors.Is(err, ErrNotFound))

	s.Wait()
	assert.Zero(t, carousels.increment, "rejected views are not counted")
}

func TestViewStoreErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	s := New(&fakeCarousels{findErr: boom}, nil)
	_, err := s.View(context.Background(), uuid.New(), Client{})
	assert.ErrorIs(t, err, boom)
}

func TestViewDoesNotWaitForBookkeeping(t *testing.T) {
	carousels, pub, _ := fixture()
	carousels.block = make(chan struct{})
	s := New(carousels, nil)

	_, err := s.View(context.Background(), pub, Client{UserAgent: "Mozilla/5.0 (Windows NT 10.0)"})
	require.NoError(t, err, "View returns while the counter update is still blocked")

	close(carousels.block)
	s.Wait()
	assert.Equal(t, 1, carousels.increment)
}

func TestViewBookkeepingFailureIsSwallowed(t *testing.T) {
	carousels, pub, _ := fixture()
	carousels.incErr = errors.New("counter failed")
	views := &fakeViews{}
	s := New(carousels, views)

	_, err := s.View(context.Background(), pub, Client{})
	require.NoError(t, err)
	s.Wait()
	assert.Len(t, views.views, 1, "view is recorded even when the counter fails")
}

func TestLookupDoesNotCount(t *testing.T) {
	carousels, pub, _ := fixture()
	s := New(carousels, &fakeViews{})

	_, err := s.Lookup(context.Background(), pub)
	require.NoError(t, err)
	s.Wait()
	assert.Zero(t, carousels.increment)
}

func TestReferrerIsCapped(t *testing.T) {
	carousels, pub, _ := fixture()
	views := &fakeViews{}
	s := New(carousels, views)

	_, err := s.View(context.Background(), pub, Client{Referrer: "https://x.test/" + strings.Repeat("a", 2000)})
	require.NoError(t, err)
	s.Wait()
	assert.Len(t, views.views[0].Referrer, maxReferrer)
}

func TestReferrerCapKeepsRunesWhole(t *testing.T) {
	carousels, pub, _ := fixture()
	views := &fakeViews{}
	s := New(carousels, views)

	// The 15-byte prefix puts every two-byte rune across the cap boundary.
	ref := "https://x.test/" + strings.Repeat("é", 600)
	_, err := s.View(context.Background(), pub, Client{Referrer: ref})
	require.NoError(t, err)
	s.Wait()

	got := views.views[0].Referrer
	assert.True(t, utf8.ValidString(got), "stored referrer is not valid UTF-8")
	assert.Len(t, got, maxReferrer-1)
	assert.True(t, strings.HasPrefix(ref, got))
}

func TestTruncateDropsInvalidBytes(t *testing.T) {
	assert.Equal(t, "ab", truncate(" a\xffb ", 10))
	assert.Equal(t, "ü", truncate("üü", 3))
	assert.Empty(t, truncate("ü", 1))
}

func TestDeviceClass(t *testing.T) {
	tests := []struct {
		ua   string
		want models.Device
	}{
		{"", models.DeviceBot},
		{"Googlebot/2.1 (+http://www.google.com/bot.html)", models.DeviceBot},
		{"facebookexternalhit/1.1", models.DeviceBot},
		{"curl/8.4.0", models.DeviceBot},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", models.DeviceTablet},
		{"Mozilla/5.0 (Linux; Android 14; SM-X710) AppleWebKit/537.36 Safari/537.36", models.DeviceTablet},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Mobile Safari/537.36", models.DeviceMobile},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", models.DeviceMobile},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15", models.DeviceDesktop},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0", models.DeviceDesktop},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeviceClass(tt.ua), tt.ua)
	}
}
