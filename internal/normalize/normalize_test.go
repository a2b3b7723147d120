// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package normalize

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	text  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeTranscripts struct {
	text  string
	err   error
	gotID string
}

func (f *fakeTranscripts) Transcript(_ context.Context, id string) (string, error) {
	f.gotID = id
	return f.text, f.err
}

func TestExtractYouTubeID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1", "dQw4w9WgXcQ", true},
		{"https://youtube.com/v/a_b-C1d2E3f", "a_b-C1d2E3f", true},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://notyoutube.com/watch?v=dQw4w9WgXcQ", "", false},
		{"https://evil.test/?next=https://youtu.be/dQw4w9WgXcQ", "", false},
		{"https://example.com/x", "", false},
		{"https://youtu.be/short", "", false},
		{"https://youtu.be/dQw4w9WgXcQX", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ExtractYouTubeID(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsYouTubeURL(t *testing.T) {
	tests := map[string]bool{
		"https://www.youtube.com/channel/abc":        true,
		"https://YouTube.com/watch?v=x":              true,
		"https://music.youtube.com/":                 true,
		"http://youtu.be/abc":                        true,
		"www.youtube.com/watch":                      true,
		"https://notyoutube.com/watch?v=dQw4w9WgXcQ": false,
		"https://youtube.com.evil.test/watch":        false,
		"https://evil.test/youtube.com/watch":        false,
		"https://vimeo.com/12345?ref=youtu.be/x":     false,
		"":                                           false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsYouTubeURL(in), in)
	}
}

func TestNormalizePassthroughModes(t *testing.T) {
	n := New(nil, nil)
	ctx := context.Background()

	got, err := n.Normalize(ctx, Input{Mode: ModeTopic, Text: "Go generics"})
	require.NoError(t, err)
	assert.Equal(t, "Go generics", got)

	got, err = n.Normalize(ctx, Input{Mode: ModeText, Text: "  pasted\nbody "})
	require.NoError(t, err)
	assert.Equal(t, "  pasted\nbody ", got, "text mode must pass input through unchanged")

	_, err = n.Normalize(ctx, Input{Mode: ModeTopic, Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyInput)

	got, err = n.Normalize(ctx, Input{Mode: ModePDF, ExtractedText: "page one"})
	require.NoError(t, err)
	assert.Equal(t, "page one", got)

	_, err = n.Normalize(ctx, Input{Mode: ModePDF})
	assert.ErrorIs(t, err, ErrNoExtractedText)

	_, err = n.Normalize(ctx, Input{Mode: "audio"})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNormalizeURL(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid url makes no fetch", func(t *testing.T) {
		f := &fakeFetcher{}
		n := New(f, nil)
		for _, u := range []string{"ftp://example.com", "example.com/page", "https://"} {
			_, err := n.Normalize(ctx, Input{Mode: ModeURL, URL: u})
			assert.ErrorIs(t, err, ErrInvalidURL, u)
		}
		assert.Zero(t, f.calls)
	})

	t.Run("fetch failure is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		n := New(&fakeFetcher{err: boom}, nil)
		_, err := n.Normalize(ctx, Input{Mode: ModeURL, URL: "https://example.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "fetch url")
	})

	t.Run("success", func(t *testing.T) {
		f := &fakeFetcher{text: "article"}
		got, err := New(f, nil).Normalize(ctx, Input{Mode: ModeURL, URL: "https://example.com/a"})
		require.NoError(t, err)
		assert.Equal(t, "article", got)
		assert.Equal(t, 1, f.calls)
	})
}

func TestNormalizeVideo(t *testing.T) {
	ctx := context.Background()
	const url = "https://youtu.be/dQw4w9WgXcQ"

	t.Run("transcript", func(t *testing.T) {
		tr := &fakeTranscripts{text: "never gonna give you up"}
		got, err := New(nil, tr).Normalize(ctx, Input{Mode: ModeVideo, URL: url})
		require.NoError(t, err)
		assert.Equal(t, "never gonna give you up", got)
		assert.Equal(t, "dQw4w9WgXcQ", tr.gotID)
	})

	t.Run("short transcript is not found", func(t *testing.T) {
		_, err := New(nil, &fakeTranscripts{text: "hi"}).Normalize(ctx, Input{Mode: ModeVideo, URL: url})
		assert.ErrorIs(t, err, ErrTranscriptNotFound)
	})

	t.Run("distinguished errors pass through", func(t *testing.T) {
		for _, want := range []error{ErrCaptionsDisabled, ErrTranscriptNotFound} {
			_, err := New(nil, &fakeTranscripts{err: want}).Normalize(ctx, Input{Mode: ModeVideo, URL: url})
			assert.ErrorIs(t, err, want)
		}
	})

	t.Run("other errors are generic failures", func(t *testing.T) {
		_, err := New(nil, &fakeTranscripts{err: errors.New("dial tcp")}).Normalize(ctx, Input{Mode: ModeVideo, URL: url})
		assert.ErrorIs(t, err, ErrTranscriptFailed)
		assert.NotErrorIs(t, err, ErrCaptionsDisabled)
	})

	t.Run("youtube link without id", func(t *testing.T) {
		_, err := New(nil, &fakeTranscripts{}).Normalize(ctx, Input{Mode: ModeVideo, URL: "https://www.youtube.com/channel/abc"})
		assert.ErrorIs(t, err, ErrNoVideoID)
	})

	t.Run("lookalike host gets placeholder", func(t *testing.T) {
		tr := &fakeTranscripts{}
		got, err := New(nil, tr).Normalize(ctx, Input{Mode: ModeVideo, URL: "https://notyoutube.com/watch?v=dQw4w9WgXcQ"})
		require.NoError(t, err)
		assert.Contains(t, got, "only available for YouTube")
		assert.Empty(t, tr.gotID)
	})

	t.Run("non-youtube video gets placeholder", func(t *testing.T) {
		got, err := New(nil, nil).Normalize(ctx, Input{Mode: ModeVideo, URL: "https://vimeo.com/12345"})
		require.NoError(t, err)
		assert.Contains(t, got, "https://vimeo.com/12345")
		assert.Contains(t, got, "only available for YouTube")
	})
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, `<html><head><title>T</title><style>.x{}</style></head><body>
				<nav>Menu</nav><h1>Heading</h1><p>First   paragraph.</p>
				<script>alert(1)</script><ul><li>one</li><li>two</li></ul></body></html>`)
		case "/notes.md":
			w.Header().Set("Content-Type", "text/markdown")
			io.WriteString(w, "# Notes\n\n- alpha\n- beta\n")
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			io.WriteString(w, strings.Repeat("a", 100))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0, 0)
	f.allowPrivate = true
	ctx := context.Background()

	text, err := f.Fetch(ctx, srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "- one")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, ".x{}")

	text, err = f.Fetch(ctx, srv.URL+"/notes.md")
	require.NoError(t, err)
	assert.Contains(t, text, "Notes")
	assert.Contains(t, text, "- alpha")
	assert.NotContains(t, text, "#")

	short := NewHTTPFetcher(0, 10)
	short.allowPrivate = true
	text, err = short.Fetch(ctx, srv.URL+"/plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, strings.Repeat("a", 10)+truncMarker))

	_, err = f.Fetch(ctx, srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPFetcherRefusesNonPublicAddresses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, "internal")
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, 0)
	ctx := context.Background()

	for _, u := range []string{
		srv.URL + "/page",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]:1/",
		"http://10.0.0.1:1/",
	} {
		_, err := f.Fetch(ctx, u)
		assert.ErrorIs(t, err, ErrBlockedAddress, u)
	}
	assert.Zero(t, hits.Load())
}

func TestCheckPublic(t *testing.T) {
	tests := []struct {
		addr string
		ok   bool
	}{
		{"93.184.216.34:443", true},
		{"[2606:2800:220:1:248:1893:25c8:1946]:443", true},
		{"127.0.0.1:80", false},
		{"[::1]:80", false},
		{"10.1.2.3:80", false},
		{"172.16.0.1:80", false},
		{"192.168.1.1:80", false},
		{"169.254.169.254:80", false},
		{"100.64.0.1:80", false},
		{"0.0.0.0:80", false},
		{"[::ffff:127.0.0.1]:80", false},
		{"[fd00::1]:80", false},
		{"[fe80::1]:80", false},
		{"224.0.0.1:80", false},
	}
	for _, tt := range tests {
		err := checkPublic(tt.addr)
		if tt.ok {
			assert.NoError(t, err, tt.addr)
		} else {
			assert.ErrorIs(t, err, ErrBlockedAddress, tt.addr)
		}
	}
}

func TestHTTPTranscriptClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(string(body), "disabled000"):
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"Captions disabled","code":"captions_disabled"}`)
		case strings.Contains(string(body), "missing0000"):
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"Not found","code":"not_found"}`)
		case strings.Contains(string(body), "broken00000"):
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `upstream exploded`)
		default:
			io.WriteString(w, `{"transcript":"hello from the video"}`)
		}
	}))
	defer srv.Close()

	c := NewHTTPTranscriptClient(srv.URL, "", 0)
	ctx := context.Background()

	got, err := c.Transcript(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "hello from the video", got)

	_, err = c.Transcript(ctx, "disabled000")
	assert.ErrorIs(t, err, ErrCaptionsDisabled)

	_, err = c.Transcript(ctx, "missing0000")
	assert.ErrorIs(t, err, ErrTranscriptNotFound)

	_, err = c.Transcript(ctx, "broken00000")
	assert.ErrorIs(t, err, ErrTranscriptFailed)
}
