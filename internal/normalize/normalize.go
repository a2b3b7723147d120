// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package normalize turns the supported input modes (topic, pasted text,
// web page, video, pre-extracted PDF text) into the single plain-text
// source the slide agent works from. External fetches are made once;
// failures surface immediately and are never retried.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Mode selects how an Input is interpreted.
type Mode string

const (
	ModeTopic Mode = "topic"
	ModeText  Mode = "text"
	ModeURL   Mode = "url"
	ModeVideo Mode = "video"
	ModePDF   Mode = "pdf"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeTopic, ModeText, ModeURL, ModeVideo, ModePDF:
		return true
	}
	return false
}

// Sentinel errors. Callers use errors.Is to pick a user-facing message.
var (
	ErrEmptyInput         = errors.New("input is empty")
	ErrUnknownMode        = errors.New("unknown input mode")
	ErrInvalidURL         = errors.New("url must be an absolute http:// or https:// address")
	ErrNoVideoID          = errors.New("could not find a video id in the url")
	ErrCaptionsDisabled   = errors.New("captions are disabled for this video")
	ErrTranscriptNotFound = errors.New("no transcript found for this video")
	ErrTranscriptFailed   = errors.New("transcript request failed")
	ErrNoExtractedText    = errors.New("no text could be extracted from the document")
	ErrFetchFailed        = errors.New("fetch url")
)

// minTranscriptLen is the shortest transcript accepted as real content.
const minTranscriptLen = 10

// Input is one normalization request. Text carries topic and pasted text,
// URL carries url and video links, ExtractedText carries PDF text that was
// extracted before upload.
type Input struct {
	Mode          Mode   `json:"mode"`
	Text          string `json:"text,omitempty"`
	URL           string `json:"url,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
}

// Fetcher retrieves the readable text of a web page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// TranscriptClient retrieves a video transcript by YouTube id.
type TranscriptClient interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// Normalizer dispatches an Input to the handler for its mode.
type Normalizer struct {
	fetcher     Fetcher
	transcripts TranscriptClient
}

// New creates a Normalizer. Either collaborator may be nil, in which case
// the modes that need it fail.
func New(fetcher Fetcher, transcripts TranscriptClient) *Normalizer {
	return &Normalizer{fetcher: fetcher, transcripts: transcripts}
}

// Normalize returns the plain-text source for in.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (string, error) {
	switch in.Mode {
	case ModeTopic, ModeText:
		if strings.TrimSpace(in.Text) == "" {
			return "", ErrEmptyInput
		}
		return in.Text, nil

	case ModeURL:
		u, err := validateURL(in.URL)
		if err != nil {
			return "", err
		}
		if n.fetcher == nil {
			return "", fmt.Errorf("%w: no fetcher configured", ErrFetchFailed)
		}
		text, err := n.fetcher.Fetch(ctx, u)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		return text, nil

	case ModeVideo:
		return n.video(ctx, in.URL)

	case ModePDF:
		if strings.TrimSpace(in.ExtractedText) == "" {
			return "", ErrNoExtractedText
		}
		return in.ExtractedText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, in.Mode)
}

func (n *Normalizer) video(ctx context.Context, raw string) (string, error) {
	u, err := validateURL(raw)
	if err != nil {
		return "", err
	}

	if !IsYouTubeURL(u) {
		return "Video source: " + u + "\n\n" +
			"Transcripts are only available for YouTube videos. " +
			"Write the carousel from the video's title and the topic instead.", nil
	}

	id, ok := ExtractYouTubeID(u)
	if !ok {
		return "", ErrNoVideoID
	}
	if n.transcripts == nil {
		return "", fmt.Errorf("%w: no transcript client configured", ErrTranscriptFailed)
	}

	text, err := n.transcripts.Transcript(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCaptionsDisabled) || errors.Is(err, ErrTranscriptNotFound) || errors.Is(err, ErrTranscriptFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrTranscriptFailed, err)
	}
	if len(strings.TrimSpace(text)) < minTranscriptLen {
		return "", ErrTranscriptNotFound
	}
	return text, nil
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyInput
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	return raw, nil
}
