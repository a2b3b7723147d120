// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// ModerationResult contains the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool     // true if the prompt passes moderation
	Categories []string // flagged category names, sorted; empty when safe
}

// Moderator checks source material for policy violations before it is sent
// to a generation endpoint.
type Moderator interface {
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// httpModerator calls an OpenAI-style /moderations endpoint. OpenAI and
// Mistral share the request shape; Mistral has no top-level flag, so
// flagged is derived from the categories when trustFlag is false.
type httpModerator struct {
	name      string
	apiKey    string
	url       string
	model     string
	trustFlag bool
	client    *http.Client
}

func newOpenAIModerator(apiKey, baseURL string) *httpModerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &httpModerator{
		name:      "openai",
		apiKey:    apiKey,
		url:       baseURL + "/moderations",
		model:     "omni-moderation-latest",
		trustFlag: true,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func newMistralModerator(apiKey, baseURL string) *httpModerator {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	return &httpModerator{
		name:   "mistral",
		apiKey: apiKey,
		url:    baseURL + "/moderations",
		model:  "mistral-moderation-latest",
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// StatusError carries the HTTP status of a failed moderation call so the
// fallback moderator can tell auth failures from outages.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s moderation API error (status %d): %s", e.Provider, e.Code, e.Body)
}

func (m *httpModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	payload, err := json.Marshal(moderationRequest{Model: m.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%s moderation marshal: %w", m.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s moderation request: %w", m.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s moderation http: %w", m.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s moderation read body: %w", m.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: m.name, Code: resp.StatusCode, Body: string(body)}
	}

	var result moderationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%s moderation unmarshal: %w", m.name, err)
	}
	if len(result.Results) == 0 {
		return &ModerationResult{Safe: true}, nil
	}

	r := result.Results[0]
	var flagged []string
	for cat, on := range r.Categories {
		if on {
			flagged = append(flagged, displayCategory(cat))
		}
	}
	slices.Sort(flagged)

	unsafe := len(flagged) > 0
	if m.trustFlag {
		unsafe = r.Flagged
	}
	if !unsafe {
		return &ModerationResult{Safe: true}, nil
	}
	return &ModerationResult{Safe: false, Categories: flagged}, nil
}

// displayCategory turns "hate/threatening" into "hate (threatening)" and
// underscores into spaces.
func displayCategory(cat string) string {
	if base, sub, ok := strings.Cut(cat, "/"); ok {
		cat = base + " (" + sub + ")"
	}
	return strings.ReplaceAll(cat, "_", " ")
}

// fallbackModerator tries primary first and switches to secondary when the
// primary rejects the credentials (project-scoped OpenAI keys cannot call
// the moderation endpoint).
type fallbackModerator struct {
	primary   Moderator
	secondary Moderator
}

func newFallbackModerator(primary, secondary Moderator) *fallbackModerator {
	return &fallbackModerator{primary: primary, secondary: secondary}
}

func (f *fallbackModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	res, err := f.primary.CheckSafety(ctx, text)
	if err == nil {
		return res, nil
	}

	var se *StatusError
	if !errors.As(err, &se) || (se.Code != http.StatusUnauthorized && se.Code != http.StatusForbidden) {
		return nil, err
	}
	slog.Warn("primary moderator rejected credentials, using fallback", "error", err)
	return f.secondary.CheckSafety(ctx, text)
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}
