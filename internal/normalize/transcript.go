// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error codes returned by the transcript service.
const (
	codeCaptionsDisabled = "captions_disabled"
	codeNotFound         = "not_found"
)

// HTTPTranscriptClient calls a transcript service that accepts
// {"videoId": ...} and answers {"transcript": ...} or
// {"error": ..., "code": ...}.
type HTTPTranscriptClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPTranscriptClient creates a client for endpoint. apiKey is sent as a
// bearer token when non-empty.
func NewHTTPTranscriptClient(endpoint, apiKey string, timeout time.Duration) *HTTPTranscriptClient {
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &HTTPTranscriptClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type transcriptRequest struct {
	VideoID string `json:"videoId"`
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
	Error      string `json:"error"`
	Code       string `json:"code"`
}

// Transcript fetches the transcript of videoID.
func (c *HTTPTranscriptClient) Transcript(ctx context.Context, videoID string) (string, error) {
	payload, err := json.Marshal(transcriptRequest{VideoID: videoID})
	if err != nil {
		return "", fmt.Errorf("%w: marshal: %w", ErrTranscriptFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: request: %w", ErrTranscriptFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %w", ErrTranscriptFailed, err)
	}

	var out transcriptResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%w: status %d", ErrTranscriptFailed, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: decode: %w", ErrTranscriptFailed, err)
	}

	switch out.Code {
	case codeCaptionsDisabled:
		return "", ErrCaptionsDisabled
	case codeNotFound:
		return "", ErrTranscriptNotFound
	}
	if out.Error != "" || resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrTranscriptFailed, resp.StatusCode, out.Error)
	}
	return out.Transcript, nil
}
