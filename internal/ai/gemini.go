// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// geminiProvider implements Provider and ImageGenerator using the Gemini
// REST API (POST /v1beta/models/{model}:generateContent).
type geminiProvider struct {
	config ProviderConfig
	client *http.Client
}

func newGemini(cfg ProviderConfig) *geminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	return &geminiProvider{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: req.System}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: req.User}}}},
	}
	if req.JSON {
		body.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}
	}

	var result geminiResponse
	if err := p.call(ctx, model, body, &result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("gemini: no text in response")
}

// GenerateImage uses the configured image model with image output enabled.
func (p *geminiProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	model := p.config.ModelImage
	if model == "" {
		return nil, "", fmt.Errorf("gemini: image generation requires an image model")
	}

	body := geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: "Generate an image of: " + prompt}}}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	var result geminiResponse
	if err := p.call(ctx, model, body, &result); err != nil {
		return nil, "", err
	}
	for _, c := range result.Candidates {
		for _, part := range c.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			img, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, "", fmt.Errorf("gemini image decode base64: %w", err)
			}
			contentType := part.InlineData.MimeType
			if contentType == "" {
				contentType = "image/png"
			}
			return img, contentType, nil
		}
	}
	return nil, "", fmt.Errorf("gemini image: no image data in response")
}

func (p *geminiProvider) call(ctx context.Context, model string, body geminiRequest, out *geminiResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("gemini marshal: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.config.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gemini read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("gemini unmarshal: %w", err)
	}
	return nil
}

// --- Gemini API types ---

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"system_instruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}
