// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAIProvider implements Provider and ImageGenerator on top of the
// go-openai client.
type openAIProvider struct {
	config ProviderConfig
	client *openai.Client
}

func newOpenAI(cfg ProviderConfig) *openAIProvider {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	return &openAIProvider{
		config: cfg,
		client: openai.NewClientWithConfig(oc),
	}
}

func (p *openAIProvider) Name() string { return "openai" }

// Generate sends a chat completion request. JSON requests use the
// json_object response format.
func (p *openAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	apiReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage creates a single square image and returns its PNG bytes.
func (p *openAIProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	model := p.config.ModelImage
	if model == "" {
		model = openai.CreateImageModelDallE3
	}

	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, "", fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, "", fmt.Errorf("openai image: no image data in response")
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("openai image decode base64: %w", err)
	}
	return img, "image/png", nil
}
