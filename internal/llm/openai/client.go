// Package openai implements image generation against the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "dall-e-3"
	defaultSize    = "1024x1024"
	defaultTimeout = 60 * time.Second
)

// Config describes how to reach the image API.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the image generation endpoint over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient builds an image client. The API key is mandatory.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, xerrors.New(xerrors.CodeCredentialFailure, "image API key is not configured")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// GenerateImage produces images from a prompt.
func (c *Client) GenerateImage(ctx context.Context, req llm.ImageRequest) ([]llm.GeneratedImage, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "image prompt is empty")
	}
	size := strings.TrimSpace(req.Size)
	if size == "" {
		size = defaultSize
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	body, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"n":      count,
		"size":   size,
	})
	if err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "call image API")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, xerrors.New(xerrors.CodeCredentialFailure,
			fmt.Sprintf("image API rejected the credential with status %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, xerrors.New(xerrors.CodeProviderFailure,
			fmt.Sprintf("image API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var decoded struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeProviderFailure, err, "decode image response")
	}
	if len(decoded.Data) == 0 {
		return nil, xerrors.New(xerrors.CodeProviderFailure, "image API returned no images")
	}

	images := make([]llm.GeneratedImage, 0, len(decoded.Data))
	for _, item := range decoded.Data {
		if strings.TrimSpace(item.URL) != "" {
			images = append(images, llm.GeneratedImage{URL: item.URL})
		}
	}
	return images, nil
}
