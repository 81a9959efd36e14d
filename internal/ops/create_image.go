package ops

import (
	"context"
	"strings"

	"SolAgent-Kit/internal/agent"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/llm"
)

// CreateImageRequest generates images through the configured media
// provider.
type CreateImageRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// Validate checks the request before any network interaction.
func (r CreateImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "prompt is required")
	}
	if r.Count < 0 || r.Count > 10 {
		return xerrors.New(xerrors.CodeInvalidArgument, "count must be between 1 and 10")
	}
	return nil
}

// CreateImageResult lists the generated image URLs.
type CreateImageResult struct {
	Images []llm.GeneratedImage `json:"images"`
}

// CreateImage calls the media provider. The operation is unavailable until
// a media credential is configured.
func CreateImage(ctx context.Context, kit *agent.Kit, req CreateImageRequest) (*CreateImageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	generator := kit.Images()
	if generator == nil {
		return nil, xerrors.New(xerrors.CodeCredentialFailure, "no media provider is configured")
	}

	images, err := generator.GenerateImage(ctx, llm.ImageRequest{
		Prompt: req.Prompt,
		Size:   req.Size,
		Count:  req.Count,
	})
	if err != nil {
		return nil, err
	}
	return &CreateImageResult{Images: images}, nil
}
