// Package llm defines the auxiliary generative interface the toolkit can
// optionally carry for media generation.
package llm

import "context"

// ImageRequest describes an image to generate.
type ImageRequest struct {
	Prompt string
	Size   string
	Count  int
}

// GeneratedImage is one produced image, referenced by URL.
type GeneratedImage struct {
	URL string `json:"url"`
}

// ImageGenerator produces images from natural language prompts.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) ([]GeneratedImage, error)
}
