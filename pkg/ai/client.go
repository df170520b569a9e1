// Package ai provides the client for the external AI service: text embedding
// for compatibility scoring and prompt completion for document flows. The
// engine consumes both as opaque capabilities.
package ai

import "context"

// EmbedDim is the dimensionality of embedding vectors the service returns.
const EmbedDim = 384

// Client exposes the AI collaborator interface.
type Client interface {
	// Embed returns an EmbedDim-dimensional vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// GenerateText completes a prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)
}
