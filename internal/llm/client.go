// Package llm provides the generation clients that turn a user request into
// raw model text.
package llm

import (
	"context"
	"errors"
	"strings"
)

// directive is sent ahead of every user request. It is fixed per build; model
// and provider selection live in configuration.
const directive = `You are an expert full-stack developer. The user wants an application.

Respond with exactly one JSON array and nothing else.
Each element of the array is an object with two string fields: "filename" (a relative path) and "content" (the full file contents).
Do not output markdown, code fences or explanations.`

// ErrEmptyPrompt is returned when a request is built from blank text.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// GenerationRequest is a single-turn request. It is immutable once built.
type GenerationRequest struct {
	prompt string
}

// NewGenerationRequest validates prompt and wraps it in a request.
func NewGenerationRequest(prompt string) (GenerationRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return GenerationRequest{}, ErrEmptyPrompt
	}
	return GenerationRequest{prompt: prompt}, nil
}

// Prompt returns the user's literal request text.
func (r GenerationRequest) Prompt() string {
	return r.prompt
}

// Instruction returns the text sent upstream: the directive followed by the
// user's request.
func (r GenerationRequest) Instruction() string {
	return directive + "\n\nRequest: " + r.prompt
}

// GenerationResponse is the raw, untrusted text returned by the model.
type GenerationResponse struct {
	Text  string
	Model string
}

// Client is implemented by every provider. Generate issues exactly one call
// and never retries.
type Client interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error)

	// GetModelName returns the name of the model being used
	GetModelName() string
}
