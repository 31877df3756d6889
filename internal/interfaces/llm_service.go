package interfaces

import (
	"context"
)

// LLMMode represents the operational mode of the LLM service
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"

	// LLMModeOffline indicates the service renders output locally
	LLMModeOffline LLMMode = "offline"
)

// ChatRequest is a single-turn generation request
type ChatRequest struct {
	// System is the style directive sent as the system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Temperature biases toward consistent output; lower is more deterministic
	Temperature float32
}

// LLMService defines the interface for text generation. Implementations may
// use cloud APIs (Gemini, Claude) or render locally.
type LLMService interface {
	// Chat generates a completion for the request and returns the raw text.
	// The returned text may be empty; callers validate length.
	Chat(ctx context.Context, request ChatRequest) (string, error)

	// HealthCheck verifies the service is configured and reachable.
	HealthCheck(ctx context.Context) error

	// GetMode returns the current operational mode of the LLM service.
	GetMode() LLMMode

	// Close releases resources.
	Close() error
}
