package llm

import (
	"context"
)

// Intent names used to select a model profile for a generation task.
const (
	IntentMystery = "mystery"
)

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// GenerateText sends a system+user prompt pair and returns the text response.
	GenerateText(ctx context.Context, name, system, prompt string) (string, error)

	// GenerateJSON sends a system+user prompt pair and unmarshals the JSON
	// response into the target struct.
	GenerateJSON(ctx context.Context, name, system, prompt string, target any) error

	// HealthCheck verifies that the provider is configured and reachable.
	HealthCheck(ctx context.Context) error

	// HasProfile checks if the provider has a specific profile configured.
	HasProfile(name string) bool
}
