package llm

import "context"

// Provider is the boundary to a generative-language endpoint.
// Implementations normalize their SDK's request/response shapes so callers
// never see provider-specific types.
type Provider interface {
	// Generate sends a single-turn prompt and returns the complete response.
	// The request's Schema field, when set, instructs the provider to
	// constrain output to that schema. The constraint is advisory; callers
	// still sanitize and validate the result.
	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStream sends a single-turn prompt and returns the response as
	// a pull-based stream of text fragments.
	GenerateStream(ctx context.Context, req Request) (Stream, error)

	// ListModels returns the model identifiers available at the endpoint.
	ListModels(ctx context.Context) ([]string, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Prompt is the user-turn content.
	Prompt string

	// Schema is the JSON Schema the response should conform to.
	// When nil the response is free text.
	Schema *Schema

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64

	// MaxTokens caps the response length. 0 means provider default.
	MaxTokens int
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema. Kebab-case, e.g. "mock-exam".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds a complete (non-streamed) model output.
type Response struct {
	// Text is the raw model output, fences and all. Callers pass it
	// through Sanitize before treating it as JSON.
	Text string

	// Model is the model that served the request.
	Model string
}

// Stream is an in-order sequence of text fragments from the model.
// Next returns io.EOF after the final fragment. Fragments may be empty.
type Stream interface {
	Next() (string, error)
	Close() error
}
