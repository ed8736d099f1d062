package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for OpenAI-compatible endpoints
// (OpenAI itself, Ollama, vLLM, and the like).
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional override for compatible APIs.
}

// OpenAIProvider implements Provider over any OpenAI-compatible API.
type OpenAIProvider struct {
	api   *openai.Client
	model string
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := p.api.CreateChatCompletion(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrMalformedOutput{Err: fmt.Errorf("model returned no choices")}
	}

	return &Response{Text: resp.Choices[0].Message.Content, Model: p.model}, nil
}

func (p *OpenAIProvider) GenerateStream(ctx context.Context, req Request) (Stream, error) {
	stream, err := p.api.CreateChatCompletionStream(ctx, p.buildRequest(req, true))
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	return &openaiStream{stream: stream}, nil
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	list, err := p.api.ListModels(ctx)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	var names []string
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

func (p *OpenAIProvider) buildRequest(req Request, stream bool) openai.ChatCompletionRequest {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	out := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}

	// The compatible APIs have no schema-constrained mode; JSON object mode
	// plus the schema description in the prompt is the closest equivalent.
	if req.Schema != nil {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return out
}

// openaiStream adapts the SDK's Recv loop to the Stream contract.
type openaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openaiStream) Next() (string, error) {
	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}

func mapOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	// Transport-level failure.
	return &ErrUpstream{Err: err}
}

func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status >= 500:
		return &ErrUpstream{StatusCode: status, Err: err}
	case status >= 400:
		return &ErrFatalStatus{StatusCode: status, Err: err}
	}
	return &ErrUpstream{StatusCode: status, Err: err}
}
