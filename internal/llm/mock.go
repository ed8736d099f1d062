package llm

import (
	"context"
	"io"
	"sync"
)

// MockResponse is a canned outcome for the MockProvider. Text serves
// Generate calls; Chunks serve GenerateStream calls. When Err is set it is
// returned instead. ChunkErr, when set, ends a stream in place of io.EOF
// after Chunks are drained.
type MockResponse struct {
	Text     string
	Chunks   []string
	Err      error
	ChunkErr error
}

// MockProvider is a deterministic Provider for testing. It returns canned
// responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse

	// Models is what ListModels returns.
	Models []string
	// Calls records every Generate/GenerateStream request.
	Calls []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	resp, err := m.take(req)
	if err != nil {
		return nil, err
	}
	return &Response{Text: resp.Text, Model: "mock"}, nil
}

func (m *MockProvider) GenerateStream(_ context.Context, req Request) (Stream, error) {
	resp, err := m.take(req)
	if err != nil {
		return nil, err
	}
	return &mockStream{chunks: resp.Chunks, finalErr: resp.ChunkErr}, nil
}

func (m *MockProvider) ListModels(_ context.Context) ([]string, error) {
	return m.Models, nil
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of requests made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockProvider) take(req Request) (MockResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return MockResponse{}, &ErrUpstream{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return MockResponse{}, resp.Err
	}
	return resp, nil
}

type mockStream struct {
	chunks   []string
	finalErr error
}

func (s *mockStream) Next() (string, error) {
	if len(s.chunks) == 0 {
		if s.finalErr != nil {
			err := s.finalErr
			s.finalErr = nil
			return "", err
		}
		return "", io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

func (s *mockStream) Close() error { return nil }
