// Package generate runs compiled actions against a model provider:
// invoke, sanitize, validate, then check the result makes sense for the
// action that asked for it.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/editalmaster/editalmaster/internal/action"
	"github.com/editalmaster/editalmaster/internal/llm"
	"github.com/editalmaster/editalmaster/internal/model"
)

var (
	// ErrNoDisciplines means extraction succeeded structurally but found no
	// disciplines, so nothing downstream can work with the result.
	ErrNoDisciplines = errors.New("no disciplines identified")
	// ErrStreamOnly means Run was called with a free-text action.
	ErrStreamOnly = errors.New("free-text action requires streaming")
)

// Service executes actions against a model provider.
type Service struct {
	provider llm.Provider
}

// NewService creates a Service on the given provider. The provider is
// expected to carry its own retry policy.
func NewService(p llm.Provider) *Service {
	return &Service{provider: p}
}

// Run executes a structured or passthrough action and returns its JSON
// payload. Free-text actions go through RunStream instead.
func (s *Service) Run(ctx context.Context, act action.Action, fields action.Fields) (json.RawMessage, error) {
	c, err := action.Compile(act, fields)
	if err != nil {
		return nil, err
	}

	switch c.Mode {
	case action.Passthrough:
		models, err := s.provider.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Models []string `json:"models"`
		}{Models: models})
	case action.FreeText:
		return nil, fmt.Errorf("%w: %s", ErrStreamOnly, act)
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      c.System,
		Prompt:      c.Prompt,
		Schema:      c.Schema,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	raw, err := llm.Sanitize(resp.Text)
	if err != nil {
		return nil, err
	}
	if err := llm.ValidateSchema(c.Schema, raw); err != nil {
		return nil, err
	}
	if err := checkResult(act, raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// MockExam generates the question set for a study session: count questions
// drawn from the given disciplines, each one checked and assigned an ID.
func (s *Service) MockExam(ctx context.Context, disciplines []string, count int) ([]model.Question, error) {
	raw, err := s.Run(ctx, action.MockExam, action.Fields{Disciplines: disciplines, Count: count})
	if err != nil {
		return nil, err
	}

	questions, err := parseQuestions(raw)
	if err != nil {
		return nil, err
	}
	if len(questions) < count {
		return nil, &llm.ErrMalformedOutput{
			Raw: string(raw),
			Err: fmt.Errorf("expected %d questions, got %d", count, len(questions)),
		}
	}
	questions = questions[:count]

	for i := range questions {
		questions[i].ID = uuid.NewString()
	}
	return questions, nil
}

// checkResult applies the action-dependent semantic check. An empty
// discipline list degrades a metadata-only extraction but is fatal for the
// profile that feeds session creation.
func checkResult(act action.Action, raw json.RawMessage) error {
	switch act {
	case action.FullProfile:
		var notice model.ExamNotice
		if err := json.Unmarshal(raw, &notice); err != nil {
			return &llm.ErrMalformedOutput{Raw: string(raw), Err: err}
		}
		if len(notice.Disciplines) == 0 {
			return ErrNoDisciplines
		}
	case action.MockExam:
		if _, err := parseQuestions(raw); err != nil {
			return err
		}
	}
	return nil
}

// parseQuestions decodes a mock exam payload and rejects unusable
// questions: fewer than 4 or more than 5 options, or a correct index that
// points outside them.
func parseQuestions(raw json.RawMessage) ([]model.Question, error) {
	var payload struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &llm.ErrMalformedOutput{Raw: string(raw), Err: err}
	}
	if len(payload.Questions) == 0 {
		return nil, &llm.ErrMalformedOutput{Raw: string(raw), Err: errors.New("no questions in payload")}
	}

	for i, q := range payload.Questions {
		if len(q.Options) < 4 || len(q.Options) > 5 {
			return nil, &llm.ErrMalformedOutput{
				Raw: string(raw),
				Err: fmt.Errorf("question %d has %d options, want 4 or 5", i, len(q.Options)),
			}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, &llm.ErrMalformedOutput{
				Raw: string(raw),
				Err: fmt.Errorf("question %d correct index %d out of range", i, q.CorrectIndex),
			}
		}
	}
	return payload.Questions, nil
}
