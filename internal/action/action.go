// Package action maps caller-invoked actions to model prompts.
// Each action compiles to a prompt, an output mode, and, for structured
// actions, the schema the response must conform to.
package action

import (
	"errors"
	"fmt"

	"github.com/editalmaster/editalmaster/internal/llm"
)

// Action identifies one generation capability.
type Action string

const (
	// Plan builds a weekly study schedule from a notice document.
	Plan Action = "plan"
	// Quiz produces a 5-question topic quiz in a fixed textual layout.
	Quiz Action = "quiz"
	// ExamMetadata extracts organization, salary, vacancies, and dates.
	ExamMetadata Action = "exam-metadata-extract"
	// Syllabus extracts the subject/topic breakdown from the notice annex.
	Syllabus Action = "syllabus-extract"
	// SubjectTopics extracts the topic list for one named subject.
	SubjectTopics Action = "single-subject-topics"
	// FullProfile combines metadata and syllabus extraction in one pass.
	FullProfile Action = "full-exam-profile"
	// MockExam generates scored multiple-choice questions.
	MockExam Action = "mock-exam-generate"
	// StudyGuide generates summary, bibliography, and tips for a discipline.
	StudyGuide Action = "study-guide"
	// Deepen answers a student's question within a discipline.
	Deepen Action = "deepen"
	// ListModels lists the models available at the endpoint. No prompt.
	ListModels Action = "list-models"
)

// OutputMode says how a compiled action's response is consumed.
type OutputMode int

const (
	// FreeText responses stream to the consumer as Markdown.
	FreeText OutputMode = iota
	// Structured responses are sanitized and schema-validated JSON.
	Structured
	// Passthrough actions query the endpoint directly, no prompt involved.
	Passthrough
)

// DocumentBudget caps how many characters of notice text are interpolated
// into a prompt. Overflow is dropped silently; notices front-load the
// relevant sections.
const DocumentBudget = 30000

var (
	// ErrUnknownAction marks an action name outside the recognized set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidRequest marks a recognized action missing a required field.
	ErrInvalidRequest = errors.New("invalid request")
)

// Fields carries the caller-supplied inputs an action may interpolate.
type Fields struct {
	// Document is the raw notice text. Truncated to DocumentBudget.
	Document string
	// Topic scopes the quiz action.
	Topic string
	// Discipline scopes single-subject, study-guide, and deepen actions.
	Discipline string
	// Disciplines feed the mock exam generator.
	Disciplines []string
	// Query is the student's question for the deepen action.
	Query string
	// Count overrides the number of mock exam questions. 0 means 10.
	Count int
}

// Compiled is a ready-to-send prompt with its consumption contract.
type Compiled struct {
	System string
	Prompt string
	Mode   OutputMode
	Schema *llm.Schema
}

// Parse validates an action name coming from a client.
func Parse(s string) (Action, error) {
	a := Action(s)
	switch a {
	case Plan, Quiz, ExamMetadata, Syllabus, SubjectTopics, FullProfile,
		MockExam, StudyGuide, Deepen, ListModels:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Mode returns how the action's output is consumed, without compiling it.
func (a Action) Mode() OutputMode {
	switch a {
	case Plan, Quiz, Deepen:
		return FreeText
	case ListModels:
		return Passthrough
	}
	return Structured
}

// Compile builds the prompt for an action. Document text is bounded to
// DocumentBudget before interpolation.
func Compile(a Action, f Fields) (Compiled, error) {
	doc := truncate(f.Document, DocumentBudget)

	switch a {
	case Plan:
		if doc == "" {
			return Compiled{}, fmt.Errorf("%w: %s requires document text", ErrInvalidRequest, a)
		}
		return Compiled{Prompt: planPrompt(doc), Mode: FreeText}, nil

	case Quiz:
		topic := f.Topic
		if topic == "" {
			topic = "Geral"
		}
		return Compiled{Prompt: quizPrompt(topic, doc), Mode: FreeText}, nil

	case ExamMetadata:
		if doc == "" {
			return Compiled{}, fmt.Errorf("%w: %s requires document text", ErrInvalidRequest, a)
		}
		return Compiled{
			System: metadataSystemPrompt(),
			Prompt: analyzePrompt(doc),
			Mode:   Structured,
			Schema: metadataSchema(),
		}, nil

	case Syllabus:
		if doc == "" {
			return Compiled{}, fmt.Errorf("%w: %s requires document text", ErrInvalidRequest, a)
		}
		return Compiled{
			System: syllabusSystemPrompt(),
			Prompt: analyzePrompt(doc),
			Mode:   Structured,
			Schema: syllabusSchema(),
		}, nil

	case SubjectTopics:
		if doc == "" || f.Discipline == "" {
			return Compiled{}, fmt.Errorf("%w: %s requires document text and a discipline", ErrInvalidRequest, a)
		}
		return Compiled{
			System: subjectTopicsSystemPrompt(f.Discipline),
			Prompt: analyzePrompt(doc),
			Mode:   Structured,
			Schema: subjectTopicsSchema(),
		}, nil

	case FullProfile:
		if doc == "" {
			return Compiled{}, fmt.Errorf("%w: %s requires document text", ErrInvalidRequest, a)
		}
		return Compiled{
			System: fullProfileSystemPrompt(),
			Prompt: analyzePrompt(doc),
			Mode:   Structured,
			Schema: fullProfileSchema(),
		}, nil

	case MockExam:
		if len(f.Disciplines) == 0 {
			return Compiled{}, fmt.Errorf("%w: %s requires at least one discipline", ErrInvalidRequest, a)
		}
		count := f.Count
		if count <= 0 {
			count = 10
		}
		return Compiled{
			System: mockExamSystemPrompt(count, f.Disciplines),
			Prompt: "Gere o simulado.",
			Mode:   Structured,
			Schema: mockExamSchema(),
		}, nil

	case StudyGuide:
		if f.Discipline == "" {
			return Compiled{}, fmt.Errorf("%w: %s requires a discipline", ErrInvalidRequest, a)
		}
		return Compiled{
			System: studyGuideSystemPrompt(f.Discipline),
			Prompt: "Gere o guia.",
			Mode:   Structured,
			Schema: studyGuideSchema(),
		}, nil

	case Deepen:
		if f.Discipline == "" || f.Query == "" {
			return Compiled{}, fmt.Errorf("%w: %s requires a discipline and a query", ErrInvalidRequest, a)
		}
		return Compiled{Prompt: deepenPrompt(f.Discipline, f.Query), Mode: FreeText}, nil

	case ListModels:
		return Compiled{Mode: Passthrough}, nil
	}

	return Compiled{}, fmt.Errorf("%w: %q", ErrUnknownAction, a)
}

// truncate bounds s to at most n characters (runes, not bytes).
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
