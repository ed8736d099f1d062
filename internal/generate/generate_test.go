package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/editalmaster/editalmaster/internal/action"
	"github.com/editalmaster/editalmaster/internal/llm"
)

const profileJSON = `{
	"nome": "Prefeitura de SP - Auditor",
	"salario": "R$ 15.000,00",
	"disciplinas": ["Português", "Matemática", "Direito Administrativo"],
	"datas": {"inscricao": "01/03/2026", "prova": "10/05/2026"}
}`

const questionsJSON = `{"questions": [
	{"text": "Q1", "options": ["a", "b", "c", "d"], "correctIndex": 1, "explanation": "E1", "discipline": "Português"},
	{"text": "Q2", "options": ["a", "b", "c", "d", "e"], "correctIndex": 4, "explanation": "E2", "discipline": "Matemática"}
]}`

func TestRunFullProfile(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "```json\n" + profileJSON + "\n```"})
	svc := NewService(mock)

	raw, err := svc.Run(context.Background(), action.FullProfile, action.Fields{Document: "texto do edital"})
	require.NoError(t, err)
	assert.JSONEq(t, profileJSON, string(raw))

	// The compiled schema must have been passed as a generation constraint.
	require.Len(t, mock.Calls, 1)
	require.NotNil(t, mock.Calls[0].Schema)
	assert.Equal(t, "full-exam-profile", mock.Calls[0].Schema.Name)
}

func TestRunFullProfileWithoutDisciplines(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: `{"nome": "Auditor", "disciplinas": []}`})
	svc := NewService(mock)

	_, err := svc.Run(context.Background(), action.FullProfile, action.Fields{Document: "texto"})
	assert.ErrorIs(t, err, ErrNoDisciplines)
}

func TestRunMetadataWithoutDisciplinesIsDegradedButUsable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: `{"nome": "Auditor"}`})
	svc := NewService(mock)

	raw, err := svc.Run(context.Background(), action.ExamMetadata, action.Fields{Document: "texto"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nome": "Auditor"}`, string(raw))
}

func TestRunRejectsNonJSONOutput(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "desculpe, não consegui"})
	svc := NewService(mock)

	_, err := svc.Run(context.Background(), action.FullProfile, action.Fields{Document: "texto"})
	var malformed *llm.ErrMalformedOutput
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "desculpe, não consegui", malformed.Raw)
}

func TestRunRejectsSchemaViolation(t *testing.T) {
	// disciplinas must be an array of strings.
	mock := llm.NewMockProvider(llm.MockResponse{Text: `{"nome": "Auditor", "disciplinas": "Português"}`})
	svc := NewService(mock)

	_, err := svc.Run(context.Background(), action.FullProfile, action.Fields{Document: "texto"})
	var malformed *llm.ErrMalformedOutput
	require.ErrorAs(t, err, &malformed)
}

func TestRunRejectsFreeTextActions(t *testing.T) {
	svc := NewService(llm.NewMockProvider())

	_, err := svc.Run(context.Background(), action.Plan, action.Fields{Document: "texto"})
	assert.ErrorIs(t, err, ErrStreamOnly)
}

func TestRunRejectsUnknownAction(t *testing.T) {
	svc := NewService(llm.NewMockProvider())

	_, err := svc.Run(context.Background(), action.Action("make-coffee"), action.Fields{})
	assert.ErrorIs(t, err, action.ErrUnknownAction)
}

func TestRunListModels(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Models = []string{"gemini-2.5-flash", "gemini-2.5-pro"}
	svc := NewService(mock)

	raw, err := svc.Run(context.Background(), action.ListModels, action.Fields{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"models": ["gemini-2.5-flash", "gemini-2.5-pro"]}`, string(raw))
	// Passthrough: no prompt reaches the provider.
	assert.Empty(t, mock.Calls)
}

func TestMockExam(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: questionsJSON})
	svc := NewService(mock)

	questions, err := svc.MockExam(context.Background(), []string{"Português", "Matemática"}, 2)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	for _, q := range questions {
		assert.NotEmpty(t, q.ID)
		assert.GreaterOrEqual(t, len(q.Options), 4)
		assert.LessOrEqual(t, len(q.Options), 5)
	}
	assert.Equal(t, "Q1", questions[0].Text)
	assert.Equal(t, 4, questions[1].CorrectIndex)
}

func TestMockExamRejectsOutOfRangeCorrectIndex(t *testing.T) {
	bad := `{"questions": [{"text": "Q", "options": ["a","b","c","d"], "correctIndex": 4, "explanation": "E", "discipline": "D"}]}`
	mock := llm.NewMockProvider(llm.MockResponse{Text: bad})
	svc := NewService(mock)

	_, err := svc.MockExam(context.Background(), []string{"D"}, 1)
	var malformed *llm.ErrMalformedOutput
	require.ErrorAs(t, err, &malformed)
}

func TestMockExamRejectsTooFewOptions(t *testing.T) {
	bad := `{"questions": [{"text": "Q", "options": ["a","b"], "correctIndex": 0, "explanation": "E", "discipline": "D"}]}`
	mock := llm.NewMockProvider(llm.MockResponse{Text: bad})
	svc := NewService(mock)

	_, err := svc.MockExam(context.Background(), []string{"D"}, 1)
	var malformed *llm.ErrMalformedOutput
	require.ErrorAs(t, err, &malformed)
}

func TestMockExamRejectsShortSet(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: questionsJSON})
	svc := NewService(mock)

	_, err := svc.MockExam(context.Background(), []string{"Português"}, 5)
	var malformed *llm.ErrMalformedOutput
	require.ErrorAs(t, err, &malformed)
}

func TestMockExamTrimsSurplus(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: questionsJSON})
	svc := NewService(mock)

	questions, err := svc.MockExam(context.Background(), []string{"Português"}, 1)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}
