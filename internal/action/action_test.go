package action

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, name := range []string{
		"plan", "quiz", "exam-metadata-extract", "syllabus-extract",
		"single-subject-topics", "full-exam-profile", "mock-exam-generate",
		"study-guide", "deepen", "list-models",
	} {
		a, err := Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, Action(name), a)
	}

	_, err := Parse("make-coffee")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestModes(t *testing.T) {
	assert.Equal(t, FreeText, Plan.Mode())
	assert.Equal(t, FreeText, Quiz.Mode())
	assert.Equal(t, FreeText, Deepen.Mode())
	assert.Equal(t, Passthrough, ListModels.Mode())
	assert.Equal(t, Structured, FullProfile.Mode())
	assert.Equal(t, Structured, MockExam.Mode())
	assert.Equal(t, Structured, StudyGuide.Mode())
}

func TestCompileTruncatesDocument(t *testing.T) {
	doc := strings.Repeat("a", DocumentBudget) + "OVERFLOW"

	c, err := Compile(Plan, Fields{Document: doc})
	require.NoError(t, err)

	assert.Contains(t, c.Prompt, strings.Repeat("a", DocumentBudget))
	assert.NotContains(t, c.Prompt, "OVERFLOW")
}

func TestCompileTruncatesByRunes(t *testing.T) {
	// Multibyte text must not be cut mid-rune.
	doc := strings.Repeat("ção", DocumentBudget)

	c, err := Compile(Plan, Fields{Document: doc})
	require.NoError(t, err)
	assert.True(t, strings.Contains(c.Prompt, string([]rune(doc)[:DocumentBudget])))
}

func TestCompileRequiredFields(t *testing.T) {
	tests := []struct {
		action Action
		fields Fields
	}{
		{Plan, Fields{}},
		{ExamMetadata, Fields{}},
		{Syllabus, Fields{}},
		{SubjectTopics, Fields{Document: "edital"}},
		{SubjectTopics, Fields{Discipline: "Português"}},
		{FullProfile, Fields{}},
		{MockExam, Fields{}},
		{StudyGuide, Fields{}},
		{Deepen, Fields{Discipline: "Português"}},
	}
	for _, tt := range tests {
		_, err := Compile(tt.action, tt.fields)
		assert.ErrorIs(t, err, ErrInvalidRequest, string(tt.action))
	}
}

func TestCompileQuizDefaultsTopic(t *testing.T) {
	c, err := Compile(Quiz, Fields{})
	require.NoError(t, err)
	assert.Contains(t, c.Prompt, "Geral")
	assert.Equal(t, FreeText, c.Mode)
	assert.Nil(t, c.Schema)
}

func TestCompileStructuredActionsCarrySchemas(t *testing.T) {
	doc := "edital de teste"
	tests := []struct {
		action Action
		fields Fields
		schema string
	}{
		{ExamMetadata, Fields{Document: doc}, "exam-metadata"},
		{Syllabus, Fields{Document: doc}, "syllabus"},
		{SubjectTopics, Fields{Document: doc, Discipline: "Matemática"}, "subject-topics"},
		{FullProfile, Fields{Document: doc}, "full-exam-profile"},
		{MockExam, Fields{Disciplines: []string{"Português"}}, "mock-exam"},
		{StudyGuide, Fields{Discipline: "Direito"}, "study-guide"},
	}
	for _, tt := range tests {
		c, err := Compile(tt.action, tt.fields)
		require.NoError(t, err, string(tt.action))
		assert.Equal(t, Structured, c.Mode)
		require.NotNil(t, c.Schema, string(tt.action))
		assert.Equal(t, tt.schema, c.Schema.Name)
	}
}

func TestCompileMockExam(t *testing.T) {
	c, err := Compile(MockExam, Fields{Disciplines: []string{"Português", "Matemática"}, Count: 5})
	require.NoError(t, err)
	assert.Contains(t, c.System, "5 questões")
	assert.Contains(t, c.System, "Português, Matemática")

	// Default count is 10.
	c, err = Compile(MockExam, Fields{Disciplines: []string{"Direito"}})
	require.NoError(t, err)
	assert.Contains(t, c.System, "10 questões")
}

func TestCompileSubjectTopicsMentionsDiscipline(t *testing.T) {
	c, err := Compile(SubjectTopics, Fields{Document: "edital", Discipline: "Língua Portuguesa"})
	require.NoError(t, err)
	assert.Contains(t, c.System, "Língua Portuguesa")
}

func TestCompileDeepen(t *testing.T) {
	c, err := Compile(Deepen, Fields{Discipline: "Direito Constitucional", Query: "O que é cláusula pétrea?"})
	require.NoError(t, err)
	assert.Equal(t, FreeText, c.Mode)
	assert.Contains(t, c.Prompt, "Direito Constitucional")
	assert.Contains(t, c.Prompt, "cláusula pétrea")
}

func TestCompileListModels(t *testing.T) {
	c, err := Compile(ListModels, Fields{})
	require.NoError(t, err)
	assert.Equal(t, Passthrough, c.Mode)
	assert.Empty(t, c.Prompt)
}
