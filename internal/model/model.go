package model

import (
	"fmt"
	"time"
)

// AssessmentMode selects the rules a study session runs under.
type AssessmentMode string

const (
	// ModePractice gives immediate feedback and locks each answer once given.
	ModePractice AssessmentMode = "practice"
	// ModeExam withholds feedback, allows answer changes, and runs a countdown.
	ModeExam AssessmentMode = "exam"
)

// ParseMode validates a mode string coming from a client.
func ParseMode(s string) (AssessmentMode, error) {
	switch AssessmentMode(s) {
	case ModePractice, ModeExam:
		return AssessmentMode(s), nil
	}
	return "", fmt.Errorf("unknown assessment mode %q", s)
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is one generated multiple-choice question.
type Question struct {
	ID           string     `json:"id"`
	Discipline   string     `json:"discipline"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
	Text         string     `json:"text"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correctIndex"`
	Explanation  string     `json:"explanation"`
}

// ExamDates holds the two schedule entries extracted from a notice.
type ExamDates struct {
	Registration string `json:"inscricao,omitempty"`
	Exam         string `json:"prova,omitempty"`
}

// SubjectTopics is one syllabus subject with its topic list.
type SubjectTopics struct {
	Discipline string   `json:"disciplina"`
	Topics     []string `json:"topicos"`
}

// ExamNotice is the structured profile extracted from a public exam notice
// (an "edital"). JSON field names follow the extraction schema, which speaks
// Portuguese like the notices themselves.
type ExamNotice struct {
	ID           string          `json:"id"`
	Name         string          `json:"nome"`
	Salary       string          `json:"salario,omitempty"`
	Vacancies    string          `json:"vagas,omitempty"`
	Education    string          `json:"escolaridade,omitempty"`
	Dates        ExamDates       `json:"datas"`
	Disciplines  []string        `json:"disciplinas"`
	Requirements string          `json:"requisitos,omitempty"`
	FitnessTest  string          `json:"taf,omitempty"`
	Syllabus     []SubjectTopics `json:"materias,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ScoreRecord is the single durable artifact of a finished session.
type ScoreRecord struct {
	ID         string         `json:"id"`
	NoticeID   string         `json:"noticeId"`
	NoticeName string         `json:"noticeName"`
	Mode       AssessmentMode `json:"mode"`
	Score      int            `json:"score"`
	Total      int            `json:"total"`
	CreatedAt  time.Time      `json:"timestamp"`
}

// StudyGuide is the generated study material for one discipline.
type StudyGuide struct {
	Summary      string   `json:"summary"`
	Bibliography []string `json:"bibliography"`
	Tips         []string `json:"tips"`
}

// MentorEntry is one persisted mentoring exchange for a notice's discipline.
type MentorEntry struct {
	ID         string    `json:"id"`
	NoticeID   string    `json:"noticeId"`
	Discipline string    `json:"discipline"`
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	CreatedAt  time.Time `json:"timestamp"`
}
