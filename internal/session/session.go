// Package session holds the in-memory assessment runtime. A session is
// born with its full question set, lives through answering and navigation,
// and ends exactly once, leaving a single score record behind.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/editalmaster/editalmaster/internal/model"
)

const (
	// PracticeQuestions is the question count for practice sessions.
	PracticeQuestions = 5
	// ExamQuestions is the question count for exam sessions.
	ExamQuestions = 10
	// ExamTimeBudget is the countdown for exam sessions.
	ExamTimeBudget = 45 * time.Minute
)

// Unanswered marks an empty slot on the answer sheet.
const Unanswered = -1

var (
	// ErrNotFound is returned when a session ID matches nothing live.
	ErrNotFound = errors.New("session not found")
	// ErrFinished is returned for any mutation of a finished session.
	ErrFinished = errors.New("session already finished")
	// ErrLocked is returned when practice mode rejects a second answer.
	ErrLocked = errors.New("answer already recorded")
	// ErrOutOfRange is returned for a question or option index off the sheet.
	ErrOutOfRange = errors.New("index out of range")
	// ErrBadQuestionSet is returned when the generated set can't seed a session.
	ErrBadQuestionSet = errors.New("unusable question set")
)

// Session is one live assessment run. All methods are safe for concurrent
// use; the countdown ticker and HTTP handlers share it.
type Session struct {
	ID         string
	Mode       model.AssessmentMode
	NoticeID   string
	NoticeName string

	mu        sync.Mutex
	questions []model.Question
	answers   []int
	current   int
	timeLeft  int // seconds; stays 0 for practice
	finished  bool
	record    model.ScoreRecord
}

// New validates the question set and creates an active session.
func New(mode model.AssessmentMode, noticeID, noticeName string, questions []model.Question) (*Session, error) {
	want := PracticeQuestions
	if mode == model.ModeExam {
		want = ExamQuestions
	}
	if len(questions) != want {
		return nil, fmt.Errorf("%w: need %d questions, got %d", ErrBadQuestionSet, want, len(questions))
	}
	for i, q := range questions {
		if len(q.Options) < 4 || len(q.Options) > 5 {
			return nil, fmt.Errorf("%w: question %d has %d options", ErrBadQuestionSet, i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, fmt.Errorf("%w: question %d correct index %d out of range", ErrBadQuestionSet, i, q.CorrectIndex)
		}
	}

	answers := make([]int, len(questions))
	for i := range answers {
		answers[i] = Unanswered
	}

	s := &Session{
		ID:         uuid.NewString(),
		Mode:       mode,
		NoticeID:   noticeID,
		NoticeName: noticeName,
		questions:  questions,
		answers:    answers,
	}
	if mode == model.ModeExam {
		s.timeLeft = int(ExamTimeBudget.Seconds())
	}
	return s, nil
}

// Feedback is what practice mode reveals right after an answer.
type Feedback struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation"`
}

// Answer records the chosen option for question q. Practice sessions lock
// each slot at the first answer and return immediate feedback; exam
// sessions allow overwriting and return nil feedback.
func (s *Session) Answer(q, option int) (*Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return nil, ErrFinished
	}
	if q < 0 || q >= len(s.questions) {
		return nil, fmt.Errorf("%w: question %d", ErrOutOfRange, q)
	}
	if option < 0 || option >= len(s.questions[q].Options) {
		return nil, fmt.Errorf("%w: option %d", ErrOutOfRange, option)
	}
	if s.Mode == model.ModePractice && s.answers[q] != Unanswered {
		return nil, ErrLocked
	}

	s.answers[q] = option

	if s.Mode == model.ModePractice {
		question := s.questions[q]
		return &Feedback{
			Correct:      option == question.CorrectIndex,
			CorrectIndex: question.CorrectIndex,
			Explanation:  question.Explanation,
		}, nil
	}
	return nil, nil
}

// Advance moves to the next question, clamped to the last one, and returns
// the current index.
func (s *Session) Advance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < len(s.questions)-1 {
		s.current++
	}
	return s.current
}

// Retreat moves to the previous question, clamped to the first one, and
// returns the current index.
func (s *Session) Retreat() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current > 0 {
		s.current--
	}
	return s.current
}

// Finish scores the session and moves it to its terminal state. Unanswered
// questions count as wrong. The second return is true only for the call
// that actually finished the session; later calls return the same record
// with false, so exactly one caller persists it.
func (s *Session) Finish() (model.ScoreRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishLocked()
}

func (s *Session) finishLocked() (model.ScoreRecord, bool) {
	if s.finished {
		return s.record, false
	}

	score := 0
	for i, q := range s.questions {
		if s.answers[i] == q.CorrectIndex {
			score++
		}
	}

	s.record = model.ScoreRecord{
		ID:         uuid.NewString(),
		NoticeID:   s.NoticeID,
		NoticeName: s.NoticeName,
		Mode:       s.Mode,
		Score:      score,
		Total:      len(s.questions),
		CreatedAt:  time.Now(),
	}
	s.finished = true
	return s.record, true
}

// Tick advances the exam countdown by one second. When the budget reaches
// zero the session finishes itself; the returned record and true signal
// that this tick did the finishing. Practice sessions and finished
// sessions ignore ticks.
func (s *Session) Tick() (model.ScoreRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.Mode != model.ModeExam {
		return model.ScoreRecord{}, false
	}

	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		return s.finishLocked()
	}
	return model.ScoreRecord{}, false
}

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// TimeLeft returns the remaining exam seconds (0 for practice).
func (s *Session) TimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft
}

// QuestionView is a question as the client may see it. The correct answer
// and explanation appear only once the mode's reveal rules allow.
type QuestionView struct {
	ID           string           `json:"id"`
	Discipline   string           `json:"discipline"`
	Difficulty   model.Difficulty `json:"difficulty,omitempty"`
	Text         string           `json:"text"`
	Options      []string         `json:"options"`
	CorrectIndex *int             `json:"correctIndex,omitempty"`
	Explanation  string           `json:"explanation,omitempty"`
}

// State is the client-visible session snapshot.
type State struct {
	ID         string               `json:"id"`
	Mode       model.AssessmentMode `json:"mode"`
	NoticeID   string               `json:"noticeId"`
	NoticeName string               `json:"noticeName"`
	Questions  []QuestionView       `json:"questions"`
	Answers    []int                `json:"answers"`
	Current    int                  `json:"currentIndex"`
	TimeLeft   int                  `json:"timeLeft"`
	Finished   bool                 `json:"finished"`
	Result     *model.ScoreRecord   `json:"result,omitempty"`
}

// Snapshot renders the session for the client. Exams hide correct answers
// until finished; practice reveals them per answered question.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:         s.ID,
		Mode:       s.Mode,
		NoticeID:   s.NoticeID,
		NoticeName: s.NoticeName,
		Questions:  make([]QuestionView, len(s.questions)),
		Answers:    append([]int(nil), s.answers...),
		Current:    s.current,
		TimeLeft:   s.timeLeft,
		Finished:   s.finished,
	}
	if s.finished {
		record := s.record
		st.Result = &record
	}

	for i, q := range s.questions {
		view := QuestionView{
			ID:         q.ID,
			Discipline: q.Discipline,
			Difficulty: q.Difficulty,
			Text:       q.Text,
			Options:    q.Options,
		}
		reveal := s.finished || (s.Mode == model.ModePractice && s.answers[i] != Unanswered)
		if reveal {
			idx := q.CorrectIndex
			view.CorrectIndex = &idx
			view.Explanation = q.Explanation
		}
		st.Questions[i] = view
	}
	return st
}
