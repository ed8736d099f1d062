package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/editalmaster/editalmaster/internal/model"
)

func makeQuestions(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:           fmt.Sprintf("q%d", i),
			Discipline:   "Português",
			Text:         fmt.Sprintf("Questão %d", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
			Explanation:  fmt.Sprintf("Explicação %d", i),
		}
	}
	return questions
}

func newPractice(t *testing.T) *Session {
	t.Helper()
	s, err := New(model.ModePractice, "n1", "Auditor", makeQuestions(PracticeQuestions))
	if err != nil {
		t.Fatalf("New(practice): %v", err)
	}
	return s
}

func newExam(t *testing.T) *Session {
	t.Helper()
	s, err := New(model.ModeExam, "n1", "Auditor", makeQuestions(ExamQuestions))
	if err != nil {
		t.Fatalf("New(exam): %v", err)
	}
	return s
}

func TestNewValidatesQuestionCount(t *testing.T) {
	if _, err := New(model.ModePractice, "n1", "Auditor", makeQuestions(3)); !errors.Is(err, ErrBadQuestionSet) {
		t.Errorf("practice with 3 questions: got %v, want ErrBadQuestionSet", err)
	}
	if _, err := New(model.ModeExam, "n1", "Auditor", makeQuestions(PracticeQuestions)); !errors.Is(err, ErrBadQuestionSet) {
		t.Errorf("exam with 5 questions: got %v, want ErrBadQuestionSet", err)
	}
}

func TestNewValidatesQuestions(t *testing.T) {
	bad := makeQuestions(PracticeQuestions)
	bad[2].CorrectIndex = 7
	if _, err := New(model.ModePractice, "n1", "Auditor", bad); !errors.Is(err, ErrBadQuestionSet) {
		t.Errorf("out-of-range correct index: got %v, want ErrBadQuestionSet", err)
	}

	bad = makeQuestions(PracticeQuestions)
	bad[0].Options = []string{"a", "b"}
	if _, err := New(model.ModePractice, "n1", "Auditor", bad); !errors.Is(err, ErrBadQuestionSet) {
		t.Errorf("two options: got %v, want ErrBadQuestionSet", err)
	}
}

func TestPracticeAnswerLocksAndGivesFeedback(t *testing.T) {
	s := newPractice(t)

	fb, err := s.Answer(0, 0)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if fb == nil {
		t.Fatal("practice answer returned no feedback")
	}
	if !fb.Correct {
		t.Errorf("option 0 on question 0 should be correct")
	}
	if fb.Explanation == "" {
		t.Errorf("feedback missing explanation")
	}

	// The first answer is final.
	if _, err := s.Answer(0, 1); !errors.Is(err, ErrLocked) {
		t.Errorf("second answer: got %v, want ErrLocked", err)
	}

	fb, err = s.Answer(1, 0)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if fb.Correct {
		t.Errorf("option 0 on question 1 should be wrong")
	}
	if fb.CorrectIndex != 1 {
		t.Errorf("feedback correct index = %d, want 1", fb.CorrectIndex)
	}
}

func TestExamAnswerOverwritesWithoutFeedback(t *testing.T) {
	s := newExam(t)

	fb, err := s.Answer(0, 1)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if fb != nil {
		t.Errorf("exam answer leaked feedback: %+v", fb)
	}

	// Changing an answer is allowed in exam mode.
	if _, err := s.Answer(0, 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	record, _ := s.Finish()
	if record.Score != 1 {
		t.Errorf("score = %d, want 1 (last answer counts)", record.Score)
	}
}

func TestAnswerBounds(t *testing.T) {
	s := newPractice(t)

	if _, err := s.Answer(-1, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative question: got %v", err)
	}
	if _, err := s.Answer(PracticeQuestions, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("question past end: got %v", err)
	}
	if _, err := s.Answer(0, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("option past end: got %v", err)
	}
}

func TestNavigationClamps(t *testing.T) {
	s := newPractice(t)

	if got := s.Retreat(); got != 0 {
		t.Errorf("Retreat at start = %d, want 0", got)
	}
	for range PracticeQuestions + 3 {
		s.Advance()
	}
	if got := s.Advance(); got != PracticeQuestions-1 {
		t.Errorf("Advance past end = %d, want %d", got, PracticeQuestions-1)
	}
}

func TestFinishScoresUnansweredAsWrong(t *testing.T) {
	s := newExam(t)

	// Answer three correctly, leave the rest blank.
	for i := range 3 {
		if _, err := s.Answer(i, i%4); err != nil {
			t.Fatalf("Answer: %v", err)
		}
	}

	record, emitted := s.Finish()
	if !emitted {
		t.Fatal("first Finish did not emit a record")
	}
	if record.Score != 3 {
		t.Errorf("score = %d, want 3", record.Score)
	}
	if record.Total != ExamQuestions {
		t.Errorf("total = %d, want %d", record.Total, ExamQuestions)
	}
	if record.NoticeID != "n1" || record.Mode != model.ModeExam {
		t.Errorf("record metadata wrong: %+v", record)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	s := newPractice(t)

	first, emitted := s.Finish()
	if !emitted {
		t.Fatal("first Finish did not emit")
	}
	second, emitted := s.Finish()
	if emitted {
		t.Error("second Finish emitted a second record")
	}
	if first.ID != second.ID {
		t.Errorf("records differ across Finish calls: %q vs %q", first.ID, second.ID)
	}

	if _, err := s.Answer(0, 0); !errors.Is(err, ErrFinished) {
		t.Errorf("answer after finish: got %v, want ErrFinished", err)
	}
}

func TestTickCountsDownAndExpires(t *testing.T) {
	s := newExam(t)

	budget := int(ExamTimeBudget.Seconds())
	if got := s.TimeLeft(); got != budget {
		t.Fatalf("initial TimeLeft = %d, want %d", got, budget)
	}

	if _, expired := s.Tick(); expired {
		t.Fatal("first tick expired the session")
	}
	if got := s.TimeLeft(); got != budget-1 {
		t.Errorf("TimeLeft after one tick = %d, want %d", got, budget-1)
	}

	if _, err := s.Answer(0, 0); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	// Burn the rest of the budget.
	var record model.ScoreRecord
	expired := false
	for range budget {
		record, expired = s.Tick()
		if expired {
			break
		}
	}
	if !expired {
		t.Fatal("session never expired")
	}
	if !s.Finished() {
		t.Error("expired session not finished")
	}
	if record.Score != 1 {
		t.Errorf("timeout score = %d, want 1 (unanswered count as wrong)", record.Score)
	}
	if record.Total != ExamQuestions {
		t.Errorf("timeout total = %d, want %d", record.Total, ExamQuestions)
	}

	// A finished session ignores further ticks and emits nothing.
	if _, expired := s.Tick(); expired {
		t.Error("tick after finish emitted a record")
	}
}

func TestPracticeIgnoresTicks(t *testing.T) {
	s := newPractice(t)
	if _, expired := s.Tick(); expired {
		t.Error("practice tick expired the session")
	}
	if got := s.TimeLeft(); got != 0 {
		t.Errorf("practice TimeLeft = %d, want 0", got)
	}
}

func TestSnapshotRevealRules(t *testing.T) {
	exam := newExam(t)
	if _, err := exam.Answer(0, 2); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	st := exam.Snapshot()
	if st.Finished {
		t.Fatal("snapshot finished before Finish")
	}
	for i, q := range st.Questions {
		if q.CorrectIndex != nil || q.Explanation != "" {
			t.Errorf("exam question %d leaks answer before finish", i)
		}
	}
	if st.Answers[0] != 2 {
		t.Errorf("answers[0] = %d, want 2", st.Answers[0])
	}

	exam.Finish()
	st = exam.Snapshot()
	if st.Result == nil {
		t.Fatal("finished snapshot missing result")
	}
	for i, q := range st.Questions {
		if q.CorrectIndex == nil {
			t.Errorf("finished exam question %d still hides answer", i)
		}
	}

	practice := newPractice(t)
	practice.Answer(1, 0)
	st = practice.Snapshot()
	if st.Questions[0].CorrectIndex != nil {
		t.Error("practice reveals unanswered question 0")
	}
	if st.Questions[1].CorrectIndex == nil {
		t.Error("practice hides answered question 1")
	}
}
