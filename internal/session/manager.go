package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/editalmaster/editalmaster/internal/model"
)

// Manager owns the live sessions and the countdown ticker behind each exam.
// Finished sessions stay retrievable until removed; only their score record
// outlives them, delivered through the onScore hook exactly once.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	stops    map[string]chan struct{}
	onScore  func(model.ScoreRecord)
}

// NewManager creates a Manager. onScore receives each session's score
// record once, whether the session was finished explicitly or by timeout.
// It may be nil.
func NewManager(onScore func(model.ScoreRecord)) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		stops:    make(map[string]chan struct{}),
		onScore:  onScore,
	}
}

// Create validates the question set, registers the session, and, for
// exams, starts its 1 Hz countdown.
func (m *Manager) Create(mode model.AssessmentMode, noticeID, noticeName string, questions []model.Question) (*Session, error) {
	sess, err := New(mode, noticeID, noticeName, questions)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	if mode == model.ModeExam {
		stop := make(chan struct{})
		m.stops[sess.ID] = stop
		go m.countdown(sess, stop)
	}
	m.mu.Unlock()

	return sess, nil
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Finish finishes a session explicitly and returns its final snapshot.
// Finishing twice is a no-op on the second call.
func (m *Manager) Finish(id string) (State, error) {
	sess, err := m.Get(id)
	if err != nil {
		return State{}, err
	}

	record, emitted := sess.Finish()
	if emitted {
		m.emit(record)
		m.stopCountdown(id)
	}
	return sess.Snapshot(), nil
}

// Remove evicts a session, stopping its countdown. Evicting an unfinished
// session abandons it without a score record.
func (m *Manager) Remove(id string) {
	m.stopCountdown(id)
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) countdown(sess *Session, stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			record, expired := sess.Tick()
			if expired {
				slog.Info("exam session timed out",
					"session_id", sess.ID,
					"score", record.Score,
					"total", record.Total,
				)
				m.emit(record)
				return
			}
			if sess.Finished() {
				return
			}
		}
	}
}

func (m *Manager) stopCountdown(id string) {
	m.mu.Lock()
	stop, ok := m.stops[id]
	if ok {
		delete(m.stops, id)
	}
	m.mu.Unlock()
	if ok {
		close(stop)
	}
}

func (m *Manager) emit(record model.ScoreRecord) {
	if m.onScore != nil {
		m.onScore(record)
	}
}
